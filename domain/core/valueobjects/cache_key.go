package valueobjects

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Filter is an optional search restriction that becomes part of a cache key.
// Filters are emitted in a fixed order regardless of how they are supplied.
type Filter struct {
	name  string
	value string
	rank  int
}

const (
	rankDuration = iota
	rankChannel
)

// DurationFilter restricts video searches by duration class
func DurationFilter(d DurationClass) Filter {
	if !d.Active() {
		return Filter{}
	}
	return Filter{name: "duration", value: string(d), rank: rankDuration}
}

// ChannelFilter restricts searches to a single channel
func ChannelFilter(channelID string) Filter {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return Filter{}
	}
	return Filter{name: "channel", value: channelID, rank: rankChannel}
}

// Active reports whether the filter contributes to the key
func (f Filter) Active() bool { return f.name != "" }

var queryEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

// NormalizeQuery trims and lower-cases a free-text query and appends each
// active filter as a "|name:value" suffix, duration before channel. A
// literal "|" in the query is escaped so it never reads as a filter.
func NormalizeQuery(query string, filters ...Filter) string {
	normalized := queryEscaper.Replace(strings.ToLower(strings.TrimSpace(query)))

	active := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f.Active() {
			active = append(active, f)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].rank < active[j].rank })

	var b strings.Builder
	b.WriteString(normalized)
	for _, f := range active {
		b.WriteString("|")
		b.WriteString(f.name)
		b.WriteString(":")
		b.WriteString(f.value)
	}
	return b.String()
}

// SearchKey identifies one conceptual cache entry
type SearchKey struct {
	SearchType SearchType `json:"searchType"`
	Query      string     `json:"query,omitempty"`
	MaxResults int        `json:"maxResults,omitempty"`
	ChannelID  string     `json:"channelId,omitempty"`
}

// NewSearchKey builds the key for a channels or videos search
func NewSearchKey(searchType SearchType, query string, maxResults int, filters ...Filter) SearchKey {
	return SearchKey{
		SearchType: searchType,
		Query:      NormalizeQuery(query, filters...),
		MaxResults: maxResults,
	}
}

// NewChannelVideosKey builds the key for a channel upload listing.
// The channel id is already stable, so it is used as-is.
func NewChannelVideosKey(channelID string) SearchKey {
	return SearchKey{
		SearchType: SearchTypeChannelVideos,
		ChannelID:  channelID,
	}
}

// Composite renders the key as a single string used for storage partitioning
// and request coalescing.
func (k SearchKey) Composite() string {
	if k.SearchType == SearchTypeChannelVideos {
		return string(k.SearchType) + "#" + k.ChannelID
	}
	return string(k.SearchType) + "#" + strconv.Itoa(k.MaxResults) + "#" + k.Query
}

// Validate checks that the key has the fields its search type needs
func (k SearchKey) Validate() error {
	if !k.SearchType.IsValid() {
		return fmt.Errorf("invalid search type: %q", k.SearchType)
	}
	if k.SearchType == SearchTypeChannelVideos {
		if k.ChannelID == "" {
			return fmt.Errorf("channel ID is required for %s", k.SearchType)
		}
		return nil
	}
	if k.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive for %s", k.SearchType)
	}
	return nil
}

func (k SearchKey) String() string { return k.Composite() }
