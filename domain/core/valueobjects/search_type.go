package valueobjects

import "fmt"

// SearchType identifies which upstream operation produced a cache entry
type SearchType string

const (
	SearchTypeChannels      SearchType = "channels"
	SearchTypeVideos        SearchType = "videos"
	SearchTypeChannelVideos SearchType = "channelVideos"
)

// AllSearchTypes lists every search type in display order
var AllSearchTypes = []SearchType{
	SearchTypeChannels,
	SearchTypeVideos,
	SearchTypeChannelVideos,
}

// ParseSearchType converts a raw string into a SearchType
func ParseSearchType(s string) (SearchType, error) {
	t := SearchType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid search type: %q", s)
	}
	return t, nil
}

// IsValid reports whether the search type is known
func (t SearchType) IsValid() bool {
	switch t {
	case SearchTypeChannels, SearchTypeVideos, SearchTypeChannelVideos:
		return true
	}
	return false
}

func (t SearchType) String() string { return string(t) }

// DurationClass is the upstream duration filter for video searches
type DurationClass string

const (
	DurationAny    DurationClass = "any"
	DurationShort  DurationClass = "short"
	DurationMedium DurationClass = "medium"
	DurationLong   DurationClass = "long"
)

// ParseDurationClass converts a raw filter value. Empty maps to DurationAny.
func ParseDurationClass(s string) (DurationClass, error) {
	switch d := DurationClass(s); d {
	case "":
		return DurationAny, nil
	case DurationAny, DurationShort, DurationMedium, DurationLong:
		return d, nil
	default:
		return "", fmt.Errorf("invalid duration filter: %q", s)
	}
}

// Active reports whether the filter restricts results
func (d DurationClass) Active() bool {
	return d != "" && d != DurationAny
}
