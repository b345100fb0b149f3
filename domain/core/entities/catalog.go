package entities

// EntityKind distinguishes channel and video records returned by the catalog
type EntityKind string

const (
	EntityKindChannel EntityKind = "channel"
	EntityKindVideo   EntityKind = "video"
)

// Thumbnail is a single thumbnail rendition
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Thumbnails holds the renditions the catalog exposes
type Thumbnails struct {
	Default *Thumbnail `json:"default,omitempty"`
	Medium  *Thumbnail `json:"medium,omitempty"`
	High    *Thumbnail `json:"high,omitempty"`
}

// Best returns the highest quality URL available: high, then medium, then default
func (t Thumbnails) Best() string {
	for _, th := range []*Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.URL != "" {
			return th.URL
		}
	}
	return ""
}

// Snippet is the descriptive part of a catalog record
type Snippet struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelID    string     `json:"channelId,omitempty"`
	ChannelTitle string     `json:"channelTitle,omitempty"`
	PublishedAt  string     `json:"publishedAt,omitempty"`
	CustomURL    string     `json:"customUrl,omitempty"`
	Thumbnails   Thumbnails `json:"thumbnails"`
}

// Statistics holds counters. Nil means the catalog did not report the value.
type Statistics struct {
	ViewCount       *int64 `json:"viewCount,omitempty"`
	SubscriberCount *int64 `json:"subscriberCount,omitempty"`
	VideoCount      *int64 `json:"videoCount,omitempty"`
}

// ContentRating carries the catalog's own rating fields
type ContentRating struct {
	YtRating string `json:"ytRating,omitempty"`
}

// ContentDetails carries duration, rating and related collections
type ContentDetails struct {
	Duration        string        `json:"duration,omitempty"`
	ContentRating   ContentRating `json:"contentRating"`
	UploadsPlaylist string        `json:"uploadsPlaylist,omitempty"`
}

// Status carries playback permissions. Nil Embeddable means the field was absent.
type Status struct {
	Embeddable    *bool  `json:"embeddable,omitempty"`
	PrivacyStatus string `json:"privacyStatus,omitempty"`
}

// SearchStub is a lightweight search hit
type SearchStub struct {
	ID      string     `json:"id"`
	Kind    EntityKind `json:"kind"`
	Snippet Snippet    `json:"snippet"`
}

// EntityDetail is the full record returned by a batch detail lookup
type EntityDetail struct {
	ID             string         `json:"id"`
	Snippet        Snippet        `json:"snippet"`
	Statistics     Statistics     `json:"statistics"`
	ContentDetails ContentDetails `json:"contentDetails"`
	Status         Status         `json:"status"`
}

// CollectionItem is one entry of a paged collection listing
type CollectionItem struct {
	VideoID string  `json:"videoId"`
	Snippet Snippet `json:"snippet"`
}

// CollectionPage is one page of a collection listing
type CollectionPage struct {
	Items         []CollectionItem `json:"items"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
	TotalCount    int              `json:"totalCount"`
}

// Channel is the enriched channel record served to callers
type Channel struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	CustomURL       string `json:"customUrl,omitempty"`
	Thumbnail       string `json:"thumbnail"`
	SubscriberCount *int64 `json:"subscriberCount,omitempty"`
	VideoCount      *int64 `json:"videoCount,omitempty"`
}

// Video is the enriched, classified video record served to callers
type Video struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ChannelID       string `json:"channelId"`
	ChannelTitle    string `json:"channelTitle"`
	PublishedAt     string `json:"publishedAt,omitempty"`
	Thumbnail       string `json:"thumbnail"`
	Duration        string `json:"duration,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	ViewCount       *int64 `json:"viewCount,omitempty"`
	Embeddable      bool   `json:"embeddable"`
	AgeRestricted   bool   `json:"ageRestricted"`
	Reason          string `json:"reason,omitempty"`
}

// Playable reports whether the video can be shown in the kid-safe player
func (v Video) Playable() bool {
	return v.Embeddable && !v.AgeRestricted
}

// ChannelVideos is a channel's upload listing
type ChannelVideos struct {
	Items      []Video `json:"items"`
	TotalCount int     `json:"totalCount"`
}
