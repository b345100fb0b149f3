package queries

import (
	"strings"

	"catalog-cache/pkg/utils"
)

// SearchChannelsQuery asks for channels matching a free-text query
type SearchChannelsQuery struct {
	Query        string `validate:"required,max=200"`
	MaxResults   int    `validate:"gte=0,lte=50"`
	ForceRefresh bool
}

// Validate validates the SearchChannelsQuery
func (q SearchChannelsQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	return utils.ValidateStruct(q)
}

// SearchVideosQuery asks for videos matching a free-text query and optional filters
type SearchVideosQuery struct {
	Query        string `validate:"required,max=200"`
	MaxResults   int    `validate:"gte=0,lte=50"`
	Duration     string `validate:"omitempty,oneof=any short medium long"`
	ChannelID    string `validate:"max=64"`
	ForceRefresh bool
}

// Validate validates the SearchVideosQuery
func (q SearchVideosQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	return utils.ValidateStruct(q)
}

// GetChannelVideosQuery asks for a channel's uploads
type GetChannelVideosQuery struct {
	ChannelID    string `validate:"required,max=64"`
	MaxVideos    int    `validate:"gte=0,lte=2000"`
	ForceRefresh bool
}

// Validate validates the GetChannelVideosQuery
func (q GetChannelVideosQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetCacheStatsQuery asks for the operator statistics report
type GetCacheStatsQuery struct{}

// Validate validates the GetCacheStatsQuery
func (q GetCacheStatsQuery) Validate() error { return nil }

// GetContentReviewQuery asks for the content review of one entity.
// A miss generates and stores a review.
type GetContentReviewQuery struct {
	EntityID     string `validate:"required,max=64"`
	Title        string `validate:"required,max=500"`
	Description  string `validate:"max=10000"`
	ChannelTitle string `validate:"max=200"`
	ForceRefresh bool
}

// Validate validates the GetContentReviewQuery
func (q GetContentReviewQuery) Validate() error {
	return utils.ValidateStruct(q)
}
