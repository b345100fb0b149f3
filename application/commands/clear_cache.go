package commands

import (
	"strings"

	"catalog-cache/domain/core/valueobjects"
	apperrors "catalog-cache/pkg/errors"
)

// ClearCacheEntryCommand removes every generation of one search key.
// Deleted is filled in by the handler.
type ClearCacheEntryCommand struct {
	SearchType string
	Query      string
	MaxResults int
	Duration   string
	ChannelID  string

	Deleted int
}

// Validate validates the command
func (c *ClearCacheEntryCommand) Validate() error {
	_, err := c.Key()
	return err
}

// Key rebuilds the cache key exactly as a search would
func (c *ClearCacheEntryCommand) Key() (valueobjects.SearchKey, error) {
	searchType, err := valueobjects.ParseSearchType(c.SearchType)
	if err != nil {
		return valueobjects.SearchKey{}, apperrors.NewValidationError(err.Error())
	}

	var key valueobjects.SearchKey
	switch searchType {
	case valueobjects.SearchTypeChannelVideos:
		key = valueobjects.NewChannelVideosKey(c.ChannelID)
	case valueobjects.SearchTypeVideos:
		duration, err := valueobjects.ParseDurationClass(c.Duration)
		if err != nil {
			return valueobjects.SearchKey{}, apperrors.NewValidationError(err.Error())
		}
		key = valueobjects.NewSearchKey(searchType, c.Query, c.MaxResults,
			valueobjects.DurationFilter(duration),
			valueobjects.ChannelFilter(c.ChannelID),
		)
	default:
		key = valueobjects.NewSearchKey(searchType, c.Query, c.MaxResults)
	}

	if searchType != valueobjects.SearchTypeChannelVideos && strings.TrimSpace(c.Query) == "" {
		return valueobjects.SearchKey{}, apperrors.NewValidationError("query is required")
	}
	if err := key.Validate(); err != nil {
		return valueobjects.SearchKey{}, apperrors.NewValidationError(err.Error())
	}
	return key, nil
}

// ClearCacheCommand removes every entry of a search type, or every entry when SearchType is empty
type ClearCacheCommand struct {
	SearchType string

	Deleted int
}

// Validate validates the command
func (c *ClearCacheCommand) Validate() error {
	if c.SearchType == "" {
		return nil
	}
	if _, err := valueobjects.ParseSearchType(c.SearchType); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// ClearReviewCommand removes the cached review of one entity
type ClearReviewCommand struct {
	EntityID string

	Deleted int
}

// Validate validates the command
func (c *ClearReviewCommand) Validate() error {
	if c.EntityID == "" {
		return apperrors.NewValidationError("entity ID is required")
	}
	return nil
}

// ClearReviewsCommand removes every cached review
type ClearReviewsCommand struct {
	Deleted int
}

// Validate validates the command
func (c *ClearReviewsCommand) Validate() error { return nil }
