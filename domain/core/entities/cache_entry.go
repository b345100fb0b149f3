package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-cache/domain/core/valueobjects"

	"github.com/google/uuid"
)

// ErrPayloadMismatch is returned when a payload variant does not match its search type
var ErrPayloadMismatch = errors.New("payload does not match search type")

// Payload is the result body of a cache entry. It is a closed union with one
// variant per search type.
type Payload interface {
	SearchType() valueobjects.SearchType
	isPayload()
}

// ChannelsPayload is the body of a channels search
type ChannelsPayload []Channel

// VideosPayload is the body of a videos search
type VideosPayload []Video

// ChannelVideosPayload is the body of a channel upload listing
type ChannelVideosPayload ChannelVideos

func (ChannelsPayload) SearchType() valueobjects.SearchType      { return valueobjects.SearchTypeChannels }
func (VideosPayload) SearchType() valueobjects.SearchType        { return valueobjects.SearchTypeVideos }
func (ChannelVideosPayload) SearchType() valueobjects.SearchType { return valueobjects.SearchTypeChannelVideos }

func (ChannelsPayload) isPayload()      {}
func (VideosPayload) isPayload()        {}
func (ChannelVideosPayload) isPayload() {}

// EncodePayload serializes a payload for storage
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil payload")
	}
	return json.Marshal(p)
}

// DecodePayload decodes a stored payload into the variant selected by searchType
func DecodePayload(searchType valueobjects.SearchType, raw []byte) (Payload, error) {
	switch searchType {
	case valueobjects.SearchTypeChannels:
		var p ChannelsPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", searchType, err)
		}
		if p == nil {
			p = ChannelsPayload{}
		}
		return p, nil
	case valueobjects.SearchTypeVideos:
		var p VideosPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", searchType, err)
		}
		if p == nil {
			p = VideosPayload{}
		}
		return p, nil
	case valueobjects.SearchTypeChannelVideos:
		var p ChannelVideosPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", searchType, err)
		}
		if p.Items == nil {
			p.Items = []Video{}
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown search type %q", searchType)
	}
}

// CacheEntry is one persisted generation of a cached search result
type CacheEntry struct {
	ID             string
	Key            valueobjects.SearchKey
	Payload        Payload
	CachedAt       time.Time
	ExpiresAt      time.Time
	TimesReused    int
	LastAccessedAt time.Time
}

// NewCacheEntry creates a fresh entry expiring ttl after now
func NewCacheEntry(key valueobjects.SearchKey, payload Payload, now time.Time, ttl time.Duration) (*CacheEntry, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if payload == nil || payload.SearchType() != key.SearchType {
		return nil, ErrPayloadMismatch
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	cachedAt := now.Truncate(time.Millisecond)
	return &CacheEntry{
		ID:             uuid.New().String(),
		Key:            key,
		Payload:        payload,
		CachedAt:       cachedAt,
		ExpiresAt:      cachedAt.Add(ttl),
		TimesReused:    0,
		LastAccessedAt: cachedAt,
	}, nil
}

// IsValid reports whether the entry is still fresh at now
func (e *CacheEntry) IsValid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// RecordHit bumps the reuse counter and access time. The access time never moves backwards.
func (e *CacheEntry) RecordHit(now time.Time) {
	e.TimesReused++
	if now.After(e.LastAccessedAt) {
		e.LastAccessedAt = now
	}
}

// TTL returns the lifetime the entry was created with
func (e *CacheEntry) TTL() time.Duration {
	return e.ExpiresAt.Sub(e.CachedAt)
}
