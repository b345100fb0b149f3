package ports

import (
	"time"

	"catalog-cache/domain/core/valueobjects"
)

// Lookup outcomes recorded per search type
const (
	OutcomeHit    = "hit"
	OutcomeMiss   = "miss"
	OutcomeBypass = "bypass"
)

// CacheMetrics receives cache and upstream telemetry
type CacheMetrics interface {
	RecordLookup(searchType valueobjects.SearchType, outcome string)
	RecordUpstreamCall(operation, status string, duration time.Duration)
	RecordQuotaExceeded(searchType valueobjects.SearchType)
	RecordSharedCall(searchType valueobjects.SearchType)
	RecordReviewLookup(outcome string)
}

// NoopMetrics discards everything
type NoopMetrics struct{}

func (NoopMetrics) RecordLookup(valueobjects.SearchType, string) {}
func (NoopMetrics) RecordUpstreamCall(string, string, time.Duration) {}
func (NoopMetrics) RecordQuotaExceeded(valueobjects.SearchType) {}
func (NoopMetrics) RecordSharedCall(valueobjects.SearchType) {}
func (NoopMetrics) RecordReviewLookup(string) {}
