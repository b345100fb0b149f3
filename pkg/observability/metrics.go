package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector holds the Prometheus metrics for the service
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	CacheLookups   *prometheus.CounterVec
	SharedCalls    *prometheus.CounterVec
	QuotaExceeded  *prometheus.CounterVec
	ReviewLookups  *prometheus.CounterVec
	UpstreamCalls  *prometheus.CounterVec
	UpstreamTiming *prometheus.HistogramVec

	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

var _ ports.CacheMetrics = (*Collector)(nil)

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Catalog cache lookups by search type and outcome",
		}, []string{"search_type", "outcome"}),
		SharedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shared_fetches_total",
			Help:      "Requests that joined an in-flight fetch for the same key",
		}, []string{"search_type"}),
		QuotaExceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_exceeded_total",
			Help:      "Fetches aborted because the upstream quota was exhausted",
		}, []string{"search_type"}),
		ReviewLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_lookups_total",
			Help:      "Review cache lookups by outcome",
		}, []string{"outcome"}),
		UpstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Upstream catalog calls by operation and status",
		}, []string{"operation", "status"}),
		UpstreamTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_call_duration_seconds",
			Help:      "Upstream catalog call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries dispatched through the query bus",
		}, []string{"query", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheLookups,
		c.SharedCalls,
		c.QuotaExceeded,
		c.ReviewLookups,
		c.UpstreamCalls,
		c.UpstreamTiming,
		c.Queries,
		c.QueryDuration,
	)
	return c
}

// Registry exposes the registry for the /metrics handler
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordLookup(searchType valueobjects.SearchType, outcome string) {
	c.CacheLookups.WithLabelValues(string(searchType), outcome).Inc()
}

func (c *Collector) RecordUpstreamCall(operation, status string, duration time.Duration) {
	c.UpstreamCalls.WithLabelValues(operation, status).Inc()
	c.UpstreamTiming.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) RecordQuotaExceeded(searchType valueobjects.SearchType) {
	c.QuotaExceeded.WithLabelValues(string(searchType)).Inc()
}

func (c *Collector) RecordSharedCall(searchType valueobjects.SearchType) {
	c.SharedCalls.WithLabelValues(string(searchType)).Inc()
}

func (c *Collector) RecordReviewLookup(outcome string) {
	c.ReviewLookups.WithLabelValues(outcome).Inc()
}

// ObserveQuery records a query bus dispatch
func (c *Collector) ObserveQuery(queryType string, duration time.Duration, err error) {
	c.Queries.WithLabelValues(queryType, statusOf(err)).Inc()
	c.QueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func statusOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// CloudWatchAPI is the subset of the CloudWatch client used by Metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// maxDatumsPerCall is the PutMetricData request limit
const maxDatumsPerCall = 1000

// Metrics buffers cache telemetry and ships it to CloudWatch on Flush.
// A nil client turns every method into a no-op.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger

	mu      sync.Mutex
	pending []types.MetricDatum
}

var _ ports.CacheMetrics = (*Metrics)(nil)

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

func (m *Metrics) add(name string, value float64, unit types.StandardUnit, dims ...string) {
	if m.client == nil {
		return
	}
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
	for i := 0; i+1 < len(dims); i += 2 {
		datum.Dimensions = append(datum.Dimensions, types.Dimension{
			Name:  aws.String(dims[i]),
			Value: aws.String(dims[i+1]),
		})
	}

	m.mu.Lock()
	m.pending = append(m.pending, datum)
	m.mu.Unlock()
}

func (m *Metrics) RecordLookup(searchType valueobjects.SearchType, outcome string) {
	m.add("CacheLookup", 1, types.StandardUnitCount, "SearchType", string(searchType), "Outcome", outcome)
}

func (m *Metrics) RecordUpstreamCall(operation, status string, duration time.Duration) {
	m.add("UpstreamLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, "Operation", operation, "Status", status)
}

func (m *Metrics) RecordQuotaExceeded(searchType valueobjects.SearchType) {
	m.add("QuotaExceeded", 1, types.StandardUnitCount, "SearchType", string(searchType))
}

func (m *Metrics) RecordSharedCall(searchType valueobjects.SearchType) {
	m.add("SharedFetch", 1, types.StandardUnitCount, "SearchType", string(searchType))
}

func (m *Metrics) RecordReviewLookup(outcome string) {
	m.add("ReviewLookup", 1, types.StandardUnitCount, "Outcome", outcome)
}

// ObserveQuery records a query bus dispatch
func (m *Metrics) ObserveQuery(queryType string, duration time.Duration, err error) {
	m.add("QueryExecution", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, "QueryName", queryType, "Status", statusOf(err))
}

// Flush sends everything buffered so far. Failed chunks are logged and dropped.
func (m *Metrics) Flush(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	var firstErr error
	for start := 0; start < len(pending); start += maxDatumsPerCall {
		end := start + maxDatumsPerCall
		if end > len(pending) {
			end = len(pending)
		}
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[start:end],
		})
		if err != nil {
			m.logger.Warn("Failed to send metrics", zap.Int("datums", end-start), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Tee fans telemetry out to several sinks
type Tee []ports.CacheMetrics

var _ ports.CacheMetrics = Tee(nil)

func (t Tee) RecordLookup(searchType valueobjects.SearchType, outcome string) {
	for _, m := range t {
		m.RecordLookup(searchType, outcome)
	}
}

func (t Tee) RecordUpstreamCall(operation, status string, duration time.Duration) {
	for _, m := range t {
		m.RecordUpstreamCall(operation, status, duration)
	}
}

func (t Tee) RecordQuotaExceeded(searchType valueobjects.SearchType) {
	for _, m := range t {
		m.RecordQuotaExceeded(searchType)
	}
}

func (t Tee) RecordSharedCall(searchType valueobjects.SearchType) {
	for _, m := range t {
		m.RecordSharedCall(searchType)
	}
}

func (t Tee) RecordReviewLookup(outcome string) {
	for _, m := range t {
		m.RecordReviewLookup(outcome)
	}
}

// QueryObservers fans query timings out to several sinks
type QueryObservers []interface {
	ObserveQuery(queryType string, duration time.Duration, err error)
}

func (q QueryObservers) ObserveQuery(queryType string, duration time.Duration, err error) {
	for _, o := range q {
		o.ObserveQuery(queryType, duration, err)
	}
}
