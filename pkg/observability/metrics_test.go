package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_CacheMetrics(t *testing.T) {
	c := NewCollector("test")

	c.RecordLookup(valueobjects.SearchTypeVideos, ports.OutcomeHit)
	c.RecordLookup(valueobjects.SearchTypeVideos, ports.OutcomeHit)
	c.RecordLookup(valueobjects.SearchTypeChannels, ports.OutcomeMiss)
	c.RecordQuotaExceeded(valueobjects.SearchTypeVideos)
	c.RecordUpstreamCall("search", "success", 20*time.Millisecond)
	c.ObserveQuery("SearchVideosQuery", time.Millisecond, errors.New("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheLookups.WithLabelValues("videos", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheLookups.WithLabelValues("channels", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.QuotaExceeded.WithLabelValues("videos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamCalls.WithLabelValues("search", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Queries.WithLabelValues("SearchVideosQuery", "failure")))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector("test")
	b := NewCollector("test")

	a.RecordReviewLookup(ports.OutcomeHit)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ReviewLookups.WithLabelValues("hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ReviewLookups.WithLabelValues("hit")))
}

type fakeCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestMetrics_FlushSendsBuffered(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics("CatalogCache", cw, zap.NewNop())

	m.RecordLookup(valueobjects.SearchTypeChannels, ports.OutcomeMiss)
	m.RecordSharedCall(valueobjects.SearchTypeChannels)
	assert.Empty(t, cw.inputs)

	require.NoError(t, m.Flush(context.Background()))
	require.Len(t, cw.inputs, 1)
	input := cw.inputs[0]
	assert.Equal(t, "CatalogCache", aws.ToString(input.Namespace))
	require.Len(t, input.MetricData, 2)
	assert.Equal(t, "CacheLookup", aws.ToString(input.MetricData[0].MetricName))
	require.Len(t, input.MetricData[0].Dimensions, 2)
	assert.Equal(t, "Outcome", aws.ToString(input.MetricData[0].Dimensions[1].Name))
	assert.Equal(t, "miss", aws.ToString(input.MetricData[0].Dimensions[1].Value))

	require.NoError(t, m.Flush(context.Background()))
	assert.Len(t, cw.inputs, 1)
}

func TestMetrics_FlushChunks(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics("ns", cw, zap.NewNop())
	for i := 0; i < maxDatumsPerCall+5; i++ {
		m.RecordReviewLookup(ports.OutcomeMiss)
	}

	require.NoError(t, m.Flush(context.Background()))

	require.Len(t, cw.inputs, 2)
	assert.Len(t, cw.inputs[0].MetricData, maxDatumsPerCall)
	assert.Len(t, cw.inputs[1].MetricData, 5)
}

func TestMetrics_FlushError(t *testing.T) {
	cw := &fakeCloudWatch{err: errors.New("denied")}
	m := NewMetrics("ns", cw, zap.NewNop())
	m.RecordQuotaExceeded(valueobjects.SearchTypeVideos)

	assert.Error(t, m.Flush(context.Background()))
}

func TestMetrics_NilClient(t *testing.T) {
	m := NewMetrics("ns", nil, zap.NewNop())
	m.RecordLookup(valueobjects.SearchTypeVideos, ports.OutcomeHit)

	assert.NoError(t, m.Flush(context.Background()))
}

func TestTee(t *testing.T) {
	a := NewCollector("a")
	b := NewCollector("b")
	tee := Tee{a, b}

	tee.RecordSharedCall(valueobjects.SearchTypeChannelVideos)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SharedCalls.WithLabelValues("channelVideos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.SharedCalls.WithLabelValues("channelVideos")))
}
