package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestRecordersExportOTelInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	RecordEmbedding("success", 0.02)
	RecordEmbedding("timeout", 10)
	RecordLLMCall("reply", "success", 1.5)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	calls, ok := findMetric(rm, "conversiq.embedding.calls")
	require.True(t, ok)
	sum, ok := calls.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("outcome"))
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"success": 1, "timeout": 1}, byOutcome)

	llm, ok := findMetric(rm, "conversiq.llm.calls")
	require.True(t, ok)
	llmSum, ok := llm.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, llmSum.DataPoints, 1)
	purpose, _ := llmSum.DataPoints[0].Attributes.Value(attribute.Key("purpose"))
	assert.Equal(t, "reply", purpose.AsString())

	_, ok = findMetric(rm, "conversiq.llm.duration")
	assert.True(t, ok)
}

func TestRecordersUpdatePrometheus(t *testing.T) {
	before := testutil.ToFloat64(LLMCallsTotal.WithLabelValues("summary", "timeout"))
	RecordLLMCall("summary", "timeout", 30)
	assert.Equal(t, before+1, testutil.ToFloat64(LLMCallsTotal.WithLabelValues("summary", "timeout")))
}
