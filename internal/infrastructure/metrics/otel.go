package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "conversiq"

// otelInstruments mirror the Prometheus collectors for export over OTLP.
type otelInstruments struct {
	embeddingCalls    metric.Int64Counter
	embeddingDuration metric.Float64Histogram
	llmCalls          metric.Int64Counter
	llmDuration       metric.Float64Histogram
}

var (
	instrumentsOnce sync.Once
	instruments     *otelInstruments
)

// otelMeters builds the instruments from the global meter provider on first use,
// after observability.Setup has installed it.
func otelMeters() *otelInstruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)
		inst := &otelInstruments{}
		// Creation only fails on invalid names; a nil instrument is skipped when recording.
		inst.embeddingCalls, _ = meter.Int64Counter("conversiq.embedding.calls",
			metric.WithDescription("Embedding service calls by outcome"))
		inst.embeddingDuration, _ = meter.Float64Histogram("conversiq.embedding.duration",
			metric.WithDescription("Embedding call duration"), metric.WithUnit("s"))
		inst.llmCalls, _ = meter.Int64Counter("conversiq.llm.calls",
			metric.WithDescription("Chat completion calls by purpose and outcome"))
		inst.llmDuration, _ = meter.Float64Histogram("conversiq.llm.duration",
			metric.WithDescription("Chat completion duration"), metric.WithUnit("s"))
		instruments = inst
	})
	return instruments
}

func recordOTelEmbedding(outcome string, durationSec float64) {
	inst := otelMeters()
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if inst.embeddingCalls != nil {
		inst.embeddingCalls.Add(ctx, 1, attrs)
	}
	if inst.embeddingDuration != nil {
		inst.embeddingDuration.Record(ctx, durationSec, attrs)
	}
}

func recordOTelLLMCall(purpose, outcome string, durationSec float64) {
	inst := otelMeters()
	ctx := context.Background()
	if inst.llmCalls != nil {
		inst.llmCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("purpose", purpose),
			attribute.String("outcome", outcome),
		))
	}
	if inst.llmDuration != nil {
		inst.llmDuration.Record(ctx, durationSec, metric.WithAttributes(attribute.String("purpose", purpose)))
	}
}
