package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversiq-server/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		raw      string
		endpoint string
		insecure bool
	}{
		{raw: "otel-collector:4318", endpoint: "otel-collector:4318", insecure: true},
		{raw: "http://otel-collector:4318/", endpoint: "otel-collector:4318", insecure: true},
		{raw: "https://otlp.example.com", endpoint: "otlp.example.com", insecure: false},
	}
	for _, tt := range tests {
		endpoint, insecure := normalizeEndpoint(tt.raw)
		assert.Equal(t, tt.endpoint, endpoint, tt.raw)
		assert.Equal(t, tt.insecure, insecure, tt.raw)
	}
}

func TestParseHeaders(t *testing.T) {
	headers := parseHeaders("api-key=abc, x-tenant = conversiq ,broken,=empty")
	assert.Equal(t, map[string]string{"api-key": "abc", "x-tenant": "conversiq"}, headers)
	assert.Empty(t, parseHeaders(""))
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWithoutExporter(t *testing.T) {
	cfg := &config.Config{EnableTracing: true, ServiceName: "conversiq-test", Environment: "test"}
	shutdown, err := Setup(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
