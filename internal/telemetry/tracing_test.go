package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetupTracing_Disabled(t *testing.T) {
	for _, exporter := range []string{"", "none", " NONE "} {
		shutdown, err := SetupTracing(context.Background(), TraceConfig{Exporter: exporter}, zap.NewNop())
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	}
}

func TestSetupTracing_Errors(t *testing.T) {
	_, err := SetupTracing(context.Background(), TraceConfig{Exporter: "otlp"}, nil)
	require.ErrorContains(t, err, "requires endpoint")

	_, err = SetupTracing(context.Background(), TraceConfig{Exporter: "jaeger"}, nil)
	require.ErrorContains(t, err, "unsupported trace exporter")
}

func TestSampler(t *testing.T) {
	require.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	require.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	require.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased{0.5}")
}
