package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"worry_solver/internal/config"
)

func TestNormalizeOTLPEndpoint(t *testing.T) {
	cases := map[string]string{
		"collector:4317":           "collector:4317",
		"http://collector:4317":    "collector:4317",
		"https://otel.local:4317/": "otel.local:4317",
		" collector:4317 ":         "collector:4317",
	}
	for in, want := range cases {
		got, err := normalizeOTLPEndpoint(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := normalizeOTLPEndpoint("http://")
	require.Error(t, err)
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), &config.Config{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	require.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	require.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
	require.Contains(t, sampler(0).Description(), "TraceIDRatioBased{0}")
}
