// Package observability provides OpenTelemetry integration for distributed
// tracing.
//
// Traces are exported over OTLP HTTP to a local Datadog Agent rather than to
// the Datadog API directly: the agent buffers and retries locally, handles
// authentication, and keeps DD_API_KEY out of the application process.
//
// Enable the agent's OTLP receiver in datadog.yaml:
//
//	otlp_config:
//	  receiver:
//	    protocols:
//	      http:
//	        endpoint: "localhost:4318"
//	  traces:
//	    enabled: true
//
// Environment variables (optional):
//   - DD_AGENT_HOST: Override agent host (default: localhost:4318)
//   - DD_ENV: Environment tag
//   - DD_SERVICE: Service name shown in APM
package observability

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/koopa0/ragstack/internal/config"
	"github.com/koopa0/ragstack/internal/log"
)

// DefaultAgentHost is the default agent OTLP HTTP endpoint.
const DefaultAgentHost = "localhost:4318"

// noopShutdown is returned whenever tracing is disabled or degraded.
func noopShutdown(context.Context) error { return nil }

// Setup installs a tracer provider exporting to the local Datadog Agent via
// OTLP HTTP. When the configuration is disabled it installs nothing and the
// tracer calls throughout the code stay no-ops.
//
// Returns a shutdown function that flushes pending spans. Setup never fails
// the program over tracing: exporter errors degrade to a no-op provider.
func Setup(ctx context.Context, cfg config.DatadogConfig, logger log.Logger) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled() {
		return noopShutdown, nil
	}

	agentHost := cfg.AgentHost
	if agentHost == "" {
		agentHost = DefaultAgentHost
	}

	// The SDK resource detector reads these, so the service name and
	// environment tag show up in APM without explicit resource wiring.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(), // localhost doesn't need TLS
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return noopShutdown, nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled",
		"agent", agentHost,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return provider.Shutdown, nil
}
