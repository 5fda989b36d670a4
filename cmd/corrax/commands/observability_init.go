package commands

import (
	"log/slog"
	"os"

	"github.com/corraxdev/corrax/internal/observability"
	"github.com/corraxdev/corrax/internal/version"
)

// initObservability builds the Providers for a given run mode, reading
// OTLP endpoint/headers/insecure settings from the same environment
// variables the OTel SDK's own exporters use, so corrax needs no
// bespoke flags to point at a collector.
func initObservability(mode observability.AppMode, debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = mode
	cfg.LogJSON = mode != observability.ModeCLI

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(cfg)
}
