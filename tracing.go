package autoconf

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/goliatone/go-autoconf"

// WithTracer records resolution and factory spans on tracer. Without it the
// global otel provider is used.
func WithTracer(tracer trace.Tracer) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.tracer = tracer
	}
}

func (cfg resolverConfig) tracerOrGlobal() trace.Tracer {
	if cfg.tracer != nil {
		return cfg.tracer
	}
	return otel.Tracer(tracerName)
}
