package autoconf

import (
	"time"

	"go.uber.org/zap"
)

// ResolutionEvent describes the fate of one descriptor for logging.
type ResolutionEvent struct {
	EvaluationID  string
	Descriptor    string
	Configuration string
	Type          string
	Outcome       OutcomeKind
	Message       string
	Duration      time.Duration
	Err           error
}

// ResolutionLogger records resolution events.
type ResolutionLogger interface {
	LogResolution(ResolutionEvent)
}

// ResolutionLoggerFunc adapts a function to ResolutionLogger.
type ResolutionLoggerFunc func(ResolutionEvent)

// LogResolution implements ResolutionLogger.
func (f ResolutionLoggerFunc) LogResolution(event ResolutionEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolutionLogger struct{}

func (noopResolutionLogger) LogResolution(ResolutionEvent) {}

// WithResolutionLogger attaches a logger to the resolver.
func WithResolutionLogger(logger ResolutionLogger) ResolverOption {
	return func(cfg *resolverConfig) {
		if logger == nil {
			cfg.logger = noopResolutionLogger{}
			return
		}
		cfg.logger = logger
	}
}

// ZapLogger writes resolution events to l. Registrations log at info,
// skipped descriptors at debug and failures at error.
func ZapLogger(l *zap.Logger) ResolutionLogger {
	if l == nil {
		return noopResolutionLogger{}
	}
	l = l.Named("autoconf")
	return ResolutionLoggerFunc(func(event ResolutionEvent) {
		fields := []zap.Field{
			zap.String("evaluation_id", event.EvaluationID),
			zap.String("descriptor", event.Descriptor),
			zap.String("type", event.Type),
			zap.String("outcome", string(event.Outcome)),
			zap.Duration("duration", event.Duration),
		}
		if event.Configuration != "" {
			fields = append(fields, zap.String("configuration", event.Configuration))
		}
		if event.Message != "" {
			fields = append(fields, zap.String("reason", event.Message))
		}
		switch {
		case event.Err != nil:
			l.Error("component resolution failed", append(fields, zap.Error(event.Err))...)
		case event.Outcome == OutcomeRegistered:
			l.Info("component registered", fields...)
		default:
			l.Debug("component skipped", fields...)
		}
	})
}
