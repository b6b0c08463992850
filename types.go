package autoconf

import (
	"time"

	"github.com/goliatone/go-autoconf/pkg/activity"
	"go.opentelemetry.io/otel/trace"
)

// RuleContext carries inputs needed when evaluating an activation expression.
type RuleContext struct {
	Snapshot   Snapshot
	Now        *time.Time
	Args       map[string]any
	Metadata   map[string]any
	Descriptor string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) descriptorLabel() string {
	if ctx.Descriptor != "" {
		return ctx.Descriptor
	}
	return "unknown"
}

func (ctx RuleContext) has(key string) bool {
	return ctx.Snapshot.Has(key)
}

func (ctx RuleContext) prop(key string) string {
	return ctx.Snapshot.Value(key)
}

func (ctx RuleContext) prefixed(prefix string) bool {
	return ctx.Snapshot.HasPrefix(prefix)
}

// Evaluator executes activation expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          ResolutionLogger
	activityHooks   activity.Hooks
	activityChannel string
	tracer          trace.Tracer
	metrics         *Metrics
	clock           func() time.Time
}

func applyResolverOptions(opts []ResolverOption) resolverConfig {
	cfg := resolverConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEvaluator sets the evaluator used by expression conditions that do not
// carry their own.
func WithEvaluator(e Evaluator) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.evaluator = e
	}
}

// WithClock overrides the time source used for durations and rule contexts.
func WithClock(now func() time.Time) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.clock = now
	}
}

func (cfg resolverConfig) now() time.Time {
	if cfg.clock != nil {
		return cfg.clock()
	}
	return time.Now()
}

func (cfg resolverConfig) resolutionLogger() ResolutionLogger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopResolutionLogger{}
}

// defaultEvaluator falls back to an expr evaluator wired with the configured
// cache and function registry.
func (cfg resolverConfig) defaultEvaluator() Evaluator {
	if cfg.evaluator != nil {
		return cfg.evaluator
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	return NewExprEvaluator(exprOpts...)
}
