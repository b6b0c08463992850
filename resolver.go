package autoconf

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-autoconf/pkg/activity"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Resolver turns descriptors, a snapshot and user components into a Result.
// A Resolver is immutable and safe for concurrent use; each call to Resolve
// is independent.
type Resolver struct {
	cfg       resolverConfig
	evaluator Evaluator
	tracer    trace.Tracer
}

// NewResolver builds a resolver from opts.
func NewResolver(opts ...ResolverOption) *Resolver {
	cfg := applyResolverOptions(opts)
	return &Resolver{
		cfg:       cfg,
		evaluator: cfg.defaultEvaluator(),
		tracer:    cfg.tracerOrGlobal(),
	}
}

// Resolve is NewResolver(opts...).Resolve without user components.
func Resolve(ctx context.Context, descriptors []Descriptor, snapshot Snapshot, opts ...ResolverOption) (*Result, error) {
	return NewResolver(opts...).Resolve(ctx, descriptors, snapshot)
}

// Resolve registers user components, then walks descriptors in order and
// registers every one whose conditions hold and whose type is not already
// supplied by the caller. A conflicting registration or a failing factory
// aborts resolution; instances built so far are closed.
func (r *Resolver) Resolve(ctx context.Context, descriptors []Descriptor, snapshot Snapshot, user ...Component) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	run := &resolution{
		resolver: r,
		result:   newResult(uuid.NewString(), snapshot),
		snapshot: snapshot,
		emitter:  r.cfg.emitter(),
		logger:   r.cfg.resolutionLogger(),
	}

	ctx, span := r.tracer.Start(ctx, "autoconf.resolve", trace.WithAttributes(
		attribute.String("autoconf.evaluation_id", run.result.ID),
		attribute.Int("autoconf.descriptors", len(descriptors)),
		attribute.Int("autoconf.user_components", len(user)),
	))
	defer span.End()

	started := r.cfg.now()
	err := run.execute(ctx, descriptors, user)
	r.cfg.metrics.observeDuration(r.cfg.now().Sub(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrConflict) {
			r.cfg.metrics.observeConflict()
		}
		run.emit(ctx, activity.BuildResolutionFailedEvent(activity.ComponentEventInput{
			EvaluationID: run.result.ID,
			Reason:       err.Error(),
			OccurredAt:   r.cfg.now(),
		}))
		return nil, err
	}
	span.SetAttributes(attribute.Int("autoconf.registered", run.result.Len()))
	return run.result, nil
}

type resolution struct {
	resolver *Resolver
	result   *Result
	snapshot Snapshot
	emitter  *activity.Emitter
	logger   ResolutionLogger
}

func (run *resolution) execute(ctx context.Context, descriptors []Descriptor, user []Component) error {
	if err := run.registerUser(user); err != nil {
		return err
	}
	for _, d := range descriptors {
		if err := ctx.Err(); err != nil {
			return run.abort(err)
		}
		if err := d.Validate(); err != nil {
			return run.abort(err)
		}
		if err := run.resolveDescriptor(ctx, d); err != nil {
			return run.abort(err)
		}
	}
	return nil
}

// abort closes what has been built so far and returns err joined with any
// close failure.
func (run *resolution) abort(err error) error {
	if closeErr := closeComponents(run.result.components); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}

func (run *resolution) registerUser(user []Component) error {
	for _, c := range user {
		if c.Name == "" {
			return fmt.Errorf("autoconf: user component of type %v has no name", c.Type)
		}
		if c.Type == nil && c.Instance != nil {
			c.Type = reflect.TypeOf(c.Instance)
		}
		c.Origin = OriginUser
		if existing, ok := run.result.Lookup(c.Name); ok {
			return &ConflictError{Type: c.Type, Name: c.Name, Existing: existing.Name, Reason: "duplicate user component name"}
		}
		for _, existing := range run.result.components {
			if existing.Type == c.Type {
				return &ConflictError{Type: c.Type, Name: c.Name, Existing: existing.Name, Reason: "duplicate user component type"}
			}
		}
		run.result.register(c)
		run.result.Report.UserNames = append(run.result.Report.UserNames, c.Name)
	}
	return nil
}

func (run *resolution) resolveDescriptor(ctx context.Context, d Descriptor) error {
	cfg := run.resolver.cfg
	started := cfg.now()
	entry := ReportEntry{
		Descriptor:    d.Name,
		Configuration: d.Configuration,
		Type:          d.Type.String(),
	}

	if user, ok := run.userOverride(d.Type); ok {
		entry.Outcome = OutcomeOverridden
		entry.Message = fmt.Sprintf("user component '%s' supplies %s", user.Name, d.Type)
		run.record(ctx, entry, started, nil)
		return nil
	}

	if existing, ok := run.result.Lookup(d.Name); ok {
		entry.Outcome = OutcomeNameTaken
		entry.Message = fmt.Sprintf("name already registered by %s component of type %v", existing.Origin, existing.Type)
		run.record(ctx, entry, started, nil)
		return nil
	}

	matched, err := run.evaluateConditions(ctx, d, &entry)
	if err != nil {
		run.record(ctx, entry, started, err)
		return err
	}
	if !matched {
		entry.Outcome = OutcomeNoMatch
		run.record(ctx, entry, started, nil)
		return nil
	}

	for _, existing := range run.result.components {
		if existing.Origin == OriginAuto && existing.Type == d.Type {
			conflict := &ConflictError{
				Type:     d.Type,
				Name:     d.Name,
				Existing: existing.Name,
				Reason:   "more than one descriptor activated for the type",
			}
			run.record(ctx, entry, started, conflict)
			return conflict
		}
	}

	instance, err := run.build(ctx, d)
	if err != nil {
		run.record(ctx, entry, started, err)
		return err
	}
	run.result.register(Component{
		Name:          d.Name,
		Type:          d.Type,
		Instance:      instance,
		Origin:        OriginAuto,
		Configuration: d.Configuration,
	})
	entry.Outcome = OutcomeRegistered
	if entry.Message == "" {
		entry.Message = "unconditional"
	}
	run.record(ctx, entry, started, nil)
	return nil
}

func (run *resolution) userOverride(t reflect.Type) (Component, bool) {
	for _, c := range run.result.components {
		if c.Origin == OriginUser && c.Satisfies(t) {
			return c, true
		}
	}
	return Component{}, false
}

// evaluateConditions stops at the first condition that does not match and
// leaves its message on entry.
func (run *resolution) evaluateConditions(ctx context.Context, d Descriptor, entry *ReportEntry) (bool, error) {
	cctx := ConditionContext{
		Context:    ctx,
		Snapshot:   run.snapshot,
		Components: view{result: run.result},
		Descriptor: d.Name,
		Evaluator:  run.resolver.evaluator,
		Now:        run.resolver.cfg.now(),
	}
	var messages []string
	for _, condition := range d.Conditions {
		outcome, err := condition.Evaluate(cctx)
		if err != nil {
			return false, fmt.Errorf("autoconf: descriptor %q condition %s: %w", d.Name, condition, err)
		}
		entry.Conditions = append(entry.Conditions, ConditionResult{
			Condition: condition.String(),
			Match:     outcome.Match,
			Message:   outcome.Message,
		})
		if !outcome.Match {
			entry.Message = outcome.Message
			return false, nil
		}
		messages = append(messages, outcome.Message)
	}
	if len(messages) > 0 {
		entry.Message = strings.Join(messages, "; ")
	}
	return true, nil
}

func (run *resolution) build(ctx context.Context, d Descriptor) (instance any, err error) {
	ctx, span := run.resolver.tracer.Start(ctx, "autoconf.factory", trace.WithAttributes(
		attribute.String("autoconf.descriptor", d.Name),
		attribute.String("autoconf.type", d.Type.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	instance, err = d.Factory(ctx, view{result: run.result})
	if err != nil {
		return nil, &FactoryError{Descriptor: d.Name, Type: d.Type, Err: err}
	}
	if isNilInstance(instance) {
		return nil, &FactoryError{Descriptor: d.Name, Type: d.Type, Err: errors.New("factory returned nil instance")}
	}
	return instance, nil
}

func isNilInstance(instance any) bool {
	if instance == nil {
		return true
	}
	v := reflect.ValueOf(instance)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (run *resolution) record(ctx context.Context, entry ReportEntry, started time.Time, err error) {
	cfg := run.resolver.cfg
	entry.Duration = cfg.now().Sub(started)
	if err == nil {
		run.result.Report.Entries = append(run.result.Report.Entries, entry)
		cfg.metrics.observeOutcome(entry.Configuration, entry.Outcome)
	}

	run.logger.LogResolution(ResolutionEvent{
		EvaluationID:  run.result.ID,
		Descriptor:    entry.Descriptor,
		Configuration: entry.Configuration,
		Type:          entry.Type,
		Outcome:       entry.Outcome,
		Message:       entry.Message,
		Duration:      entry.Duration,
		Err:           err,
	})
	if err != nil {
		return
	}

	input := activity.ComponentEventInput{
		EvaluationID:  run.result.ID,
		Descriptor:    entry.Descriptor,
		Configuration: entry.Configuration,
		Type:          entry.Type,
		Outcome:       string(entry.Outcome),
		Reason:        entry.Message,
		Duration:      entry.Duration,
		OccurredAt:    run.resolver.cfg.now(),
	}
	switch entry.Outcome {
	case OutcomeRegistered:
		run.emit(ctx, activity.BuildComponentRegisteredEvent(input))
	case OutcomeOverridden:
		run.emit(ctx, activity.BuildComponentOverriddenEvent(input))
	default:
		run.emit(ctx, activity.BuildComponentSkippedEvent(input))
	}
}

// emit reports hook failures to the logger; they never fail resolution.
func (run *resolution) emit(ctx context.Context, event activity.Event) {
	if err := run.emitter.Emit(ctx, event); err != nil {
		run.logger.LogResolution(ResolutionEvent{
			EvaluationID: run.result.ID,
			Descriptor:   event.ObjectID,
			Message:      "activity hook failed",
			Err:          err,
		})
	}
}
