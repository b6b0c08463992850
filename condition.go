package autoconf

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// ConditionContext is what a condition may inspect.
type ConditionContext struct {
	Context    context.Context
	Snapshot   Snapshot
	Components Components
	Descriptor string
	Evaluator  Evaluator
	Now        time.Time
}

// Outcome is the verdict of a condition together with a human-readable reason.
type Outcome struct {
	Match   bool
	Message string
}

// Matched builds a positive outcome.
func Matched(format string, args ...any) Outcome {
	return Outcome{Match: true, Message: fmt.Sprintf(format, args...)}
}

// NoMatch builds a negative outcome.
func NoMatch(format string, args ...any) Outcome {
	return Outcome{Match: false, Message: fmt.Sprintf(format, args...)}
}

// Condition is an activation predicate.
type Condition interface {
	Evaluate(ctx ConditionContext) (Outcome, error)
	String() string
}

type conditionFunc struct {
	name string
	fn   func(ConditionContext) (Outcome, error)
}

func (c conditionFunc) Evaluate(ctx ConditionContext) (Outcome, error) {
	return c.fn(ctx)
}

func (c conditionFunc) String() string {
	return c.name
}

// ConditionFunc adapts fn to a Condition reported under name.
func ConditionFunc(name string, fn func(ConditionContext) (Outcome, error)) Condition {
	return conditionFunc{name: name, fn: fn}
}

// OnProperty matches when key is present, whatever its value.
func OnProperty(key string) Condition {
	return ConditionFunc("OnProperty("+key+")", func(ctx ConditionContext) (Outcome, error) {
		if ctx.Snapshot.Has(key) {
			return Matched("found property '%s'", key), nil
		}
		return NoMatch("did not find property '%s'", key), nil
	})
}

// OnMissingProperty matches when key is absent.
func OnMissingProperty(key string) Condition {
	return ConditionFunc("OnMissingProperty("+key+")", func(ctx ConditionContext) (Outcome, error) {
		if ctx.Snapshot.Has(key) {
			return NoMatch("found property '%s'", key), nil
		}
		return Matched("did not find property '%s'", key), nil
	})
}

// OnPropertyValue matches when key equals value, ignoring case. With
// matchIfMissing the condition also matches an absent key.
func OnPropertyValue(key, value string, matchIfMissing bool) Condition {
	name := fmt.Sprintf("OnPropertyValue(%s=%s)", key, value)
	return ConditionFunc(name, func(ctx ConditionContext) (Outcome, error) {
		actual, ok := ctx.Snapshot.Get(key)
		if !ok {
			if matchIfMissing {
				return Matched("property '%s' missing, matching by default", key), nil
			}
			return NoMatch("did not find property '%s'", key), nil
		}
		if strings.EqualFold(strings.TrimSpace(actual), value) {
			return Matched("property '%s' has expected value '%s'", key, value), nil
		}
		return NoMatch("property '%s' is '%s', expected '%s'", key, actual, value), nil
	})
}

// OnPropertyPrefix matches when any key lives under prefix.
func OnPropertyPrefix(prefix string) Condition {
	return ConditionFunc("OnPropertyPrefix("+prefix+")", func(ctx ConditionContext) (Outcome, error) {
		if ctx.Snapshot.HasPrefix(prefix) {
			return Matched("found properties under '%s'", prefix), nil
		}
		return NoMatch("no properties under '%s'", prefix), nil
	})
}

// OnComponent matches when a component assignable to T is already registered.
func OnComponent[T any]() Condition {
	t := reflect.TypeFor[T]()
	return ConditionFunc("OnComponent("+t.String()+")", func(ctx ConditionContext) (Outcome, error) {
		if ctx.Components == nil {
			return NoMatch("no components available"), nil
		}
		if matches := ctx.Components.OfType(t); len(matches) > 0 {
			return Matched("found component '%s' of type %s", matches[0].Name, t), nil
		}
		return NoMatch("did not find any component of type %s", t), nil
	})
}

// OnMissingComponent matches when no component assignable to T is registered.
func OnMissingComponent[T any]() Condition {
	t := reflect.TypeFor[T]()
	return ConditionFunc("OnMissingComponent("+t.String()+")", func(ctx ConditionContext) (Outcome, error) {
		if ctx.Components != nil {
			if matches := ctx.Components.OfType(t); len(matches) > 0 {
				return NoMatch("found component '%s' of type %s", matches[0].Name, t), nil
			}
		}
		return Matched("did not find any component of type %s", t), nil
	})
}

// OnMissingName matches when no component is registered under name.
func OnMissingName(name string) Condition {
	return ConditionFunc("OnMissingName("+name+")", func(ctx ConditionContext) (Outcome, error) {
		if ctx.Components != nil {
			if _, ok := ctx.Components.Lookup(name); ok {
				return NoMatch("found component named '%s'", name), nil
			}
		}
		return Matched("no component named '%s'", name), nil
	})
}

// ExpressionOption configures OnExpression.
type ExpressionOption func(*expressionCondition)

// UsingEvaluator evaluates the expression with e instead of the resolver's.
func UsingEvaluator(e Evaluator) ExpressionOption {
	return func(c *expressionCondition) {
		c.evaluator = e
	}
}

// WithExpressionArgs exposes args to the expression.
func WithExpressionArgs(args map[string]any) ExpressionOption {
	return func(c *expressionCondition) {
		c.args = copyMetadata(args)
	}
}

type expressionCondition struct {
	expr      string
	evaluator Evaluator
	args      map[string]any
}

// OnExpression matches when expr evaluates to true. The resolver's evaluator
// (expr-lang by default) is used unless UsingEvaluator overrides it.
func OnExpression(expr string, opts ...ExpressionOption) Condition {
	c := &expressionCondition{expr: expr}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *expressionCondition) String() string {
	return "OnExpression(" + c.expr + ")"
}

func (c *expressionCondition) Evaluate(ctx ConditionContext) (Outcome, error) {
	evaluator := c.evaluator
	if evaluator == nil {
		evaluator = ctx.Evaluator
	}
	if evaluator == nil {
		return Outcome{}, ErrNoEvaluator
	}
	now := ctx.Now
	rule := RuleContext{
		Snapshot:   ctx.Snapshot,
		Now:        &now,
		Args:       copyMetadata(c.args),
		Descriptor: ctx.Descriptor,
	}
	value, err := evaluator.Evaluate(rule, c.expr)
	if err != nil {
		return Outcome{}, wrapEvaluationError("", c.expr, ctx.Descriptor, err)
	}
	matched, ok := value.(bool)
	if !ok {
		return Outcome{}, wrapEvaluationError("", c.expr, ctx.Descriptor,
			fmt.Errorf("expression returned %T, expected bool", value))
	}
	if matched {
		return Matched("expression '%s' is true", c.expr), nil
	}
	return NoMatch("expression '%s' is false", c.expr), nil
}

// AllOf matches when every condition matches; it stops at the first miss.
func AllOf(conditions ...Condition) Condition {
	conditions = nonNilConditions(conditions)
	return ConditionFunc("AllOf"+joinConditionNames(conditions), func(ctx ConditionContext) (Outcome, error) {
		messages := make([]string, 0, len(conditions))
		for _, condition := range conditions {
			outcome, err := condition.Evaluate(ctx)
			if err != nil {
				return Outcome{}, err
			}
			if !outcome.Match {
				return outcome, nil
			}
			messages = append(messages, outcome.Message)
		}
		return Outcome{Match: true, Message: strings.Join(messages, "; ")}, nil
	})
}

// AnyOf matches when at least one condition matches.
func AnyOf(conditions ...Condition) Condition {
	conditions = nonNilConditions(conditions)
	return ConditionFunc("AnyOf"+joinConditionNames(conditions), func(ctx ConditionContext) (Outcome, error) {
		messages := make([]string, 0, len(conditions))
		for _, condition := range conditions {
			outcome, err := condition.Evaluate(ctx)
			if err != nil {
				return Outcome{}, err
			}
			if outcome.Match {
				return outcome, nil
			}
			messages = append(messages, outcome.Message)
		}
		return Outcome{Match: false, Message: strings.Join(messages, "; ")}, nil
	})
}

// Not inverts condition. A nil condition fails evaluation with ErrNilCondition.
func Not(condition Condition) Condition {
	if condition == nil {
		return ConditionFunc("Not(<nil>)", func(ConditionContext) (Outcome, error) {
			return Outcome{}, ErrNilCondition
		})
	}
	return ConditionFunc("Not("+condition.String()+")", func(ctx ConditionContext) (Outcome, error) {
		outcome, err := condition.Evaluate(ctx)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Match: !outcome.Match, Message: "not: " + outcome.Message}, nil
	})
}

// nonNilConditions drops nil entries, like When does.
func nonNilConditions(conditions []Condition) []Condition {
	out := make([]Condition, 0, len(conditions))
	for _, condition := range conditions {
		if condition != nil {
			out = append(out, condition)
		}
	}
	return out
}

func joinConditionNames(conditions []Condition) string {
	names := make([]string, 0, len(conditions))
	for _, condition := range conditions {
		names = append(names, condition.String())
	}
	return "(" + strings.Join(names, ", ") + ")"
}
