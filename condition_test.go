package autoconf

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type greeter interface{ Greet() string }

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "hello" }

func conditionContext(snapshot Snapshot, components ...Component) ConditionContext {
	result := newResult("test", snapshot)
	for _, c := range components {
		result.register(c)
	}
	return ConditionContext{
		Context:    context.Background(),
		Snapshot:   snapshot,
		Components: view{result: result},
		Descriptor: "lookup",
		Evaluator:  NewExprEvaluator(),
	}
}

func mustEvaluate(t *testing.T, c Condition, ctx ConditionContext) Outcome {
	t.Helper()
	outcome, err := c.Evaluate(ctx)
	if err != nil {
		t.Fatalf("%s: %v", c, err)
	}
	return outcome
}

func TestPropertyConditions(t *testing.T) {
	ctx := conditionContext(MustParseProperties(
		"data.elasticsearch.cluster-nodes=",
		"feature.mode=Enabled",
	))

	cases := []struct {
		condition Condition
		match     bool
		message   string
	}{
		{OnProperty("data.elasticsearch.cluster-nodes"), true, "found property 'data.elasticsearch.cluster-nodes'"},
		{OnProperty("data.elasticsearch.cluster-name"), false, "did not find property 'data.elasticsearch.cluster-name'"},
		{OnMissingProperty("data.elasticsearch.cluster-name"), true, "did not find property"},
		{OnMissingProperty("feature.mode"), false, "found property"},
		{OnPropertyValue("feature.mode", "enabled", false), true, "has expected value"},
		{OnPropertyValue("feature.mode", "disabled", false), false, "expected 'disabled'"},
		{OnPropertyValue("feature.other", "on", true), true, "matching by default"},
		{OnPropertyValue("feature.other", "on", false), false, "did not find property"},
		{OnPropertyPrefix("data.elasticsearch"), true, "found properties under"},
		{OnPropertyPrefix("data.elastic"), false, "no properties under"},
	}
	for _, tc := range cases {
		outcome := mustEvaluate(t, tc.condition, ctx)
		if outcome.Match != tc.match {
			t.Fatalf("%s: expected match=%v, got %+v", tc.condition, tc.match, outcome)
		}
		if !strings.Contains(outcome.Message, tc.message) {
			t.Fatalf("%s: message %q does not contain %q", tc.condition, outcome.Message, tc.message)
		}
	}
}

func TestComponentConditions(t *testing.T) {
	empty := conditionContext(NewSnapshot())
	withGreeter := conditionContext(NewSnapshot(), Component{
		Name:     "greeter",
		Type:     reflect.TypeFor[greeter](),
		Instance: englishGreeter{},
		Origin:   OriginAuto,
	})

	if mustEvaluate(t, OnComponent[greeter](), empty).Match {
		t.Fatalf("OnComponent should not match without components")
	}
	outcome := mustEvaluate(t, OnComponent[greeter](), withGreeter)
	if !outcome.Match || !strings.Contains(outcome.Message, "'greeter'") {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !mustEvaluate(t, OnComponent[englishGreeter](), withGreeter).Match {
		t.Fatalf("OnComponent should match the dynamic instance type")
	}
	if mustEvaluate(t, OnMissingComponent[greeter](), withGreeter).Match {
		t.Fatalf("OnMissingComponent should not match")
	}
	if !mustEvaluate(t, OnMissingComponent[greeter](), empty).Match {
		t.Fatalf("OnMissingComponent should match")
	}
	if mustEvaluate(t, OnMissingName("greeter"), withGreeter).Match {
		t.Fatalf("OnMissingName should not match a taken name")
	}
	if !mustEvaluate(t, OnMissingName("other"), withGreeter).Match {
		t.Fatalf("OnMissingName should match a free name")
	}

	nilComponents := ConditionContext{}
	if mustEvaluate(t, OnComponent[greeter](), nilComponents).Match {
		t.Fatalf("OnComponent should not match without a component view")
	}
}

func TestExpressionCondition(t *testing.T) {
	ctx := conditionContext(MustParseProperties("data.elasticsearch.cluster-nodes=a:9300"))

	outcome := mustEvaluate(t, OnExpression(`has("data.elasticsearch.cluster-nodes")`), ctx)
	if !outcome.Match || !strings.Contains(outcome.Message, "is true") {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	outcome = mustEvaluate(t, OnExpression(`args.limit > 5`, WithExpressionArgs(map[string]any{"limit": 3})), ctx)
	if outcome.Match {
		t.Fatalf("expected false expression, got %+v", outcome)
	}

	outcome = mustEvaluate(t, OnExpression(`'data.elasticsearch.cluster-nodes' in props`, UsingEvaluator(NewCELEvaluator())), ctx)
	if !outcome.Match {
		t.Fatalf("expected CEL override to match, got %+v", outcome)
	}

	_, err := OnExpression(`prop("data.elasticsearch.cluster-nodes")`).Evaluate(ctx)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Descriptor != "lookup" {
		t.Fatalf("expected EvaluationError for non-bool result, got %v", err)
	}

	ctx.Evaluator = nil
	if _, err := OnExpression("true").Evaluate(ctx); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

func TestCompositeConditions(t *testing.T) {
	ctx := conditionContext(MustParseProperties("a=1", "b=2"))

	all := AllOf(OnProperty("a"), OnProperty("b"))
	outcome := mustEvaluate(t, all, ctx)
	if !outcome.Match || outcome.Message != "found property 'a'; found property 'b'" {
		t.Fatalf("unexpected AllOf outcome %+v", outcome)
	}
	if all.String() != "AllOf(OnProperty(a), OnProperty(b))" {
		t.Fatalf("unexpected name %q", all.String())
	}

	outcome = mustEvaluate(t, AllOf(OnProperty("a"), OnProperty("c"), OnProperty("b")), ctx)
	if outcome.Match || outcome.Message != "did not find property 'c'" {
		t.Fatalf("AllOf should report the first miss, got %+v", outcome)
	}

	outcome = mustEvaluate(t, AnyOf(OnProperty("c"), OnProperty("b")), ctx)
	if !outcome.Match || outcome.Message != "found property 'b'" {
		t.Fatalf("unexpected AnyOf outcome %+v", outcome)
	}
	outcome = mustEvaluate(t, AnyOf(OnProperty("c"), OnProperty("d")), ctx)
	if outcome.Match || !strings.Contains(outcome.Message, "'c'; did not find property 'd'") {
		t.Fatalf("unexpected AnyOf miss %+v", outcome)
	}

	outcome = mustEvaluate(t, Not(OnProperty("c")), ctx)
	if !outcome.Match || !strings.HasPrefix(outcome.Message, "not: ") {
		t.Fatalf("unexpected Not outcome %+v", outcome)
	}
}

func TestCompositeConditionsSkipNil(t *testing.T) {
	ctx := conditionContext(MustParseProperties("a=1"))

	all := AllOf(nil, OnProperty("a"), nil)
	if all.String() != "AllOf(OnProperty(a))" {
		t.Fatalf("unexpected name %q", all.String())
	}
	if outcome := mustEvaluate(t, all, ctx); !outcome.Match {
		t.Fatalf("AllOf should ignore nil conditions, got %+v", outcome)
	}
	if outcome := mustEvaluate(t, AllOf(nil), ctx); !outcome.Match {
		t.Fatalf("AllOf with only nil conditions should match, got %+v", outcome)
	}

	anyOf := AnyOf(nil, OnProperty("b"))
	if anyOf.String() != "AnyOf(OnProperty(b))" {
		t.Fatalf("unexpected name %q", anyOf.String())
	}
	if outcome := mustEvaluate(t, anyOf, ctx); outcome.Match {
		t.Fatalf("AnyOf should not match, got %+v", outcome)
	}
	if outcome := mustEvaluate(t, AnyOf(nil), ctx); outcome.Match {
		t.Fatalf("AnyOf with only nil conditions should not match, got %+v", outcome)
	}

	not := Not(nil)
	if not.String() != "Not(<nil>)" {
		t.Fatalf("unexpected name %q", not.String())
	}
	if _, err := not.Evaluate(ctx); !errors.Is(err, ErrNilCondition) {
		t.Fatalf("expected ErrNilCondition, got %v", err)
	}
}
