package autoconf

import (
	"fmt"
	"reflect"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common"
	"github.com/google/cel-go/common/ast"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/parser"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Registered functions are reachable through call("name", args...).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

var (
	anySliceType  = reflect.TypeOf([]any{})
	stringMapType = reflect.TypeOf(map[string]string{})
)

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

// celEvaluator exposes the snapshot as props (map<string,string>), so presence
// checks read `'data.elasticsearch.cluster-nodes' in props`. has() is CEL's
// field-presence macro; prop(key) and prefixed(prefix) expand to calls over props.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.descriptorLabel(), err)
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.descriptorLabel(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (*celProgram, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(celCacheKey(expression)); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(celCacheKey(expression), bundle)
	}
	return bundle, nil
}

func celCacheKey(expression string) string {
	return "cel:" + expression
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("props", celgo.MapType(celgo.StringType, celgo.StringType)),
		celgo.Macros(
			celgo.GlobalMacro("prop", 1, propsMacro("prop")),
			celgo.GlobalMacro("prefixed", 1, propsMacro("prefixed")),
		),
		celgo.Function("prop",
			celgo.Overload("prop_map_string",
				[]*celgo.Type{celgo.MapType(celgo.StringType, celgo.StringType), celgo.StringType},
				celgo.StringType,
				celgo.BinaryBinding(celProp),
			),
		),
		celgo.Function("prefixed",
			celgo.Overload("prefixed_map_string",
				[]*celgo.Type{celgo.MapType(celgo.StringType, celgo.StringType), celgo.StringType},
				celgo.BoolType,
				celgo.BinaryBinding(celPrefixed),
			),
		),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding()),
			),
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.UnaryBinding(func(name ref.Val) ref.Val {
					return e.callBinding()(name, types.NewDynamicList(types.DefaultTypeAdapter, []any{}))
				}),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

// propsMacro rewrites fn(arg) into fn(props, arg).
func propsMacro(fn string) parser.MacroExpander {
	return func(eh parser.ExprHelper, _ ast.Expr, args []ast.Expr) (ast.Expr, *common.Error) {
		return eh.NewCall(fn, eh.NewIdent("props"), args[0]), nil
	}
}

func celProps(val ref.Val) (map[string]string, bool) {
	native, err := val.ConvertToNative(stringMapType)
	if err != nil {
		return nil, false
	}
	props, ok := native.(map[string]string)
	return props, ok
}

func celProp(propsVal, keyVal ref.Val) ref.Val {
	props, ok := celProps(propsVal)
	if !ok {
		return types.NewErr("autoconf: prop expects a property map")
	}
	key, ok := keyVal.Value().(string)
	if !ok {
		return types.NewErr("autoconf: prop key must be string")
	}
	return types.String(props[key])
}

func celPrefixed(propsVal, prefixVal ref.Val) ref.Val {
	props, ok := celProps(propsVal)
	if !ok {
		return types.NewErr("autoconf: prefixed expects a property map")
	}
	prefix, ok := prefixVal.Value().(string)
	if !ok {
		return types.NewErr("autoconf: prefixed prefix must be string")
	}
	for key := range props {
		if matchesPrefix(key, prefix) {
			return types.True
		}
	}
	return types.False
}

func (e *celEvaluator) activation(ctx RuleContext) map[string]any {
	props := make(map[string]string, ctx.Snapshot.Len())
	for key, value := range ctx.Snapshot.Map() {
		props[key] = value
	}
	return map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"props":    props,
	}
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	program    *celProgram
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("compiled rule missing evaluator"))
	}
	ctx = ctx.withDefaults()
	out, _, err := r.program.program.Eval(r.evaluator.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", r.expression, ctx.descriptorLabel(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) callBinding() functions.BinaryOp {
	return func(nameVal, argsVal ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("autoconf: function registry not configured")
		}
		name, ok := nameVal.Value().(string)
		if !ok {
			return types.NewErr("autoconf: call name must be string")
		}
		var args []any
		if native, err := argsVal.ConvertToNative(anySliceType); err == nil {
			args, _ = native.([]any)
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
