package autoconf

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrConflict marks registration conflicts: duplicate names or more than one
	// instance for a produced type.
	ErrConflict = errors.New("autoconf: conflicting registration")
	// ErrNoEvaluator indicates an expression condition had no evaluator.
	ErrNoEvaluator = errors.New("autoconf: evaluator not configured")
	// ErrInvalidProperties marks property binding or validation failures.
	ErrInvalidProperties = errors.New("autoconf: invalid properties")
	// ErrNotFound is returned by typed lookups that match no component.
	ErrNotFound = errors.New("autoconf: component not found")
	// ErrAmbiguous is returned by single-instance lookups that match several.
	ErrAmbiguous = errors.New("autoconf: more than one component matches")
	// ErrNilCondition is returned when Not wraps a nil condition.
	ErrNilCondition = errors.New("autoconf: nil condition")
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine     string
	Expr       string
	Descriptor string
	Err        error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("autoconf: %s evaluator %s descriptor=%s: %v", e.Engine, describeExpression(e.Expr), e.Descriptor, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "autoconf:") {
		return err
	}
	return fmt.Errorf("autoconf: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, descriptor string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Descriptor == "" {
			evalErr.Descriptor = descriptor
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:     engine,
		Expr:       expr,
		Descriptor: descriptor,
		Err:        err,
	}
}

// ConflictError reports two registrations competing for a name or a type.
type ConflictError struct {
	Type     reflect.Type
	Name     string
	Existing string
	Reason   string
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	typeName := "<none>"
	if e.Type != nil {
		typeName = e.Type.String()
	}
	return fmt.Sprintf("autoconf: conflicting registration %q (type %s) with %q: %s", e.Name, typeName, e.Existing, e.Reason)
}

// Is lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// FactoryError wraps a failing component factory.
type FactoryError struct {
	Descriptor string
	Type       reflect.Type
	Err        error
}

func (e *FactoryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	typeName := "<none>"
	if e.Type != nil {
		typeName = e.Type.String()
	}
	return fmt.Sprintf("autoconf: factory %q (type %s) failed: %v", e.Descriptor, typeName, e.Err)
}

func (e *FactoryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
