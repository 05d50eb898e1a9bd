// Package cel evaluates attribute-mapping expressions against a decoded
// provider record bound to a single root variable.
package cel

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	costLimit          = 100000
	interruptFrequency = 100
)

type Evaluator struct {
	env      *cel.Env
	root     string
	programs sync.Map // expression -> cel.Program
}

// NewEvaluator declares root as the only variable, a map of dynamic values.
func NewEvaluator(root string) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(root, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env, root: root}, nil
}

func (e *Evaluator) Root() string {
	return e.root
}

func (e *Evaluator) ValidateExpression(expression string) error {
	_, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}
	return nil
}

// Evaluate runs expression against record and returns a JSON-compatible
// value: nil, bool, float64, string, []interface{} or map[string]interface{}.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, record map[string]interface{}) (interface{}, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}

	if record == nil {
		record = map[string]interface{}{}
	}

	result, _, err := program.ContextEval(ctx, map[string]interface{}{e.root: record})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	native, err := result.ConvertToNative(reflect.TypeOf(&structpb.Value{}))
	if err != nil {
		return nil, fmt.Errorf("CEL result is not JSON compatible: %w", err)
	}

	value, ok := native.(*structpb.Value)
	if !ok {
		return nil, fmt.Errorf("CEL result has unexpected type %T", native)
	}
	return value.AsInterface(), nil
}

func (e *Evaluator) program(expression string) (cel.Program, error) {
	if cached, ok := e.programs.Load(expression); ok {
		return cached.(cel.Program), nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast,
		cel.CostLimit(costLimit),
		cel.InterruptCheckFrequency(interruptFrequency),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	e.programs.Store(expression, program)
	return program, nil
}
