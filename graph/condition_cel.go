package graph

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// CELVariable is the name the workflow context snapshot is bound to inside
// condition expressions.
const CELVariable = "context"

// CompileCondition compiles a CEL expression into an edge Condition. The
// expression sees the context snapshot as a map named "context" and must
// evaluate to a boolean:
//
//	cond, err := graph.CompileCondition(`context["router.confidence"] >= 0.5`)
//
// Evaluation errors (missing keys, type errors at runtime) make the
// condition reject; conditions are predicates, not error channels.
func CompileCondition(expr string) (Condition, error) {
	env, err := cel.NewEnv(
		cel.Variable(CELVariable, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL type-check error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("CEL condition must return a boolean (returned %s instead)", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program construction error: %w", err)
	}

	return func(ctx Context) bool {
		out, _, err := prg.Eval(map[string]any{
			CELVariable: ctx.Snapshot(),
		})
		if err != nil {
			return false
		}
		b, ok := out.Value().(bool)
		return ok && b
	}, nil
}

// MustCompileCondition is CompileCondition for statically known expressions;
// it panics on compile errors.
func MustCompileCondition(expr string) Condition {
	cond, err := CompileCondition(expr)
	if err != nil {
		panic(err)
	}
	return cond
}
