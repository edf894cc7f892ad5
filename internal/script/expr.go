package script

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/kode4food/signoff/pkg/api"
)

// ExprEnv evaluates conditions in the expr expression language. Programs
// are compiled once per condition and cached
type ExprEnv struct {
	*compiler[*vm.Program]
}

const exprCacheSize = 4096

var (
	ErrExprCompile = errors.New("condition compile error")
	ErrExprNotBool = errors.New("condition did not produce a boolean")
)

var exprOptions = []expr.Option{
	expr.Env(map[string]any{}),
	expr.AllowUndefinedVariables(),
}

// NewExprEnv creates a new expr condition environment
func NewExprEnv() *ExprEnv {
	return &ExprEnv{
		compiler: newCompiler(exprCacheSize,
			func(condition string, _ []string) (*vm.Program, error) {
				program, err := expr.Compile(condition, exprOptions...)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrExprCompile, err)
				}
				return program, nil
			},
		),
	}
}

// Evaluate runs a condition against run state
func (e *ExprEnv) Evaluate(condition string, state api.Args) (bool, error) {
	program, err := e.compiled(condition, nil)
	if err != nil {
		return false, err
	}

	env := make(map[string]any, len(state))
	for k, v := range state {
		env[string(k)] = v
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	res, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q (%T)", ErrExprNotBool,
			condition, out)
	}
	return res, nil
}
