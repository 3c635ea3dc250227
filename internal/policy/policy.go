// Package policy evaluates configured CEL rules against descriptor fields.
package policy

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Inputs are the descriptor fields exposed to rule expressions.
type Inputs struct {
	Repo   string
	Kind   string
	Tier   string
	Path   string
	Prefix string
}

type compiledRule struct {
	expr    string
	program cel.Program
}

// Engine holds a set of compiled rules. A descriptor passes when every rule
// evaluates to true.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles the given CEL expressions. Compilation errors are
// configuration errors and fail fast.
func NewEngine(rules []string) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("repo", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("tier", cel.StringType),
		cel.Variable("path", cel.StringType),
		cel.Variable("prefix", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	engine := &Engine{}
	for i, expr := range rules {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile rule %d (%s): %w", i, expr, issues.Err())
		}
		if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
			return nil, fmt.Errorf("rule %d (%s) must evaluate to a boolean, got %s", i, expr, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to build program for rule %d (%s): %w", i, expr, err)
		}
		engine.rules = append(engine.rules, compiledRule{expr: expr, program: program})
	}
	return engine, nil
}

// Evaluate runs every rule against the inputs and returns the expressions
// that did not hold.
func (e *Engine) Evaluate(inputs Inputs) ([]string, error) {
	if e == nil || len(e.rules) == 0 {
		return nil, nil
	}

	activation := map[string]interface{}{
		"repo":   inputs.Repo,
		"kind":   inputs.Kind,
		"tier":   inputs.Tier,
		"path":   inputs.Path,
		"prefix": inputs.Prefix,
	}

	var failed []string
	for _, rule := range e.rules {
		out, _, err := rule.program.Eval(activation)
		if err != nil {
			return nil, fmt.Errorf("rule evaluation failed (%s): %w", rule.expr, err)
		}
		if out != types.True {
			failed = append(failed, rule.expr)
		}
	}
	return failed, nil
}
