// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"
	"math"

	"github.com/meshintel/model-engine/internal/sbml"
	"github.com/meshintel/model-engine/pkg/mathexpr"
)

// namespace holds the per-document lookup tables built once before
// reaction processing and read-only afterwards.
type namespace struct {
	// parameters maps a parameter or compartment ID to its numeric
	// value, under its original name. Compartment volumes are folded in
	// and win name collisions with declared parameters.
	parameters map[string]float64

	// funcs maps a function definition ID to its compiled lambda. IDs
	// that collide with a reserved word of the expression grammar are
	// keyed by their sentinel, matching how formula text is remapped.
	funcs map[string]*mathexpr.Lambda

	// rules maps an assignment rule's target to its compiled expression,
	// substituted into every rate law exactly once, non-recursively.
	rules map[string]mathexpr.Expr
}

// compileModel builds the parameter-value table, the function namespace,
// and the assignment-rule table for one model. An unparseable top-level
// formula is a fatal, document-level fault.
func compileModel(model *sbml.Model) (*namespace, error) {
	env := &namespace{
		parameters: make(map[string]float64, len(model.Parameters)+len(model.Compartments)),
		funcs:      make(map[string]*mathexpr.Lambda, len(model.FunctionDefinitions)),
		rules:      make(map[string]mathexpr.Expr, len(model.AssignmentRules)),
	}

	for _, param := range model.Parameters {
		value := math.NaN()
		if param.Value != nil {
			value = *param.Value
		}
		env.parameters[param.ID] = value
	}
	// Compartment volume wins a name collision with a declared parameter.
	for _, comp := range model.Compartments {
		env.parameters[comp.ID] = comp.EffectiveVolume()
	}

	for _, funDef := range model.FunctionDefinitions {
		args, body, err := funDef.Math.LambdaAST()
		if err != nil {
			if errors.Is(err, sbml.ErrNoFormula) {
				continue
			}
			return nil, fmt.Errorf("function %s: %w", funDef.ID, err)
		}
		formula, err := sbml.FormulaString(body)
		if err != nil {
			if errors.Is(err, sbml.ErrNoFormula) {
				continue
			}
			return nil, fmt.Errorf("function %s: %w", funDef.ID, err)
		}
		// The body is parsed under a namespace scoped to the declared
		// arguments only; nested identifiers stay plain symbols.
		expr, err := mathexpr.Parse(mathexpr.RemapReserved(formula), nil)
		if err != nil {
			return nil, fmt.Errorf("function %s: parsing %q: %w", funDef.ID, formula, err)
		}
		env.funcs[funcKey(funDef.ID)] = &mathexpr.Lambda{
			Params: args,
			Body:   mathexpr.RestoreReserved(expr),
		}
	}

	for _, rule := range model.AssignmentRules {
		ast, err := rule.Math.AST()
		if err != nil {
			if errors.Is(err, sbml.ErrNoFormula) {
				continue
			}
			return nil, fmt.Errorf("rule %s: %w", rule.Variable, err)
		}
		formula, err := sbml.FormulaString(ast)
		if err != nil {
			if errors.Is(err, sbml.ErrNoFormula) {
				continue
			}
			return nil, fmt.Errorf("rule %s: %w", rule.Variable, err)
		}
		expr, err := env.parse(formula)
		if err != nil {
			return nil, fmt.Errorf("rule %s: parsing %q: %w", rule.Variable, formula, err)
		}
		env.rules[rule.Variable] = expr
	}

	return env, nil
}

// parse compiles a formula string under the global namespace, applying
// reserved-word remapping before the parse and undoing it on the result.
func (env *namespace) parse(formula string) (mathexpr.Expr, error) {
	expr, err := mathexpr.Parse(mathexpr.RemapReserved(formula), env.funcs)
	if err != nil {
		return nil, err
	}
	return mathexpr.RestoreReserved(expr), nil
}

// funcKey returns the namespace key for a function ID: the sentinel when
// the ID collides with a reserved word, so lookups agree with remapped
// formula text.
func funcKey(id string) string {
	if sentinel, ok := mathexpr.Reserved(id); ok {
		return sentinel
	}
	return id
}
