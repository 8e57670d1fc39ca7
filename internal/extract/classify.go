// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/meshintel/model-engine/internal/sbml"
	"github.com/meshintel/model-engine/pkg/mathexpr"
	"github.com/meshintel/model-engine/pkg/types"
)

// Skip records one reaction that was omitted from the template list,
// with enough context to diagnose why.
type Skip struct {
	ReactionID string   `json:"reaction_id" yaml:"reaction_id"`
	Reason     string   `json:"reason" yaml:"reason"`
	Reactants  []string `json:"reactants,omitempty" yaml:"reactants,omitempty"`
	Products   []string `json:"products,omitempty" yaml:"products,omitempty"`
}

// classifier carries the shared read-only tables one reaction pass needs.
type classifier struct {
	env        *namespace
	concepts   map[string]types.Concept
	allSpecies map[string]bool
	reporters  map[string]bool
	modelID    string
	w          io.Writer
}

// classify resolves one reaction into zero or one Template. A malformed
// single reaction degrades to a Skip so it cannot abort extraction of
// the whole document; only an unknown operator in the formula tree is
// surfaced as a fatal error.
func (c *classifier) classify(reaction sbml.Reaction) (types.Template, *Skip, error) {
	reactantIDs := speciesIDs(reaction.Reactants)
	productIDs := speciesIDs(reaction.Products)
	modifierIDs := speciesIDs(reaction.Modifiers)

	rate, skip, err := c.rateExpr(reaction)
	if err != nil || skip != nil {
		return nil, skip, err
	}

	// Implicit modifiers appear in the rate law but are neither reactants
	// nor declared modifiers. They must be proper species, since the rate
	// law also references parameters.
	declared := make(map[string]bool, len(reactantIDs)+len(modifierIDs))
	for _, id := range reactantIDs {
		declared[id] = true
	}
	for _, id := range modifierIDs {
		declared[id] = true
	}
	var implicit []string
	for name := range mathexpr.Variables(rate) {
		if c.allSpecies[name] && !declared[name] {
			implicit = append(implicit, name)
		}
	}
	sort.Strings(implicit)
	modifierIDs = append(modifierIDs, implicit...)

	reactants := c.lookupConcepts(reactantIDs)
	products := c.lookupConcepts(productIDs)
	modifiers := c.lookupConcepts(modifierIDs)

	switch {
	case len(reactants) == 1 && len(products) == 1:
		// A degenerate self-loop needs the full concept to match; grounding
		// equality alone is not enough, since two distinct ungrounded
		// species both carry empty identifier maps.
		if reactants[0].Name != "" && reactants[0].Name == products[0].Name &&
			reactants[0].Equal(products[0]) && len(modifiers) == 0 {
			return nil, c.skip(reaction, "same reactant and product", reactantIDs, productIDs), nil
		}
		switch len(modifiers) {
		case 0:
			return types.NaturalConversion{Subject: reactants[0], Outcome: products[0], Rate: rate}, nil, nil
		case 1:
			return types.ControlledConversion{Subject: reactants[0], Outcome: products[0], Controller: modifiers[0], Rate: rate}, nil, nil
		default:
			return types.GroupedControlledConversion{Subject: reactants[0], Outcome: products[0], Controllers: modifiers, Rate: rate}, nil, nil
		}
	case len(reactants) == 0 && len(products) == 0:
		return nil, c.skip(reaction, "missing reactants and products", reactantIDs, productIDs), nil
	case len(reactants) == 0:
		if len(products) == 1 {
			return types.NaturalProduction{Outcome: products[0], Rate: rate}, nil, nil
		}
		return nil, c.skip(reaction, "multiple outcome natural production not handled", reactantIDs, productIDs), nil
	case len(products) == 0:
		if len(reactants) == 1 {
			return types.NaturalDegradation{Subject: reactants[0], Rate: rate}, nil, nil
		}
		return nil, c.skip(reaction, "multiple subject natural degradation not handled", reactantIDs, productIDs), nil
	default:
		return nil, c.skip(reaction, "multiple reactants and products", reactantIDs, productIDs), nil
	}
}

// rateExpr reconstructs, parses, and normalizes the reaction's rate law:
// reserved words remapped, assignment rules substituted exactly once.
func (c *classifier) rateExpr(reaction sbml.Reaction) (mathexpr.Expr, *Skip, error) {
	if reaction.KineticLaw == nil {
		return nil, c.skip(reaction, "no kinetic law", nil, nil), nil
	}
	ast, err := reaction.KineticLaw.Math.AST()
	if err != nil {
		if errors.Is(err, sbml.ErrNoFormula) {
			return nil, c.skip(reaction, "no kinetic law formula", nil, nil), nil
		}
		return nil, nil, fmt.Errorf("reaction %s: %w", reaction.ID, err)
	}
	formula, err := sbml.FormulaString(ast)
	if err != nil {
		if errors.Is(err, sbml.ErrNoFormula) {
			return nil, c.skip(reaction, "no kinetic law formula", nil, nil), nil
		}
		return nil, nil, fmt.Errorf("reaction %s: %w", reaction.ID, err)
	}
	rate, err := c.env.parse(formula)
	if err != nil {
		return nil, nil, fmt.Errorf("reaction %s: parsing rate law %q: %w", reaction.ID, formula, err)
	}
	return mathexpr.Substitute(rate, c.env.rules), nil, nil
}

// lookupConcepts resolves species IDs to concepts, dropping reporter
// species and references to undeclared species.
func (c *classifier) lookupConcepts(ids []string) []types.Concept {
	var out []types.Concept
	for _, id := range ids {
		if c.reporters[id] {
			continue
		}
		if concept, ok := c.concepts[id]; ok {
			out = append(out, concept)
		}
	}
	return out
}

func (c *classifier) skip(reaction sbml.Reaction, reason string, reactants, products []string) *Skip {
	fmt.Fprintf(c.w, "[%s reaction:%s] skipped: %s", c.modelID, reaction.ID, reason)
	if len(reactants) > 0 || len(products) > 0 {
		fmt.Fprintf(c.w, " (reactants: %s; products: %s)",
			strings.Join(reactants, ", "), strings.Join(products, ", "))
	}
	fmt.Fprintln(c.w)
	return &Skip{
		ReactionID: reaction.ID,
		Reason:     reason,
		Reactants:  reactants,
		Products:   products,
	}
}

func speciesIDs(refs []sbml.SpeciesRef) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.Species)
	}
	return ids
}
