// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model: grounded concepts, the
// closed set of population-event templates, the template model bundle,
// and per-stage configuration structs.
package types

import (
	"maps"

	"github.com/meshintel/model-engine/pkg/mathexpr"
)

// Concept is a typed population reference grounded to ontology identifiers.
type Concept struct {
	// Name is the display name. Falls back to the raw species ID when the
	// document declares none.
	Name string `json:"name" yaml:"name"`

	// Identifiers maps an ontology prefix to a local identifier
	// (e.g. "ido" -> "0000514"). May be empty.
	Identifiers map[string]string `json:"identifiers" yaml:"identifiers"`

	// Context maps auxiliary, non-identifying context keys to values
	// (e.g. "property" -> "ncit:C25179").
	Context map[string]string `json:"context" yaml:"context"`
}

// Equal reports whether two concepts are mergeable: identifiers and
// context match. Name is display-only and not compared.
func (c Concept) Equal(other Concept) bool {
	return maps.Equal(c.Identifiers, other.Identifiers) &&
		maps.Equal(c.Context, other.Context)
}

// Kind discriminates the closed set of template variants.
type Kind string

const (
	KindNaturalConversion           Kind = "NaturalConversion"
	KindControlledConversion        Kind = "ControlledConversion"
	KindGroupedControlledConversion Kind = "GroupedControlledConversion"
	KindNaturalProduction           Kind = "NaturalProduction"
	KindNaturalDegradation          Kind = "NaturalDegradation"
)

// Template is one population-level event with a symbolic rate law. The
// implementation set is sealed to the five variants below; consumers
// switch exhaustively on the concrete type or on Kind().
type Template interface {
	// Kind returns the variant discriminator.
	Kind() Kind

	// RateLaw returns the symbolic rate expression attached at extraction.
	RateLaw() mathexpr.Expr

	// Participants returns every concept the event touches, subjects
	// first, then outcomes, then controllers.
	Participants() []Concept

	isTemplate()
}

// NaturalConversion converts one population into another with no controller.
type NaturalConversion struct {
	Subject Concept
	Outcome Concept
	Rate    mathexpr.Expr
}

// ControlledConversion converts one population into another under exactly
// one controller.
type ControlledConversion struct {
	Subject    Concept
	Outcome    Concept
	Controller Concept
	Rate       mathexpr.Expr
}

// GroupedControlledConversion converts one population into another under
// two or more controllers.
type GroupedControlledConversion struct {
	Subject     Concept
	Outcome     Concept
	Controllers []Concept
	Rate        mathexpr.Expr
}

// NaturalProduction produces one population from nothing.
type NaturalProduction struct {
	Outcome Concept
	Rate    mathexpr.Expr
}

// NaturalDegradation removes one population with no product.
type NaturalDegradation struct {
	Subject Concept
	Rate    mathexpr.Expr
}

func (NaturalConversion) isTemplate()           {}
func (ControlledConversion) isTemplate()        {}
func (GroupedControlledConversion) isTemplate() {}
func (NaturalProduction) isTemplate()           {}
func (NaturalDegradation) isTemplate()          {}

func (NaturalConversion) Kind() Kind           { return KindNaturalConversion }
func (ControlledConversion) Kind() Kind        { return KindControlledConversion }
func (GroupedControlledConversion) Kind() Kind { return KindGroupedControlledConversion }
func (NaturalProduction) Kind() Kind           { return KindNaturalProduction }
func (NaturalDegradation) Kind() Kind          { return KindNaturalDegradation }

func (t NaturalConversion) RateLaw() mathexpr.Expr           { return t.Rate }
func (t ControlledConversion) RateLaw() mathexpr.Expr        { return t.Rate }
func (t GroupedControlledConversion) RateLaw() mathexpr.Expr { return t.Rate }
func (t NaturalProduction) RateLaw() mathexpr.Expr           { return t.Rate }
func (t NaturalDegradation) RateLaw() mathexpr.Expr          { return t.Rate }

func (t NaturalConversion) Participants() []Concept {
	return []Concept{t.Subject, t.Outcome}
}

func (t ControlledConversion) Participants() []Concept {
	return []Concept{t.Subject, t.Outcome, t.Controller}
}

func (t GroupedControlledConversion) Participants() []Concept {
	out := []Concept{t.Subject, t.Outcome}
	return append(out, t.Controllers...)
}

func (t NaturalProduction) Participants() []Concept {
	return []Concept{t.Outcome}
}

func (t NaturalDegradation) Participants() []Concept {
	return []Concept{t.Subject}
}

// TemplateModel bundles the ordered template list extracted from one
// document with its resolved parameter values. Instances are immutable
// after construction; downstream consumers derive new models rather than
// mutating in place.
type TemplateModel struct {
	Templates  []Template
	Parameters map[string]float64
}
