// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sbml reads SBML XML documents into plain structs and
// reconstructs infix formula text from their MathML operator trees.
// It is deliberately partial: only the constructs the template
// extractor consumes are decoded.
package sbml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoModel indicates a structurally invalid document with no model body.
var ErrNoModel = errors.New("sbml: document has no model")

// Document is a parsed SBML document.
type Document struct {
	Model *Model `xml:"model"`
}

// Model is the model body of an SBML document.
type Model struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`

	FunctionDefinitions []FunctionDefinition `xml:"listOfFunctionDefinitions>functionDefinition"`
	Compartments        []Compartment        `xml:"listOfCompartments>compartment"`
	Species             []Species            `xml:"listOfSpecies>species"`
	Parameters          []Parameter          `xml:"listOfParameters>parameter"`
	AssignmentRules     []AssignmentRule     `xml:"listOfRules>assignmentRule"`
	Reactions           []Reaction           `xml:"listOfReactions>reaction"`
}

// FunctionDefinition is a user-defined function whose body is a MathML
// lambda construct.
type FunctionDefinition struct {
	ID   string    `xml:"id,attr"`
	Name string    `xml:"name,attr"`
	Math *MathNode `xml:"math"`
}

// Compartment declares a physical compartment; its volume doubles as a
// same-named parameter during extraction.
type Compartment struct {
	ID     string   `xml:"id,attr"`
	Size   *float64 `xml:"size,attr"`
	Volume *float64 `xml:"volume,attr"`
}

// EffectiveVolume returns the compartment size, preferring the level-2+
// size attribute over the level-1 volume attribute, defaulting to 1.
func (c Compartment) EffectiveVolume() float64 {
	if c.Size != nil {
		return *c.Size
	}
	if c.Volume != nil {
		return *c.Volume
	}
	return 1
}

// Species declares one population. Annotation carries the raw inner XML
// of the annotation block (typically RDF), nil when absent.
type Species struct {
	ID         string      `xml:"id,attr"`
	Name       string      `xml:"name,attr"`
	Annotation *Annotation `xml:"annotation"`
}

// Annotation preserves the raw inner XML of an annotation block so the
// concept extractor can parse it as a namespaced markup tree.
type Annotation struct {
	InnerXML string `xml:",innerxml"`
}

// Body returns the annotation's inner XML, or "" for a nil annotation.
func (a *Annotation) Body() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.InnerXML)
}

// Parameter declares a named constant. Value is nil when the document
// leaves it unset.
type Parameter struct {
	ID    string   `xml:"id,attr"`
	Value *float64 `xml:"value,attr"`
}

// AssignmentRule assigns a formula to a target identifier.
type AssignmentRule struct {
	Variable string    `xml:"variable,attr"`
	Math     *MathNode `xml:"math"`
}

// SpeciesRef references a species from a reaction participant list.
type SpeciesRef struct {
	Species string `xml:"species,attr"`
}

// KineticLaw carries the reaction's rate-law math.
type KineticLaw struct {
	Math *MathNode `xml:"math"`
}

// Reaction is one reaction with ordered participant lists.
type Reaction struct {
	ID         string       `xml:"id,attr"`
	Reversible *bool        `xml:"reversible,attr"`
	Reactants  []SpeciesRef `xml:"listOfReactants>speciesReference"`
	Products   []SpeciesRef `xml:"listOfProducts>speciesReference"`
	Modifiers  []SpeciesRef `xml:"listOfModifiers>modifierSpeciesReference"`
	KineticLaw *KineticLaw  `xml:"kineticLaw"`
}

// ReadFile parses an SBML document from a file path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses an SBML document from a byte stream.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Parse(data)
}

// Parse parses an SBML document from raw XML. A document without a model
// body is a fatal, document-level fault.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing SBML: %w", err)
	}
	if doc.Model == nil {
		return nil, ErrNoModel
	}
	return &doc, nil
}

// ParseString parses an SBML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse([]byte(strings.TrimSpace(s)))
}
