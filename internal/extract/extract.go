// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns an SBML document into a template model: one
// typed population-event template per classifiable reaction, each with a
// symbolic rate law, plus the resolved parameter table. Extraction is a
// pure function of the document; the only shared resource is the
// grounding converter passed in by the caller.
package extract

import (
	"fmt"
	"io"

	"github.com/meshintel/model-engine/internal/grounding"
	"github.com/meshintel/model-engine/internal/sbml"
	"github.com/meshintel/model-engine/pkg/types"
)

// Options adjusts one extraction run.
type Options struct {
	// ModelID, when set, makes every concept traceable to its source by
	// injecting a "biomodels.species" identifier.
	ModelID string

	// ReporterIDs lists species that are pure observation variables and
	// are excluded from participant lists.
	ReporterIDs []string
}

// Result bundles the extracted template model with the reactions that
// were skipped along the way.
type Result struct {
	TemplateModel *types.TemplateModel
	Skips         []Skip
}

// FromFile extracts a template model from a file containing SBML XML.
func FromFile(path string, conv *grounding.Converter, opts Options, w io.Writer) (*Result, error) {
	doc, err := sbml.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, conv, opts, w)
}

// FromReader extracts a template model from a byte stream of SBML XML.
func FromReader(r io.Reader, conv *grounding.Converter, opts Options, w io.Writer) (*Result, error) {
	doc, err := sbml.Read(r)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, conv, opts, w)
}

// FromString extracts a template model from a string of SBML XML.
func FromString(s string, conv *grounding.Converter, opts Options, w io.Writer) (*Result, error) {
	doc, err := sbml.ParseString(s)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, conv, opts, w)
}

// FromDocument extracts a template model from a parsed SBML document.
func FromDocument(doc *sbml.Document, conv *grounding.Converter, opts Options, w io.Writer) (*Result, error) {
	if doc == nil || doc.Model == nil {
		return nil, sbml.ErrNoModel
	}
	return FromModel(doc.Model, conv, opts, w)
}

// FromModel extracts a template model from an SBML model body. Reactions
// are visited in document order; a reaction that cannot be classified is
// recorded as a Skip and extraction continues. Document-level faults
// (unparseable top-level formula, unknown operator) abort extraction.
func FromModel(model *sbml.Model, conv *grounding.Converter, opts Options, w io.Writer) (*Result, error) {
	if model == nil {
		return nil, sbml.ErrNoModel
	}
	if w == nil {
		w = io.Discard
	}

	concepts := extractConcepts(model, conv, opts.ModelID, w)

	env, err := compileModel(model)
	if err != nil {
		return nil, fmt.Errorf("compiling model: %w", err)
	}

	allSpecies := make(map[string]bool, len(model.Species))
	for _, species := range model.Species {
		allSpecies[species.ID] = true
	}
	reporters := make(map[string]bool, len(opts.ReporterIDs))
	for _, id := range opts.ReporterIDs {
		reporters[id] = true
	}

	c := &classifier{
		env:        env,
		concepts:   concepts,
		allSpecies: allSpecies,
		reporters:  reporters,
		modelID:    opts.ModelID,
		w:          w,
	}

	var templates []types.Template
	var skips []Skip
	for _, reaction := range model.Reactions {
		template, skip, err := c.classify(reaction)
		if err != nil {
			return nil, err
		}
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		templates = append(templates, template)
	}

	return &Result{
		TemplateModel: &types.TemplateModel{
			Templates:  templates,
			Parameters: env.parameters,
		},
		Skips: skips,
	}, nil
}

// Record flattens a result into its serializable form for YAML output
// and the extraction index.
func (r *Result) Record(modelID, name string) types.ExtractionRecord {
	records := make([]types.TemplateRecord, 0, len(r.TemplateModel.Templates))
	for _, t := range r.TemplateModel.Templates {
		records = append(records, types.Record(t))
	}
	return types.ExtractionRecord{
		ModelID:    modelID,
		Name:       name,
		Templates:  records,
		Parameters: r.TemplateModel.Parameters,
		Skipped:    len(r.Skips),
	}
}
