// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ModelSummary holds metadata for one BioModels search hit.
type ModelSummary struct {
	// ID is the BioModels accession (e.g. "BIOMD0000000956").
	ID string `json:"id" yaml:"id"`

	// Name is the model title with any leading "AuthorYYYY - " prefix removed.
	Name string `json:"name" yaml:"name"`

	// Author is the submitter tag split from the title (e.g. "Bertozzi2020").
	// Empty when the title does not follow the AuthorYYYY - Title format.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Format is the publication format reported by BioModels (e.g. "SBML").
	Format string `json:"format" yaml:"format"`

	// SBMLPath is the local path of the downloaded document, set after
	// acquisition.
	SBMLPath string `json:"sbml_path,omitempty" yaml:"sbml_path,omitempty"`
}

// TemplateRecord is the flat, serializable form of one Template, used for
// YAML output and the extraction index.
type TemplateRecord struct {
	Kind        Kind      `json:"kind" yaml:"kind"`
	Subject     *Concept  `json:"subject,omitempty" yaml:"subject,omitempty"`
	Outcome     *Concept  `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Controllers []Concept `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	RateLaw     string    `json:"rate_law" yaml:"rate_law"`
}

// Record flattens a Template into its serializable form. The type switch
// is exhaustive over the sealed variant set.
func Record(t Template) TemplateRecord {
	switch v := t.(type) {
	case NaturalConversion:
		return TemplateRecord{Kind: v.Kind(), Subject: &v.Subject, Outcome: &v.Outcome, RateLaw: v.Rate.String()}
	case ControlledConversion:
		return TemplateRecord{Kind: v.Kind(), Subject: &v.Subject, Outcome: &v.Outcome, Controllers: []Concept{v.Controller}, RateLaw: v.Rate.String()}
	case GroupedControlledConversion:
		return TemplateRecord{Kind: v.Kind(), Subject: &v.Subject, Outcome: &v.Outcome, Controllers: v.Controllers, RateLaw: v.Rate.String()}
	case NaturalProduction:
		return TemplateRecord{Kind: v.Kind(), Outcome: &v.Outcome, RateLaw: v.Rate.String()}
	case NaturalDegradation:
		return TemplateRecord{Kind: v.Kind(), Subject: &v.Subject, RateLaw: v.Rate.String()}
	default:
		panic("types: template variant not handled in Record")
	}
}

// ExtractionRecord is the serialized outcome of extracting one model.
type ExtractionRecord struct {
	ModelID    string             `json:"model_id" yaml:"model_id"`
	Name       string             `json:"name,omitempty" yaml:"name,omitempty"`
	Templates  []TemplateRecord   `json:"templates" yaml:"templates"`
	Parameters map[string]float64 `json:"parameters" yaml:"parameters"`
	Skipped    int                `json:"skipped" yaml:"skipped"`
}
