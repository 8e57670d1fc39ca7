// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "model-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AcquisitionConfig holds settings for fetching models from BioModels.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// ModelsDir is the base directory for downloaded models
	// (contains one subdirectory per model ID).
	ModelsDir string `json:"models_dir" yaml:"models_dir"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// MaxResults is the maximum number of search results to request (default 30).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ExtractionConfig holds settings for the template extraction stage.
type ExtractionConfig struct {
	// RegistryPath optionally points at a YAML file with additional
	// prefix-to-URI registry entries merged over the embedded defaults.
	RegistryPath string `json:"registry_path,omitempty" yaml:"registry_path,omitempty"`

	// ReporterSpecies maps a model ID to species IDs that are pure
	// observation variables and must be excluded from participant lists.
	ReporterSpecies map[string][]string `json:"reporter_species,omitempty" yaml:"reporter_species,omitempty"`

	// ModelsDir is the base directory for downloaded models.
	ModelsDir string `json:"models_dir" yaml:"models_dir"`

	// OutDir is the directory for extracted template model YAML files.
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// StoreConfig holds settings for the extraction index.
type StoreConfig struct {
	// StoreDir is the directory containing the SQLite database.
	StoreDir string `json:"store_dir" yaml:"store_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
	Extraction  ExtractionConfig  `json:"extraction" yaml:"extraction"`
	Store       StoreConfig       `json:"store" yaml:"store"`
}
