// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/model-engine/internal/biomodels"
	"github.com/meshintel/model-engine/internal/grounding"
	"github.com/meshintel/model-engine/pkg/types"
)

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of models processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any models failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ExtractAll walks the model cache at cfg.ModelsDir (one subdirectory
// per model holding "<id>.xml"), extracts a template model from each
// document, and writes "<id>.yaml" records to cfg.OutDir. Unchanged
// models are skipped and re-extracted only when the document is newer
// than its record. A model that fails to parse is reported and the batch
// continues.
func ExtractAll(cfg types.ExtractionConfig, conv *grounding.Converter, w io.Writer) (BatchSummary, error) {
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(cfg.ModelsDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading models directory %s: %w", cfg.ModelsDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		modelID := entry.Name()
		sbmlPath := filepath.Join(cfg.ModelsDir, modelID, modelID+".xml")
		if _, err := os.Stat(sbmlPath); err != nil {
			continue
		}
		outPath := filepath.Join(cfg.OutDir, modelID+".yaml")

		changed, err := hasChanged(sbmlPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", modelID, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", modelID)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "extracting %s\n", modelID)

		opts := Options{ModelID: modelID, ReporterIDs: cfg.ReporterSpecies[modelID]}
		result, err := FromFile(sbmlPath, conv, opts, w)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", modelID, err)
			summary.Failed++
			continue
		}

		name := modelName(cfg.ModelsDir, modelID)
		record := result.Record(modelID, name)
		if err := writeRecord(outPath, record); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", modelID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "extracted %s (%d templates, %d skipped)\n",
			modelID, len(record.Templates), record.Skipped)
		summary.Extracted++
	}

	fmt.Fprintf(w, "\nextracted: %d, skipped: %d, failed: %d\n",
		summary.Extracted, summary.Skipped, summary.Failed)
	return summary, nil
}

// modelName reads the model's display name from its cached metadata,
// falling back to "" when none is present.
func modelName(modelsDir, modelID string) string {
	summary, err := biomodels.ReadSummary(filepath.Join(modelsDir, modelID, modelID+".yaml"))
	if err != nil || summary == nil {
		return ""
	}
	return summary.Name
}

// hasChanged reports whether the document is newer than the output record.
func hasChanged(sbmlPath, outPath string) (bool, error) {
	srcInfo, err := os.Stat(sbmlPath)
	if err != nil {
		return false, fmt.Errorf("stat document %s: %w", sbmlPath, err)
	}
	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}
	return srcInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeRecord marshals the ExtractionRecord to a YAML file.
func writeRecord(path string, record types.ExtractionRecord) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
