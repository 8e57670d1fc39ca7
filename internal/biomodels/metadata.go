// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biomodels

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/model-engine/pkg/types"
)

// writeSummary writes a model's metadata YAML next to its document.
func writeSummary(summary types.ModelSummary, sbmlPath, path string) error {
	summary.SBMLPath = sbmlPath
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSummary reads a model's metadata YAML from the cache. Returns nil
// without error when the file does not exist.
func ReadSummary(path string) (*types.ModelSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}
	var summary types.ModelSummary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	return &summary, nil
}
