// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/model-engine/internal/extract"
	"github.com/meshintel/model-engine/internal/grounding"
	"github.com/meshintel/model-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [sbml-files...]",
	Short: "Extract template models from SBML documents",
	Long: `Extract reads SBML documents and produces template models: typed
population-event templates with symbolic rate laws and ontology-grounded
participants. With file arguments it extracts those documents and prints
the records; without arguments it walks the model cache and writes one
record per model to the output directory, skipping unchanged models.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("models-dir", "models", "base directory for downloaded models")
	extractCmd.Flags().String("out-dir", "extracted", "directory for extraction records")
	extractCmd.Flags().String("registry", "", "YAML file with extra grounding registry entries")
	extractCmd.Flags().String("model-id", "", "model ID for concept traceability (single-file mode)")
	extractCmd.Flags().String("reporters", "", "comma-separated reporter species IDs to exclude (single-file mode)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := types.ExtractionConfig{
		RegistryPath: stringSetting(cmd, "registry", "extraction.registry_path"),
		ModelsDir:    stringSetting(cmd, "models-dir", "extraction.models_dir"),
		OutDir:       stringSetting(cmd, "out-dir", "extraction.out_dir"),
	}
	if viper.IsSet("extraction.reporter_species") {
		if err := viper.UnmarshalKey("extraction.reporter_species", &cfg.ReporterSpecies); err != nil {
			return fmt.Errorf("reading reporter_species config: %w", err)
		}
	}

	conv, err := newConverter(cfg.RegistryPath)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return extractFiles(cmd, args, cfg, conv)
	}

	summary, err := extract.ExtractAll(cfg, conv, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d model(s) failed extraction", summary.Failed)
	}
	return nil
}

// extractFiles extracts explicitly named documents and prints their
// records to stdout.
func extractFiles(cmd *cobra.Command, paths []string, cfg types.ExtractionConfig, conv *grounding.Converter) error {
	modelID, _ := cmd.Flags().GetString("model-id")
	reportersFlag, _ := cmd.Flags().GetString("reporters")
	var reporters []string
	if reportersFlag != "" {
		reporters = strings.Split(reportersFlag, ",")
	}

	for _, path := range paths {
		id := modelID
		if id == "" {
			id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		opts := extract.Options{ModelID: id, ReporterIDs: reporters}
		if len(reporters) == 0 {
			opts.ReporterIDs = cfg.ReporterSpecies[id]
		}

		result, err := extract.FromFile(path, conv, opts, os.Stderr)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", path, err)
		}

		data, err := yaml.Marshal(result.Record(id, ""))
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		os.Stdout.Write(data)
	}
	return nil
}

// newConverter builds the shared grounding converter once per run.
func newConverter(registryPath string) (*grounding.Converter, error) {
	var reg grounding.Registry
	var err error
	if registryPath != "" {
		reg, err = grounding.LoadRegistry(registryPath)
	} else {
		reg, err = grounding.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading grounding registry: %w", err)
	}
	return grounding.NewConverter(reg), nil
}
