// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/model-engine/internal/biomodels"
	"github.com/meshintel/model-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "model-engine/0.1"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire [model-ids...]",
	Short: "Download models from BioModels into the local cache",
	Long: `Acquire downloads SBML documents from the BioModels database. With model
IDs as arguments it fetches exactly those models; without arguments it runs
the search query (default: the curated COVID-19 collection) and downloads
every SBML hit. Cached models are skipped.`,
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	acquireCmd.Flags().Duration("delay", defaultDelay, "delay between consecutive downloads")
	acquireCmd.Flags().String("models-dir", "models", "base directory for downloaded models")
	acquireCmd.Flags().String("query", "", "BioModels search query (default: curated COVID-19 models)")
	acquireCmd.Flags().Int("max-results", 0, "maximum number of search results (default 30)")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	delay, _ := cmd.Flags().GetDuration("delay")
	query, _ := cmd.Flags().GetString("query")

	cfg := types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		ModelsDir:     stringSetting(cmd, "models-dir", "acquisition.models_dir"),
		DownloadDelay: delay,
		MaxResults:    intSetting(cmd, "max-results", "acquisition.max_results"),
	}

	client := &http.Client{Timeout: cfg.Timeout}
	ctx := context.Background()

	// Explicit model IDs bypass the search.
	if len(args) > 0 {
		var failed int
		for _, id := range args {
			summary := types.ModelSummary{ID: id, Name: id, Format: "SBML"}
			if _, _, err := biomodels.AcquireModel(ctx, client, summary, cfg, os.Stdout); err != nil {
				fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", id, err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d model(s) failed acquisition", failed)
		}
		return nil
	}

	result, err := biomodels.AcquireBatch(ctx, client, query, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d model(s) failed acquisition", result.Failed)
	}
	return nil
}
