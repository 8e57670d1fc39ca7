// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/model-engine/internal/store"
	"github.com/meshintel/model-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the template store (index, query, models)",
	Long: `Store manages a local SQLite database built from extraction records.
Use subcommands to index records, query templates, or list models.`,
}

// --- index subcommand ---

var storeIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest extraction records into the template store",
	Long: `Index reads extraction YAML files from the output directory, ingests
them into a SQLite database, and records each model's indexing status.
Unchanged models are skipped on subsequent runs.`,
	RunE: runStoreIndex,
}

func runStoreIndex(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	outDir := stringSetting(cmd, "out-dir", "extraction.out_dir")

	summary, err := s.Ingest(context.Background(), outDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d model(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored templates by kind, model, or grounding",
	Long: `Query searches the template store with structured filters: template
kind, model ID, or participant grounding (a CURIE such as ncit:C171133).
Results include the model, the template position, and its rate law.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	kind, _ := cmd.Flags().GetString("kind")
	modelID, _ := cmd.Flags().GetString("model")
	curie, _ := cmd.Flags().GetString("grounding")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Kind:       types.Kind(kind),
		ModelID:    modelID,
		Grounding:  curie,
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("filter required: provide --kind, --model, or --grounding")
	}

	results, err := s.Templates(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-14s  %-4s  %-28s  %-16s  %-16s  %s\n",
		"Model", "Idx", "Kind", "Subject", "Outcome", "Rate law")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, r := range results {
		rate := truncate(r.Template.RateLaw, 28)
		subject := truncate(conceptName(r.Template.Subject), 16)
		outcome := truncate(conceptName(r.Template.Outcome), 16)
		fmt.Fprintf(os.Stdout, "%-14s  %-4d  %-28s  %-16s  %-16s  %s\n",
			r.ModelID, r.Index, r.Template.Kind, subject, outcome, rate)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- models subcommand ---

var storeModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List indexed models with template counts",
	RunE:  runStoreModels,
}

func runStoreModels(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.Models(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No models indexed.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-14s  %-50s  %-10s  %s\n",
		"Model", "Name", "Templates", "Skipped")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for _, row := range rows {
		fmt.Fprintf(os.Stdout, "%-14s  %-50s  %-10d  %d\n",
			row.ID, truncate(row.Name, 50), row.Templates, row.Skipped)
	}

	fmt.Fprintf(os.Stdout, "\n%d models\n", len(rows))
	return nil
}

// --- shared helpers ---

func conceptName(c *types.Concept) string {
	if c == nil {
		return "-"
	}
	return c.Name
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := types.StoreConfig{
		StoreDir: stringSetting(cmd, "store-dir", "store.store_dir"),
	}
	cfg.MaxResults = intSetting(cmd, "max-results", "store.max_results")
	return store.NewStore(cfg)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("store-dir", "store", "base directory for the template store database")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Index flags.
	storeIndexCmd.Flags().String("out-dir", "extracted", "directory with extraction records")

	// Query flags.
	storeQueryCmd.Flags().String("kind", "", "filter by template kind: NaturalConversion, ControlledConversion, ...")
	storeQueryCmd.Flags().String("model", "", "filter by model ID")
	storeQueryCmd.Flags().String("grounding", "", "filter by participant grounding CURIE")
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Models flags.
	storeModelsCmd.Flags().Bool("json", false, "output models as JSON")

	// Wire subcommands.
	storeCmd.AddCommand(storeIndexCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeModelsCmd)

	rootCmd.AddCommand(storeCmd)
}
