// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package biomodels queries the BioModels REST API and downloads model
// documents into a local cache. The search endpoint lists curated models
// (e.g. submitter_keywords:COVID-19); downloads arrive as zip archives
// containing "<id>.xml".
package biomodels

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meshintel/model-engine/internal/httputil"
	"github.com/meshintel/model-engine/pkg/types"
)

// API endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	searchAPIBase   = "https://www.ebi.ac.uk/biomodels/search"
	downloadAPIBase = "https://www.ebi.ac.uk/biomodels/search/download"
)

// DefaultQuery selects the curated COVID-19 model collection.
const DefaultQuery = "submitter_keywords:COVID-19"

const defaultMaxResults = 30

// BioModels search JSON structures.
type searchResponse struct {
	Models []searchModel `json:"models"`
}

type searchModel struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Format string `json:"format"`
}

// Search queries the BioModels API and returns model summaries. Titles
// in the "AuthorYYYY - Title" format are split into author and name.
func Search(ctx context.Context, client *http.Client, query string, cfg types.AcquisitionConfig) ([]types.ModelSummary, error) {
	if query == "" {
		query = DefaultQuery
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("domain", "biomodels")
	params.Set("numResults", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("BioModels search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BioModels search returned HTTP %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing BioModels response: %w", err)
	}

	summaries := make([]types.ModelSummary, 0, len(sr.Models))
	for _, m := range sr.Models {
		s := types.ModelSummary{ID: m.ID, Name: m.Name, Format: m.Format}
		if m.Name != m.ID {
			if author, title, ok := strings.Cut(m.Name, "-"); ok {
				s.Author = strings.TrimSpace(author)
				s.Name = strings.TrimSpace(title)
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// FetchSBML downloads a model's archive and returns the SBML XML bytes
// for "<modelID>.xml" inside it.
func FetchSBML(ctx context.Context, client *http.Client, modelID string, cfg types.AcquisitionConfig) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?models=%s", downloadAPIBase, url.QueryEscape(modelID)), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("BioModels download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BioModels download returned HTTP %d", resp.StatusCode)
	}

	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading download: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("opening archive for %s: %w", modelID, err)
	}

	inner := modelID + ".xml"
	for _, f := range zr.File {
		if f.Name != inner {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in archive: %w", inner, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("reading %s from archive: %w", inner, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("archive for %s does not contain %s", modelID, inner)
}

// BatchResult holds the outcome of a batch acquisition run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Models     []types.ModelSummary
}

// Total returns the total number of models processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any downloads failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AcquireModel downloads one model into the cache at
// <ModelsDir>/<id>/<id>.xml, skipping the download when the file already
// exists.
func AcquireModel(ctx context.Context, client *http.Client, summary types.ModelSummary, cfg types.AcquisitionConfig, w io.Writer) (path string, skipped bool, err error) {
	destDir := filepath.Join(cfg.ModelsDir, summary.ID)
	destPath := filepath.Join(destDir, summary.ID+".xml")

	if _, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", summary.ID)
		return destPath, true, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", destDir, err)
	}

	fmt.Fprintf(w, "downloading: %s\n", summary.ID)

	data, err := FetchSBML(ctx, client, summary.ID, cfg)
	if err != nil {
		return "", false, err
	}

	// Write to a temp file and rename so an interrupted download never
	// leaves a partial document in the cache.
	tmpFile, err := os.CreateTemp(destDir, ".acquire-*.tmp")
	if err != nil {
		return "", false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("renaming temp file: %w", err)
	}

	if err := writeSummary(summary, destPath, filepath.Join(destDir, summary.ID+".yaml")); err != nil {
		return "", false, err
	}
	return destPath, false, nil
}

// AcquireBatch searches and downloads a batch of models, printing
// per-model status and continuing after individual failures. Non-SBML
// formats are counted as skipped.
func AcquireBatch(ctx context.Context, client *http.Client, query string, cfg types.AcquisitionConfig, w io.Writer) (BatchResult, error) {
	summaries, err := Search(ctx, client, query, cfg)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	for i, summary := range summaries {
		if summary.Format != "SBML" {
			fmt.Fprintf(w, "skipped: %s (format %s)\n", summary.ID, summary.Format)
			result.Skipped++
			continue
		}
		if i > 0 && cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(cfg.DownloadDelay):
			}
		}
		path, wasSkipped, err := AcquireModel(ctx, client, summary, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", summary.ID, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		summary.SBMLPath = path
		result.Models = append(result.Models, summary)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, nil
}
