// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extracted template models in a local SQLite
// index queryable by template kind, participant grounding, and model.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/model-engine/pkg/types"
)

const dbFile = "models.db"

// Store manages the extraction index SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the index database at
// <StoreDir>/models.db, creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.StoreDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.StoreDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS models (
			id TEXT PRIMARY KEY,
			name TEXT,
			parameters TEXT,
			skipped INTEGER,
			extracted_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS templates (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			model_id TEXT NOT NULL REFERENCES models(id),
			idx INTEGER NOT NULL,
			kind TEXT NOT NULL,
			subject TEXT,
			outcome TEXT,
			groundings TEXT,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_model_id ON templates(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_kind ON templates(kind)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			model_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an index run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of models processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// HasFailures reports whether any models failed.
func (s IngestSummary) HasFailures() bool {
	return s.Failed > 0
}

// Ingest reads extraction record YAML files from dir and populates the
// index, detecting new, changed, and unchanged records for incremental
// updates.
func (s *Store) Ingest(ctx context.Context, dir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading extraction directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		modelID := strings.TrimSuffix(entry.Name(), ".yaml")
		filePath := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", modelID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE model_id = ?`, modelID,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", modelID)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", modelID, err)
			summary.Failed++
			continue
		}

		var record types.ExtractionRecord
		if err := yaml.Unmarshal(data, &record); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", modelID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestRecord(ctx, record, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", modelID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d templates)\n", modelID, len(record.Templates))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d templates)\n", modelID, len(record.Templates))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestRecord(ctx context.Context, record types.ExtractionRecord, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Always clear old rows: templates can survive a lost
	// indexing_status row, and re-inserting over them would duplicate
	// every template.
	if _, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE model_id = ?`, record.ModelID); err != nil {
		return fmt.Errorf("deleting old templates: %w", err)
	}

	paramsJSON, _ := json.Marshal(record.Parameters)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO models (id, name, parameters, skipped, extracted_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, parameters=excluded.parameters,
			skipped=excluded.skipped, extracted_at=excluded.extracted_at`,
		record.ModelID, record.Name, string(paramsJSON), record.Skipped,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting model: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO templates (model_id, idx, kind, subject, outcome, groundings, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range record.Templates {
		recordJSON, _ := json.Marshal(t)
		groundingsJSON, _ := json.Marshal(groundings(t))
		var subject, outcome string
		if t.Subject != nil {
			subject = t.Subject.Name
		}
		if t.Outcome != nil {
			outcome = t.Outcome.Name
		}
		_, err := stmt.ExecContext(ctx,
			record.ModelID, i, string(t.Kind), subject, outcome,
			string(groundingsJSON), string(recordJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting template %d: %w", i, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (model_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(model_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		record.ModelID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// groundings collects the CURIEs of every participant of a template for
// the searchable groundings column.
func groundings(t types.TemplateRecord) []string {
	var curies []string
	add := func(c *types.Concept) {
		if c == nil {
			return
		}
		for prefix, local := range c.Identifiers {
			curies = append(curies, prefix+":"+local)
		}
	}
	add(t.Subject)
	add(t.Outcome)
	for i := range t.Controllers {
		add(&t.Controllers[i])
	}
	return curies
}
