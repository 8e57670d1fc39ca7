// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/model-engine/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{StoreDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(modelID string) types.ExtractionRecord {
	subject := types.Concept{Name: "Susceptible", Identifiers: map[string]string{"ido": "0000514"}}
	outcome := types.Concept{Name: "Infected", Identifiers: map[string]string{"ido": "0000511"}}
	return types.ExtractionRecord{
		ModelID: modelID,
		Name:    "SIR epidemic",
		Templates: []types.TemplateRecord{
			{
				Kind:        types.KindControlledConversion,
				Subject:     &subject,
				Outcome:     &outcome,
				Controllers: []types.Concept{outcome},
				RateLaw:     "beta * S * I",
			},
			{
				Kind:    types.KindNaturalDegradation,
				Subject: &outcome,
				RateLaw: "gamma * I",
			},
		},
		Parameters: map[string]float64{"beta": 0.9, "gamma": 0.07},
		Skipped:    1,
	}
}

func writeRecordFile(t *testing.T, dir, modelID string) string {
	t.Helper()
	data, err := yaml.Marshal(testRecord(modelID))
	require.NoError(t, err)
	path := filepath.Join(dir, modelID+".yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestIngestAndQuery(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeRecordFile(t, dir, "BIOMD0001")
	writeRecordFile(t, dir, "BIOMD0002")

	var buf bytes.Buffer
	summary, err := s.Ingest(context.Background(), dir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 2, summary.Total())
	assert.False(t, summary.HasFailures())
	assert.Contains(t, buf.String(), "indexing BIOMD0001 (2 templates)")

	// Filter by kind.
	results, err := s.Templates(context.Background(), QueryOptions{Kind: types.KindNaturalDegradation})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "BIOMD0001", results[0].ModelID)
	assert.Equal(t, types.KindNaturalDegradation, results[0].Template.Kind)
	assert.Equal(t, "gamma * I", results[0].Template.RateLaw)

	// Filter by model.
	results, err = s.Templates(context.Background(), QueryOptions{ModelID: "BIOMD0002"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Filter by participant grounding CURIE.
	results, err = s.Templates(context.Background(), QueryOptions{
		ModelID:   "BIOMD0001",
		Grounding: "ido:0000514",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.KindControlledConversion, results[0].Template.Kind)
	require.NotNil(t, results[0].Template.Subject)
	assert.Equal(t, "Susceptible", results[0].Template.Subject.Name)
}

func TestTemplates_RespectsLimit(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeRecordFile(t, dir, "BIOMD0001")

	_, err := s.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)

	results, err := s.Templates(context.Background(), QueryOptions{
		ModelID:    "BIOMD0001",
		MaxResults: 1,
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIngest_Incremental(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	path := writeRecordFile(t, dir, "BIOMD0001")

	first, err := s.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Indexed)

	// Unchanged file: skipped.
	second, err := s.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Indexed)
	assert.Equal(t, 1, second.Skipped)

	// Touched file: re-indexed as an update, without duplicating rows.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	third, err := s.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, third.Updated)

	results, err := s.Templates(context.Background(), QueryOptions{ModelID: "BIOMD0001"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIngest_ReindexAfterLostStatusRow(t *testing.T) {
	// A missing indexing_status row must not leave stale template rows
	// behind on re-ingest.
	s := newTestStore(t)
	dir := t.TempDir()
	writeRecordFile(t, dir, "BIOMD0001")

	_, err := s.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)

	_, err = s.db.Exec(`DELETE FROM indexing_status WHERE model_id = ?`, "BIOMD0001")
	require.NoError(t, err)

	summary, err := s.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)

	results, err := s.Templates(context.Background(), QueryOptions{ModelID: "BIOMD0001"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIngest_BadRecordContinues(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeRecordFile(t, dir, "BIOMD0001")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("{invalid: ["), 0o644))

	var buf bytes.Buffer
	summary, err := s.Ingest(context.Background(), dir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.HasFailures())
	assert.Contains(t, buf.String(), "failed  broken")
}

func TestModels(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeRecordFile(t, dir, "BIOMD0001")

	_, err := s.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)

	rows, err := s.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BIOMD0001", rows[0].ID)
	assert.Equal(t, "SIR epidemic", rows[0].Name)
	assert.Equal(t, 2, rows[0].Templates)
	assert.Equal(t, 1, rows[0].Skipped)
}

func TestQueryOptions_IsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{}.IsEmpty())
	assert.True(t, QueryOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, QueryOptions{Kind: types.KindNaturalConversion}.IsEmpty())
	assert.False(t, QueryOptions{ModelID: "BIOMD0001"}.IsEmpty())
	assert.False(t, QueryOptions{Grounding: "ido:0000511"}.IsEmpty())
}
