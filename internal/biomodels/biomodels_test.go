// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biomodels

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/model-engine/pkg/types"
)

const sampleSBML = `<?xml version="1.0"?><sbml level="2" version="4"><model id="m"/></sbml>`

// zipArchive builds an in-memory zip holding the named files.
func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultQuery, r.URL.Query().Get("query"))
		assert.Equal(t, "biomodels", r.URL.Query().Get("domain"))
		assert.Equal(t, "5", r.URL.Query().Get("numResults"))

		json.NewEncoder(w).Encode(searchResponse{Models: []searchModel{
			{ID: "BIOMD0000000956", Name: "Bertozzi2020 - SIR model of scenarios of COVID-19 spread", Format: "SBML"},
			{ID: "MODEL2009230001", Name: "MODEL2009230001", Format: "SBML"},
			{ID: "BIOMD0000000970", Name: "Ndairou2020 - early COVID-19 Wuhan", Format: "Other"},
		}})
	}))
	defer ts.Close()

	old := searchAPIBase
	searchAPIBase = ts.URL
	defer func() { searchAPIBase = old }()

	cfg := types.AcquisitionConfig{MaxResults: 5}
	summaries, err := Search(context.Background(), ts.Client(), "", cfg)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	// AuthorYYYY - Title names are split.
	assert.Equal(t, "Bertozzi2020", summaries[0].Author)
	assert.Equal(t, "SIR model of scenarios of COVID-19 spread", summaries[0].Name)

	// Names identical to the accession stay as-is.
	assert.Equal(t, "", summaries[1].Author)
	assert.Equal(t, "MODEL2009230001", summaries[1].Name)

	assert.Equal(t, "Other", summaries[2].Format)
}

func TestSearch_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := searchAPIBase
	searchAPIBase = ts.URL
	defer func() { searchAPIBase = old }()

	_, err := Search(context.Background(), ts.Client(), "", types.AcquisitionConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestFetchSBML(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"BIOMD0000000956.xml": sampleSBML,
		"manifest.xml":        "<manifest/>",
	})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BIOMD0000000956", r.URL.Query().Get("models"))
		w.Write(archive)
	}))
	defer ts.Close()

	old := downloadAPIBase
	downloadAPIBase = ts.URL
	defer func() { downloadAPIBase = old }()

	data, err := FetchSBML(context.Background(), ts.Client(), "BIOMD0000000956", types.AcquisitionConfig{})
	require.NoError(t, err)
	assert.Equal(t, sampleSBML, string(data))
}

func TestFetchSBML_MissingEntry(t *testing.T) {
	archive := zipArchive(t, map[string]string{"other.xml": "<x/>"})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(archive)
	}))
	defer ts.Close()

	old := downloadAPIBase
	downloadAPIBase = ts.URL
	defer func() { downloadAPIBase = old }()

	_, err := FetchSBML(context.Background(), ts.Client(), "BIOMD1", types.AcquisitionConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain BIOMD1.xml")
}

func TestAcquireModel(t *testing.T) {
	archive := zipArchive(t, map[string]string{"BIOMD1.xml": sampleSBML})
	var downloads int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&downloads, 1)
		w.Write(archive)
	}))
	defer ts.Close()

	old := downloadAPIBase
	downloadAPIBase = ts.URL
	defer func() { downloadAPIBase = old }()

	cfg := types.AcquisitionConfig{ModelsDir: t.TempDir()}
	summary := types.ModelSummary{ID: "BIOMD1", Name: "Test model", Format: "SBML"}

	var buf bytes.Buffer
	path, skipped, err := AcquireModel(context.Background(), ts.Client(), summary, cfg, &buf)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, filepath.Join(cfg.ModelsDir, "BIOMD1", "BIOMD1.xml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleSBML, string(data))

	// Metadata lands next to the document with the local path recorded.
	meta, err := ReadSummary(filepath.Join(cfg.ModelsDir, "BIOMD1", "BIOMD1.yaml"))
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Test model", meta.Name)
	assert.Equal(t, path, meta.SBMLPath)

	// A second acquisition skips the existing document.
	_, skipped, err = AcquireModel(context.Background(), ts.Client(), summary, cfg, &buf)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, int32(1), atomic.LoadInt32(&downloads))
	assert.Contains(t, buf.String(), "skipped: BIOMD1 (already exists)")
}

func TestAcquireBatch(t *testing.T) {
	searchTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Models: []searchModel{
			{ID: "BIOMD1", Name: "Author2020 - Model one", Format: "SBML"},
			{ID: "BIOMD2", Name: "Author2021 - Model two", Format: "Other"},
			{ID: "BIOMD3", Name: "Author2022 - Model three", Format: "SBML"},
		}})
	}))
	defer searchTS.Close()

	downloadTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("models")
		if id == "BIOMD3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(zipArchive(t, map[string]string{id + ".xml": sampleSBML}))
	}))
	defer downloadTS.Close()

	oldSearch, oldDownload := searchAPIBase, downloadAPIBase
	searchAPIBase, downloadAPIBase = searchTS.URL, downloadTS.URL
	defer func() { searchAPIBase, downloadAPIBase = oldSearch, oldDownload }()

	cfg := types.AcquisitionConfig{ModelsDir: t.TempDir()}

	var buf bytes.Buffer
	result, err := AcquireBatch(context.Background(), searchTS.Client(), "", cfg, &buf)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.True(t, result.HasFailures())

	require.Len(t, result.Models, 1)
	assert.Equal(t, "BIOMD1", result.Models[0].ID)
	assert.NotEmpty(t, result.Models[0].SBMLPath)

	out := buf.String()
	assert.Contains(t, out, "skipped: BIOMD2 (format Other)")
	assert.Contains(t, out, "failed:  BIOMD3")
	assert.Contains(t, out, "Batch summary: 1 downloaded, 1 skipped, 1 failed (total: 3)")
}

func TestReadSummary_Missing(t *testing.T) {
	summary, err := ReadSummary(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, summary)
}
