// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grounding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConverter(t *testing.T) *Converter {
	t.Helper()
	reg, err := Default()
	require.NoError(t, err)
	return NewConverter(reg)
}

func TestParseURI_Forms(t *testing.T) {
	conv := defaultConverter(t)

	tests := []struct {
		name   string
		uri    string
		prefix string
		local  string
	}{
		{"identifiers.org path", "http://identifiers.org/ncit/C171133", "ncit", "C171133"},
		{"identifiers.org https", "https://identifiers.org/ncit/C171133", "ncit", "C171133"},
		{"identifiers.org CURIE", "https://identifiers.org/ncit:C171133", "ncit", "C171133"},
		{"obo purl", "http://purl.obolibrary.org/obo/NCIT_C171133", "ncit", "C171133"},
		{"miriam urn", "urn:miriam:taxonomy:9606", "ncbitaxon", "9606"},
		{"miriam urn escaped colon", "urn:miriam:biomodels.sbo:SBO%3A0000495", "sbo", "0000495"},
		{"taxonomy path synonym", "http://identifiers.org/taxonomy/2697049", "ncbitaxon", "2697049"},
		{"efo host", "http://www.ebi.ac.uk/efo/EFO_0000400", "efo", "0000400"},
		{"whitespace trimmed", "  http://identifiers.org/ido/0000514  ", "ido", "0000514"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, local, ok := conv.ParseURI(tt.uri)
			require.True(t, ok)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.local, local)
		})
	}
}

func TestParseURI_EmbeddedPrefixStripped(t *testing.T) {
	// Some databases repeat their prefix inside the local id; the
	// canonical local form drops it, case-insensitively.
	conv := defaultConverter(t)

	tests := []struct {
		name   string
		uri    string
		prefix string
		local  string
	}{
		{"doid banner", "http://identifiers.org/doid/DOID:0080600", "doid", "0080600"},
		{"doid banner https", "https://identifiers.org/doid/DOID:0080600", "doid", "0080600"},
		{"sbo banner CURIE path", "http://identifiers.org/sbo/SBO:0000495", "sbo", "0000495"},
		{"foreign banner kept", "http://identifiers.org/ido/GO:0000514", "ido", "GO:0000514"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, local, ok := conv.ParseURI(tt.uri)
			require.True(t, ok)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.local, local)
		})
	}
}

func TestParseURI_Unknown(t *testing.T) {
	conv := defaultConverter(t)

	tests := []struct {
		name string
		uri  string
	}{
		{"empty", ""},
		{"unregistered host", "http://example.com/thing/123"},
		{"unregistered identifiers.org path", "http://identifiers.org/nosuch/123"},
		{"unregistered urn", "urn:miriam:nosuch:123"},
		{"urn without local id", "urn:miriam:taxonomy"},
		{"prefix with empty remainder", "http://identifiers.org/ncit/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := conv.ParseURI(tt.uri)
			assert.False(t, ok)
		})
	}
}

func TestParseURI_LongestPrefixWins(t *testing.T) {
	// Two overlapping prefixes: the more specific one must match first.
	reg := Registry{
		"broad":  {URIPrefixes: []string{"http://example.org/db/"}},
		"narrow": {URIPrefixes: []string{"http://example.org/db/special/"}},
	}
	conv := NewConverter(reg)

	prefix, local, ok := conv.ParseURI("http://example.org/db/special/42")
	require.True(t, ok)
	assert.Equal(t, "narrow", prefix)
	assert.Equal(t, "42", local)

	prefix, _, ok = conv.ParseURI("http://example.org/db/42")
	require.True(t, ok)
	assert.Equal(t, "broad", prefix)
}

func TestLoadRegistry_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	extra := `covoc:
  uri_prefixes:
    - http://purl.obolibrary.org/obo/COVOC_
ncit:
  uri_prefixes:
    - http://example.org/ncit/
`
	require.NoError(t, os.WriteFile(path, []byte(extra), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	// New entries are added, defaults still present.
	assert.Contains(t, reg, "covoc")
	assert.Contains(t, reg, "chebi")

	// File entries win on collision.
	assert.Equal(t, []string{"http://example.org/ncit/"}, reg["ncit"].URIPrefixes)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
