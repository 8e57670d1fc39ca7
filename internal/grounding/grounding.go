// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grounding converts annotation resource URIs into
// (prefix, local identifier) pairs. The reverse-lookup table is built
// explicitly from a registry and shared by reference; it depends only on
// the static registry, never on a specific document, so one Converter
// constructed at startup serves every extraction.
package grounding

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed registry.yaml
var defaultRegistryYAML []byte

// RegistryEntry describes one ontology prefix.
type RegistryEntry struct {
	// URIPrefixes lists URI prefixes under which the ontology's terms
	// appear; the remainder of a matching URI is the local identifier.
	URIPrefixes []string `yaml:"uri_prefixes"`

	// Synonyms lists alternative path segments used by identifiers.org
	// URLs and MIRIAM URNs for the same ontology.
	Synonyms []string `yaml:"synonyms,omitempty"`
}

// Registry maps a canonical ontology prefix to its entry.
type Registry map[string]RegistryEntry

var (
	defaultOnce sync.Once
	defaultReg  Registry
	defaultErr  error
)

// Default returns the embedded registry. The parse cost is paid once per
// process.
func Default() (Registry, error) {
	defaultOnce.Do(func() {
		defaultErr = yaml.Unmarshal(defaultRegistryYAML, &defaultReg)
	})
	return defaultReg, defaultErr
}

// LoadRegistry reads registry entries from a YAML file and merges them
// over the embedded defaults. File entries win on prefix collision.
func LoadRegistry(path string) (Registry, error) {
	base, err := Default()
	if err != nil {
		return nil, fmt.Errorf("loading embedded registry: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	var extra Registry
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	merged := make(Registry, len(base)+len(extra))
	for prefix, entry := range base {
		merged[prefix] = entry
	}
	for prefix, entry := range extra {
		merged[prefix] = entry
	}
	return merged, nil
}

// Converter resolves resource URIs to (prefix, local) pairs. Immutable
// after construction; safe for concurrent use.
type Converter struct {
	// byURIPrefix holds (uriPrefix, ontologyPrefix) pairs sorted by
	// descending URI prefix length so the longest match wins.
	byURIPrefix []uriMapping

	// canonical maps every prefix and synonym, lowercased, to the
	// canonical prefix.
	canonical map[string]string
}

type uriMapping struct {
	uriPrefix string
	prefix    string
}

// NewConverter builds the reverse-lookup table for a registry.
func NewConverter(reg Registry) *Converter {
	c := &Converter{canonical: make(map[string]string)}
	for prefix, entry := range reg {
		c.canonical[strings.ToLower(prefix)] = prefix
		for _, syn := range entry.Synonyms {
			c.canonical[strings.ToLower(syn)] = prefix
		}
		for _, up := range entry.URIPrefixes {
			c.byURIPrefix = append(c.byURIPrefix, uriMapping{uriPrefix: up, prefix: prefix})
		}
	}
	sort.Slice(c.byURIPrefix, func(i, j int) bool {
		a, b := c.byURIPrefix[i], c.byURIPrefix[j]
		if len(a.uriPrefix) != len(b.uriPrefix) {
			return len(a.uriPrefix) > len(b.uriPrefix)
		}
		return a.uriPrefix < b.uriPrefix
	})
	return c
}

// ParseURI resolves a resource URI to its (prefix, local) pair. It tries
// the registered URI prefixes longest-first, then MIRIAM URNs
// (urn:miriam:taxonomy:9606), then identifiers.org CURIE-style paths
// (https://identifiers.org/ncit:C171133). Unknown URIs return ok=false;
// a missing grounding is never an error.
func (c *Converter) ParseURI(uri string) (prefix, local string, ok bool) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", "", false
	}

	for _, m := range c.byURIPrefix {
		if rest, found := strings.CutPrefix(uri, m.uriPrefix); found && rest != "" {
			return m.prefix, stripBanner(m.prefix, rest), true
		}
	}

	if rest, found := strings.CutPrefix(uri, "urn:miriam:"); found {
		name, id, split := strings.Cut(rest, ":")
		if !split || id == "" {
			return "", "", false
		}
		if canon, known := c.canonical[strings.ToLower(name)]; known {
			return canon, stripBanner(canon, unescapeURN(id)), true
		}
		return "", "", false
	}

	for _, host := range []string{"http://identifiers.org/", "https://identifiers.org/"} {
		rest, found := strings.CutPrefix(uri, host)
		if !found {
			continue
		}
		var name, id string
		var split bool
		if strings.ContainsAny(rest, ":") {
			name, id, split = strings.Cut(rest, ":")
		} else {
			name, id, split = strings.Cut(rest, "/")
		}
		if !split || id == "" {
			return "", "", false
		}
		if canon, known := c.canonical[strings.ToLower(name)]; known {
			return canon, stripBanner(canon, id), true
		}
		return "", "", false
	}

	return "", "", false
}

// stripBanner drops a redundant embedded prefix from a local identifier.
// Several ontologies repeat their own prefix inside the id
// (DOID:0080600, SBO:0000495); the canonical local form is the bare id.
func stripBanner(prefix, local string) string {
	if i := strings.IndexByte(local, ':'); i > 0 && strings.EqualFold(local[:i], prefix) {
		return local[i+1:]
	}
	return local
}

// unescapeURN reverses the %3A escaping MIRIAM URNs apply to colons in
// local identifiers.
func unescapeURN(id string) string {
	return strings.ReplaceAll(id, "%3A", ":")
}
