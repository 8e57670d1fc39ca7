// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/meshintel/model-engine/internal/grounding"
	"github.com/meshintel/model-engine/internal/sbml"
	"github.com/meshintel/model-engine/pkg/types"
)

// modelSpeciesPrefix keys the traceability identifier injected for every
// concept when a model ID is supplied, so a concept can be traced to its
// source document even without external grounding.
const modelSpeciesPrefix = "biomodels.species"

// RDF annotation structures. Species annotations embed arbitrary XML;
// the grounding lives under rdf:RDF/rdf:Description with biology
// qualifier relations holding rdf:Bag resource lists.
const (
	rdfNS    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	bqbiolNS = "http://biomodels.net/biology-qualifiers/"
)

type annotationDoc struct {
	RDF *rdfRoot `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# RDF"`
}

type rdfRoot struct {
	Descriptions []rdfDescription `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Description"`
}

type rdfDescription struct {
	Is          []rdfRelation `xml:"http://biomodels.net/biology-qualifiers/ is"`
	IsVersionOf []rdfRelation `xml:"http://biomodels.net/biology-qualifiers/ isVersionOf"`
	HasProperty []rdfRelation `xml:"http://biomodels.net/biology-qualifiers/ hasProperty"`
}

type rdfRelation struct {
	Bag struct {
		Items []rdfItem `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# li"`
	} `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Bag"`
}

type rdfItem struct {
	Resource string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# resource,attr"`
}

// extractConcepts builds one grounded Concept per declared species. A
// species without an annotation block gets an empty grounding; that is
// never an error.
func extractConcepts(model *sbml.Model, conv *grounding.Converter, modelID string, w io.Writer) map[string]types.Concept {
	concepts := make(map[string]types.Concept, len(model.Species))
	for _, species := range model.Species {
		name := species.Name
		if name == "" {
			name = species.ID
		}

		annotation := species.Annotation.Body()
		if annotation == "" {
			fmt.Fprintf(w, "[%s species:%s] had no annotations\n", modelID, species.ID)
			concepts[species.ID] = types.Concept{
				Name:        name,
				Identifiers: map[string]string{},
				Context:     map[string]string{},
			}
			continue
		}

		identifiers, properties := groundAnnotation(annotation, conv)
		if modelID != "" {
			identifiers[modelSpeciesPrefix] = fmt.Sprintf("%s:%s", modelID, species.ID)
		}

		context := map[string]string{}
		// Only the first property reference is kept; further ones are
		// dropped (known limitation of the context model).
		if len(properties) > 0 {
			context["property"] = properties[0]
		}

		concepts[species.ID] = types.Concept{
			Name:        name,
			Identifiers: identifiers,
			Context:     context,
		}
	}
	return concepts
}

// groundAnnotation parses an annotation block and resolves its resource
// references. Equivalence groundings come from the bqbiol:is relation;
// when that yields nothing, the less specific bqbiol:isVersionOf relation
// is used as a fallback. Exactly one of the two paths contributes, never
// a merge of both.
func groundAnnotation(annotation string, conv *grounding.Converter) (identifiers map[string]string, properties []string) {
	identifiers = map[string]string{}

	// The inner XML may hold several sibling elements (COPASI blocks next
	// to the RDF), so it is decoded under a synthetic root.
	var doc annotationDoc
	wrapped := "<annotation>" + annotation + "</annotation>"
	if err := xml.Unmarshal([]byte(wrapped), &doc); err != nil || doc.RDF == nil {
		return identifiers, nil
	}

	for _, desc := range doc.RDF.Descriptions {
		for _, rel := range desc.Is {
			addResources(identifiers, rel, conv)
		}
	}
	if len(identifiers) == 0 {
		for _, desc := range doc.RDF.Descriptions {
			for _, rel := range desc.IsVersionOf {
				addResources(identifiers, rel, conv)
			}
		}
	}

	for _, desc := range doc.RDF.Descriptions {
		for _, rel := range desc.HasProperty {
			for _, item := range rel.Bag.Items {
				if prefix, local, ok := conv.ParseURI(item.Resource); ok {
					properties = append(properties, prefix+":"+local)
				}
			}
		}
	}

	return identifiers, properties
}

func addResources(identifiers map[string]string, rel rdfRelation, conv *grounding.Converter) {
	for _, item := range rel.Bag.Items {
		if prefix, local, ok := conv.ParseURI(item.Resource); ok {
			identifiers[prefix] = local
		}
	}
}
