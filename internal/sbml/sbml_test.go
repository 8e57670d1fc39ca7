// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sbml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sirDocument = `<?xml version="1.0" encoding="UTF-8"?>
<sbml xmlns="http://www.sbml.org/sbml/level2/version4" level="2" version="4">
  <model id="sir" name="SIR epidemic model">
    <listOfCompartments>
      <compartment id="env" size="1"/>
    </listOfCompartments>
    <listOfSpecies>
      <species id="S" name="Susceptible" compartment="env"/>
      <species id="I" name="Infected" compartment="env">
        <annotation>
          <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/>
        </annotation>
      </species>
      <species id="R" name="Recovered" compartment="env"/>
    </listOfSpecies>
    <listOfParameters>
      <parameter id="beta" value="0.9"/>
      <parameter id="gamma"/>
    </listOfParameters>
    <listOfReactions>
      <reaction id="infection" reversible="false">
        <listOfReactants>
          <speciesReference species="S"/>
        </listOfReactants>
        <listOfProducts>
          <speciesReference species="I"/>
        </listOfProducts>
        <listOfModifiers>
          <modifierSpeciesReference species="I"/>
        </listOfModifiers>
        <kineticLaw>
          <math xmlns="http://www.w3.org/1998/Math/MathML">
            <apply>
              <times/>
              <ci>beta</ci>
              <apply>
                <times/>
                <ci>S</ci>
                <ci>I</ci>
              </apply>
            </apply>
          </math>
        </kineticLaw>
      </reaction>
    </listOfReactions>
  </model>
</sbml>`

func TestParseString_DecodesModel(t *testing.T) {
	doc, err := ParseString(sirDocument)
	require.NoError(t, err)
	require.NotNil(t, doc.Model)

	model := doc.Model
	assert.Equal(t, "sir", model.ID)
	assert.Equal(t, "SIR epidemic model", model.Name)
	require.Len(t, model.Species, 3)
	assert.Equal(t, "Susceptible", model.Species[0].Name)

	require.Len(t, model.Parameters, 2)
	require.NotNil(t, model.Parameters[0].Value)
	assert.Equal(t, 0.9, *model.Parameters[0].Value)
	assert.Nil(t, model.Parameters[1].Value)

	require.Len(t, model.Reactions, 1)
	reaction := model.Reactions[0]
	assert.Equal(t, "infection", reaction.ID)
	require.Len(t, reaction.Reactants, 1)
	assert.Equal(t, "S", reaction.Reactants[0].Species)
	require.Len(t, reaction.Modifiers, 1)
	assert.Equal(t, "I", reaction.Modifiers[0].Species)
	require.NotNil(t, reaction.KineticLaw)
	require.NotNil(t, reaction.KineticLaw.Math)
}

func TestParseString_AnnotationBody(t *testing.T) {
	doc, err := ParseString(sirDocument)
	require.NoError(t, err)

	// S has no annotation block, I does.
	assert.Equal(t, "", doc.Model.Species[0].Annotation.Body())
	assert.Contains(t, doc.Model.Species[1].Annotation.Body(), "rdf:RDF")
}

func TestParse_NoModel(t *testing.T) {
	_, err := ParseString(`<sbml level="2" version="4"></sbml>`)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := ParseString(`<sbml><model id="x">`)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoModel)
}

func TestCompartment_EffectiveVolume(t *testing.T) {
	size := 2.5
	volume := 4.0

	assert.Equal(t, 2.5, Compartment{Size: &size, Volume: &volume}.EffectiveVolume())
	assert.Equal(t, 4.0, Compartment{Volume: &volume}.EffectiveVolume())
	assert.Equal(t, 1.0, Compartment{}.EffectiveVolume())
}

func TestRateLaw_FormulaString(t *testing.T) {
	doc, err := ParseString(sirDocument)
	require.NoError(t, err)

	ast, err := doc.Model.Reactions[0].KineticLaw.Math.AST()
	require.NoError(t, err)

	formula, err := FormulaString(ast)
	require.NoError(t, err)
	assert.Equal(t, "(beta * (S * I))", formula)
}
