// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mathexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"mass action", "beta * S * I", "beta * S * I"},
		{"grouping preserved", "k * (S + I)", "k * (S + I)"},
		{"redundant parens dropped", "(k * S) + I", "k * S + I"},
		{"division chain", "V * S / (Km + S)", "V * S / (Km + S)"},
		{"scientific notation", "1.5e-3 * S", "0.0015 * S"},
		{"power", "k * S ^ 2", "k * S ^ 2"},
		{"unary minus is structural", "-k * S", "(0 - k) * S"},
		{"unknown call kept opaque", "hill(S, K, 2)", "hill(S, K, 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.String())
		})
	}
}

func TestParse_NoSimplification(t *testing.T) {
	// 2 * 3 stays a product; the parser never folds constants.
	expr, err := Parse("2 * 3", nil)
	require.NoError(t, err)
	assert.Equal(t, "2 * 3", expr.String())
}

func TestParse_PowerRightAssociative(t *testing.T) {
	expr, err := Parse("a ^ b ^ c", nil)
	require.NoError(t, err)

	top, ok := expr.(Binary)
	require.True(t, ok)
	assert.Equal(t, Symbol{Name: "a"}, top.Left)
	assert.Equal(t, "b ^ c", top.Right.String())
}

func TestParse_ExpandsKnownFunctions(t *testing.T) {
	funcs := map[string]*Lambda{
		"rate": {
			Params: []string{"k", "s"},
			Body:   Binary{Op: OpMul, Left: Symbol{Name: "k"}, Right: Symbol{Name: "s"}},
		},
	}

	expr, err := Parse("rate(beta, S) + mu", funcs)
	require.NoError(t, err)
	assert.Equal(t, "beta * S + mu", expr.String())

	// The expansion is inline, so no Call survives.
	assert.Empty(t, callNames(expr))
}

func callNames(e Expr) []string {
	var names []string
	switch v := e.(type) {
	case Binary:
		names = append(names, callNames(v.Left)...)
		names = append(names, callNames(v.Right)...)
	case Call:
		names = append(names, v.Name)
		for _, a := range v.Args {
			names = append(names, callNames(a)...)
		}
	}
	return names
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty input", ""},
		{"trailing operator", "k *"},
		{"unclosed paren", "(k * S"},
		{"unexpected character", "k $ S"},
		{"dangling operand", "k S"},
		{"reserved word", "lambda * S"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, nil)
			assert.Error(t, err)
		})
	}
}

func TestRemapReserved_WholeIdentifiersOnly(t *testing.T) {
	assert.Equal(t, "__mathexpr_lambda * S", RemapReserved("lambda * S"))
	// Names that merely contain the keyword pass through.
	assert.Equal(t, "lambda_rate * S", RemapReserved("lambda_rate * S"))
	assert.Equal(t, "flambda + 1", RemapReserved("flambda + 1"))
}

func TestRestoreReserved_RoundTrip(t *testing.T) {
	expr, err := Parse(RemapReserved("lambda * S + gamma"), nil)
	require.NoError(t, err)

	restored := RestoreReserved(expr)
	assert.Equal(t, "lambda * S + gamma", restored.String())

	// The sentinel never leaks into the restored tree.
	assert.NotContains(t, Variables(restored), "__mathexpr_lambda")
	assert.Contains(t, Variables(restored), "lambda")
}

func TestReserved(t *testing.T) {
	sentinel, ok := Reserved("lambda")
	assert.True(t, ok)
	assert.Equal(t, "__mathexpr_lambda", sentinel)

	_, ok = Reserved("gamma")
	assert.False(t, ok)
}
