// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mathexpr

import "strings"

// reservedLambda is the single keyword of the expression grammar, used
// when rendering lambdas. Source formats are free to declare parameters
// or functions with this name, so callers remap colliding identifiers to
// a sentinel before parsing and restore them afterwards.
const reservedLambda = "lambda"

// sentinelPrefix namespaces remapped identifiers so they cannot collide
// with anything a source document could legally declare.
const sentinelPrefix = "__mathexpr_"

// Reserved reports whether name collides with a reserved word of the
// expression grammar, returning the sentinel to use in its place.
func Reserved(name string) (sentinel string, ok bool) {
	if name == reservedLambda {
		return sentinelPrefix + name, true
	}
	return "", false
}

// RemapReserved rewrites every reserved identifier in a formula string to
// its sentinel. The replacement is token-aware: only whole identifiers
// are rewritten, so names that merely contain a reserved word (such as
// "lambda_rate") pass through untouched.
func RemapReserved(src string) string {
	var out strings.Builder
	i := 0
	for i < len(src) {
		c := src[i]
		if !isIdentStart(c) {
			out.WriteByte(c)
			i++
			continue
		}
		start := i
		for i < len(src) && isIdentPart(src[i]) {
			i++
		}
		ident := src[start:i]
		if sentinel, ok := Reserved(ident); ok {
			out.WriteString(sentinel)
		} else {
			out.WriteString(ident)
		}
	}
	return out.String()
}

// RestoreReserved substitutes sentinel symbols in e back to their
// original reserved names, so callers never observe the sentinel.
func RestoreReserved(e Expr) Expr {
	sentinel, _ := Reserved(reservedLambda)
	return Substitute(e, map[string]Expr{
		sentinel: Symbol{Name: reservedLambda},
	})
}
