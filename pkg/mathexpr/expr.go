// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mathexpr provides symbolic rate-law expressions: a small tree
// representation with parsing, rendering, free-variable extraction, and
// substitution. Expressions are immutable; every operation returns a new
// tree and never rewrites the input. Parsing performs no simplification,
// so the tree mirrors the source text structure.
package mathexpr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Op identifies a binary arithmetic operator.
type Op byte

const (
	OpAdd Op = '+'
	OpSub Op = '-'
	OpMul Op = '*'
	OpDiv Op = '/'
	OpPow Op = '^'
)

// precedence returns the binding strength of an operator. Higher binds tighter.
func (o Op) precedence() int {
	switch o {
	case OpAdd, OpSub:
		return 1
	case OpMul, OpDiv:
		return 2
	case OpPow:
		return 3
	}
	return 0
}

// Expr is a node in a symbolic expression tree. The set of implementations
// is closed: Number, Symbol, Binary, and Call.
type Expr interface {
	// String renders the expression as infix text with minimal parentheses.
	String() string

	isExpr()
}

// Number is a literal numeric leaf. The value may be NaN, which callers
// treat as "no formula".
type Number struct {
	Value float64
}

// Symbol is a free variable leaf referencing a parameter, compartment,
// or species by name.
type Symbol struct {
	Name string
}

// Binary is an interior node applying Op to exactly two children.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
}

// Call is a function application that was not expanded during parsing,
// kept opaque with its arguments.
type Call struct {
	Name string
	Args []Expr
}

func (Number) isExpr() {}
func (Symbol) isExpr() {}
func (Binary) isExpr() {}
func (Call) isExpr()   {}

func (n Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (s Symbol) String() string {
	return s.Name
}

func (b Binary) String() string {
	left := b.Left.String()
	if lb, ok := b.Left.(Binary); ok {
		// Power parses right-associatively, so equal precedence on the
		// left needs parentheses to round-trip.
		if lb.Op.precedence() < b.Op.precedence() ||
			(lb.Op.precedence() == b.Op.precedence() && b.Op == OpPow) {
			left = "(" + left + ")"
		}
	}
	right := b.Right.String()
	if rb, ok := b.Right.(Binary); ok {
		// Subtraction and division parse left-associatively, so equal
		// precedence on the right still needs parentheses.
		if rb.Op.precedence() < b.Op.precedence() ||
			(rb.Op.precedence() == b.Op.precedence() && (b.Op == OpSub || b.Op == OpDiv)) {
			right = "(" + right + ")"
		}
	}
	return fmt.Sprintf("%s %c %s", left, b.Op, right)
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// Variables returns the set of free symbol names appearing in e. A Symbol
// contributes its own name; every other node contributes the union of its
// children. Call names are not variables.
func Variables(e Expr) map[string]bool {
	vars := make(map[string]bool)
	collectVariables(e, vars)
	return vars
}

func collectVariables(e Expr, vars map[string]bool) {
	switch v := e.(type) {
	case Symbol:
		vars[v.Name] = true
	case Number:
	case Binary:
		collectVariables(v.Left, vars)
		collectVariables(v.Right, vars)
	case Call:
		for _, a := range v.Args {
			collectVariables(a, vars)
		}
	default:
		panic(fmt.Sprintf("mathexpr: unknown expression node %T", e))
	}
}

// SortedVariables returns the free symbol names of e in lexical order.
func SortedVariables(e Expr) []string {
	vars := Variables(e)
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Substitute replaces every Symbol whose name appears in rules with the
// corresponding expression. Substitution is simultaneous and single-pass:
// substituted bodies are not scanned again, so rules cannot expand
// against each other.
func Substitute(e Expr, rules map[string]Expr) Expr {
	if len(rules) == 0 {
		return e
	}
	switch v := e.(type) {
	case Symbol:
		if repl, ok := rules[v.Name]; ok {
			return repl
		}
		return v
	case Number:
		return v
	case Binary:
		return Binary{Op: v.Op, Left: Substitute(v.Left, rules), Right: Substitute(v.Right, rules)}
	case Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = Substitute(a, rules)
		}
		return Call{Name: v.Name, Args: args}
	default:
		panic(fmt.Sprintf("mathexpr: unknown expression node %T", e))
	}
}

// Equal reports whether two expressions are structurally identical.
func Equal(a, b Expr) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && (av.Value == bv.Value || (av.Value != av.Value && bv.Value != bv.Value))
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av.Name == bv.Name
	case Binary:
		bv, ok := b.(Binary)
		return ok && av.Op == bv.Op && Equal(av.Left, bv.Left) && Equal(av.Right, bv.Right)
	case Call:
		bv, ok := b.(Call)
		if !ok || av.Name != bv.Name || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Lambda is an n-ary symbolic function: an ordered argument list and a
// body expression over those arguments.
type Lambda struct {
	Params []string
	Body   Expr
}

// Apply substitutes args for the lambda's parameters in its body.
func (l *Lambda) Apply(args []Expr) (Expr, error) {
	if len(args) != len(l.Params) {
		return nil, fmt.Errorf("lambda expects %d argument(s), got %d", len(l.Params), len(args))
	}
	rules := make(map[string]Expr, len(l.Params))
	for i, p := range l.Params {
		rules[p] = args[i]
	}
	return Substitute(l.Body, rules), nil
}

// String renders the lambda using the reserved lambda keyword.
func (l *Lambda) String() string {
	return fmt.Sprintf("lambda(%s: %s)", strings.Join(l.Params, ", "), l.Body.String())
}
