// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sbml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownOperator indicates a MathML operator outside the supported
// set. The set is deliberately minimal; extending it with guessed
// semantics is not safe, so this is a fatal, document-level fault.
var ErrUnknownOperator = errors.New("sbml: unknown operator in formula tree")

// ErrNoFormula indicates a formula tree whose value is NaN, which stands
// for "no formula"; callers skip the construct it belongs to.
var ErrNoFormula = errors.New("sbml: node has no formula")

// opStrings maps the supported MathML operator element names to their
// infix spelling.
var opStrings = map[string]string{
	"times":  "*",
	"plus":   "+",
	"minus":  "-",
	"divide": "/",
}

// MathNode is a raw MathML element, decoded generically so the tree can
// be walked without committing to a schema. Raw holds the element's
// inner XML; two-part cn literals need it because the decoder
// concatenates the chardata on both sides of <sep/>.
type MathNode struct {
	XMLName  xml.Name
	Type     string     `xml:"type,attr"`
	Children []MathNode `xml:",any"`
	Text     string     `xml:",chardata"`
	Raw      string     `xml:",innerxml"`
}

// ASTNode is one node of an operator tree: either a named reference
// (a leaf, or a function application when it has children), an operator
// node, or a numeric literal.
type ASTNode struct {
	Name     string
	Op       string
	Value    float64
	Children []*ASTNode
}

// AST converts the raw MathML into an operator tree. A <math> wrapper is
// unwrapped to its single child; <lambda> constructs are handled by
// LambdaAST instead and are rejected here.
func (m *MathNode) AST() (*ASTNode, error) {
	if m == nil {
		return nil, ErrNoFormula
	}
	node := m
	if node.XMLName.Local == "math" {
		elems := node.elements()
		if len(elems) != 1 {
			return nil, fmt.Errorf("sbml: math element with %d children", len(elems))
		}
		node = elems[0]
	}
	return buildAST(node)
}

// LambdaAST splits a function definition's MathML lambda into its bound
// argument names and body operator tree.
func (m *MathNode) LambdaAST() (args []string, body *ASTNode, err error) {
	if m == nil {
		return nil, nil, ErrNoFormula
	}
	node := m
	if node.XMLName.Local == "math" {
		elems := node.elements()
		if len(elems) != 1 {
			return nil, nil, fmt.Errorf("sbml: math element with %d children", len(elems))
		}
		node = elems[0]
	}
	if node.XMLName.Local != "lambda" {
		return nil, nil, fmt.Errorf("sbml: function definition body is %q, want lambda", node.XMLName.Local)
	}
	elems := node.elements()
	if len(elems) == 0 {
		return nil, nil, ErrNoFormula
	}
	for _, child := range elems[:len(elems)-1] {
		if child.XMLName.Local != "bvar" {
			return nil, nil, fmt.Errorf("sbml: unexpected %q in lambda argument list", child.XMLName.Local)
		}
		inner := child.elements()
		if len(inner) != 1 || inner[0].XMLName.Local != "ci" {
			return nil, nil, fmt.Errorf("sbml: malformed bvar in lambda")
		}
		args = append(args, strings.TrimSpace(inner[0].Text))
	}
	body, err = buildAST(elems[len(elems)-1])
	if err != nil {
		return nil, nil, err
	}
	return args, body, nil
}

// elements returns the node's element children. chardata-only entries
// produced by the generic decoder are skipped.
func (m *MathNode) elements() []*MathNode {
	out := make([]*MathNode, 0, len(m.Children))
	for i := range m.Children {
		if m.Children[i].XMLName.Local != "" {
			out = append(out, &m.Children[i])
		}
	}
	return out
}

func buildAST(m *MathNode) (*ASTNode, error) {
	switch m.XMLName.Local {
	case "ci", "csymbol":
		return &ASTNode{Name: strings.TrimSpace(m.Text), Value: math.NaN()}, nil
	case "cn":
		return numberLiteral(m)
	case "apply":
		elems := m.elements()
		if len(elems) == 0 {
			return nil, fmt.Errorf("sbml: empty apply element")
		}
		head, rest := elems[0], elems[1:]
		node := &ASTNode{Value: math.NaN()}
		if head.XMLName.Local == "ci" {
			// Function application: the head names a user-defined function.
			node.Name = strings.TrimSpace(head.Text)
		} else {
			node.Op = head.XMLName.Local
		}
		for _, child := range rest {
			sub, err := buildAST(child)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, sub)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("%w: element %q", ErrUnknownOperator, m.XMLName.Local)
	}
}

// numberLiteral parses a cn element. The e-notation and rational forms
// carry two numbers around a <sep/> child (mantissa and exponent, or
// numerator and denominator); everything else is a plain float.
func numberLiteral(m *MathNode) (*ASTNode, error) {
	switch m.Type {
	case "e-notation", "rational":
		first, second, err := sepParts(m.Raw)
		if err != nil {
			return nil, fmt.Errorf("sbml: cn type %q: %w", m.Type, err)
		}
		if m.Type == "rational" {
			return &ASTNode{Value: first / second}, nil
		}
		return &ASTNode{Value: first * math.Pow(10, second)}, nil
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return &ASTNode{Value: math.NaN()}, nil
	}
	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("sbml: invalid numeric literal %q: %w", text, err)
	}
	return &ASTNode{Value: val}, nil
}

// sepParts splits a cn element's raw content around its <sep/> child and
// parses both sides.
func sepParts(raw string) (first, second float64, err error) {
	i := strings.Index(raw, "<sep")
	if i < 0 {
		return 0, 0, errors.New("missing <sep/>")
	}
	rest := raw[i:]
	j := strings.IndexByte(rest, '>')
	if j < 0 {
		return 0, 0, errors.New("malformed <sep/>")
	}
	// Tolerate the expanded <sep></sep> form.
	tail := strings.TrimSpace(rest[j+1:])
	tail = strings.TrimPrefix(tail, "</sep>")

	first, err = parseLiteral(raw[:i])
	if err != nil {
		return 0, 0, err
	}
	second, err = parseLiteral(tail)
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}

func parseLiteral(s string) (float64, error) {
	s = strings.TrimSpace(s)
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric literal %q: %w", s, err)
	}
	return val, nil
}

// FormulaString reconstructs infix formula text from an operator tree.
// A node that carries a name takes priority over any operator check: a
// named leaf renders as the name itself and a named interior node as a
// call. Operator nodes must use one of {times, plus, minus, divide} with
// exactly two children; anything else is a fatal ErrUnknownOperator.
// A bare NaN literal returns ErrNoFormula.
func FormulaString(n *ASTNode) (string, error) {
	if n == nil {
		return "", ErrNoFormula
	}
	if n.Name != "" {
		if len(n.Children) == 0 {
			return n.Name, nil
		}
		args := make([]string, len(n.Children))
		for i, child := range n.Children {
			s, err := FormulaString(child)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")", nil
	}
	if n.Op != "" {
		opStr, ok := opStrings[n.Op]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownOperator, n.Op)
		}
		if len(n.Children) != 2 {
			return "", fmt.Errorf("sbml: operator %q has %d children, want 2", n.Op, len(n.Children))
		}
		left, err := FormulaString(n.Children[0])
		if err != nil {
			return "", err
		}
		right, err := FormulaString(n.Children[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, opStr, right), nil
	}
	if math.IsNaN(n.Value) {
		return "", ErrNoFormula
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64), nil
}
