// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mathexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// tokenType identifies a lexical token class.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenNumber
	tokenIdent
	tokenOp
	tokenLParen
	tokenRParen
	tokenComma
	tokenLambda
)

type token struct {
	typ tokenType
	lit string
	pos int
}

// lexer splits a formula string into tokens.
type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{typ: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{typ: tokenLParen, lit: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{typ: tokenRParen, lit: ")", pos: start}, nil
	case c == ',':
		l.pos++
		return token{typ: tokenComma, lit: ",", pos: start}, nil
	case strings.ContainsRune("+-*/^", rune(c)):
		l.pos++
		return token{typ: tokenOp, lit: string(c), pos: start}, nil
	case c >= '0' && c <= '9' || c == '.':
		for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
			l.pos++
		}
		// Scientific notation: 1.5e-3.
		if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
			mark := l.pos
			l.pos++
			if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
				l.pos++
			}
			if l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
					l.pos++
				}
			} else {
				l.pos = mark
			}
		}
		return token{typ: tokenNumber, lit: l.input[start:l.pos], pos: start}, nil
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		lit := l.input[start:l.pos]
		if lit == reservedLambda {
			return token{typ: tokenLambda, lit: lit, pos: start}, nil
		}
		return token{typ: tokenIdent, lit: lit, pos: start}, nil
	default:
		return token{}, fmt.Errorf("unexpected character %q at offset %d", c, start)
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || unicode.IsLetter(rune(c)) }
func isIdentPart(c byte) bool  { return c == '_' || unicode.IsLetter(rune(c)) || isDigit(c) }

// parser is a precedence-climbing parser over the token stream.
type parser struct {
	lex   *lexer
	cur   token
	funcs map[string]*Lambda
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// Parse parses an infix formula string into an expression tree. Identifiers
// become Symbols unless funcs maps them to a Lambda, in which case the call
// is expanded inline; calls to unknown function names are kept opaque.
// The keyword "lambda" is reserved and rejected (see RemapReserved).
func Parse(src string, funcs map[string]*Lambda) (Expr, error) {
	p := &parser{lex: &lexer{input: src}, funcs: funcs}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.cur.typ != tokenEOF {
		return nil, fmt.Errorf("unexpected token %q at offset %d", p.cur.lit, p.cur.pos)
	}
	return expr, nil
}

// parseExpr parses binary operator chains at or above minPrec.
func (p *parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.typ == tokenOp {
		op := Op(p.cur.lit[0])
		prec := op.precedence()
		if prec < minPrec {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		// Power is right-associative, the rest left-associative.
		nextMin := prec + 1
		if op == OpPow {
			nextMin = prec
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	switch {
	case p.cur.typ == tokenOp && p.cur.lit == "-":
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// Unary minus is kept structural as 0 - x rather than folded.
		return Binary{Op: OpSub, Left: Number{Value: 0}, Right: operand}, nil
	case p.cur.typ == tokenOp && p.cur.lit == "+":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.typ {
	case tokenNumber:
		val, err := strconv.ParseFloat(p.cur.lit, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at offset %d", p.cur.lit, p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Number{Value: val}, nil
	case tokenIdent:
		name := p.cur.lit
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.typ != tokenLParen {
			return Symbol{Name: name}, nil
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if fn, ok := p.funcs[name]; ok {
			return fn.Apply(args)
		}
		return Call{Name: name, Args: args}, nil
	case tokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.cur.typ != tokenRParen {
			return nil, fmt.Errorf("missing closing parenthesis at offset %d", p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr, nil
	case tokenLambda:
		return nil, fmt.Errorf("reserved word %q at offset %d; remap identifiers with RemapReserved before parsing", p.cur.lit, p.cur.pos)
	case tokenEOF:
		return nil, fmt.Errorf("unexpected end of formula")
	default:
		return nil, fmt.Errorf("unexpected token %q at offset %d", p.cur.lit, p.cur.pos)
	}
}

// parseArgs parses a parenthesized, comma-separated argument list. The
// current token is the opening parenthesis.
func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var args []Expr
	if p.cur.typ == tokenRParen {
		return args, p.advance()
	}
	for {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch p.cur.typ {
		case tokenComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokenRParen:
			return args, p.advance()
		default:
			return nil, fmt.Errorf("expected , or ) at offset %d", p.cur.pos)
		}
	}
}
