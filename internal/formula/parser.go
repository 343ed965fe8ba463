package formula

import (
	"fmt"
	"strings"
)

// Parse parses a formula string into an AST. The leading "=" is optional
// and stripped if present.
func Parse(raw string) (*Node, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "=")

	p := &parser{lex: newLexer(trimmed)}

	if err := p.advance(); err != nil {
		return nil, err
	}

	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("formula: unexpected trailing token %q", p.cur.text)
	}

	return node, nil
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}

	p.cur = t

	return nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.cur.kind != kind {
		return fmt.Errorf("formula: expected %s, got %q", what, p.cur.text)
	}

	return p.advance()
}

var comparisonOps = map[string]bool{"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() (*Node, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}

	for p.cur.kind == tokOp && comparisonOps[p.cur.text] {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}

		left = &Node{Kind: KindBinary, BinaryOp: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseConcat() (*Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for p.cur.kind == tokOp && p.cur.text == "&" {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		left = &Node{Kind: KindBinary, BinaryOp: "&", Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseAdditive() (*Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.cur.kind == tokOp && (p.cur.text == "+" || p.cur.text == "-") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}

		left = &Node{Kind: KindBinary, BinaryOp: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseMultiplicative() (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.cur.kind == tokOp && (p.cur.text == "*" || p.cur.text == "/") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = &Node{Kind: KindBinary, BinaryOp: op, Left: left, Right: right}
	}

	return left, nil
}

// parseUnary handles prefix +/-, which in Excel bind looser than "^"
// (so "-2^2" parses as -(2^2)).
func (p *parser) parseUnary() (*Node, error) {
	if p.cur.kind == tokOp && (p.cur.text == "+" || p.cur.text == "-") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &Node{Kind: KindUnary, UnaryOp: op, Operand: operand}, nil
	}

	return p.parsePower()
}

// parsePower is right-associative: "2^3^2" == 2^(3^2).
func (p *parser) parsePower() (*Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if p.cur.kind == tokOp && p.cur.text == "^" {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &Node{Kind: KindBinary, BinaryOp: "^", Left: left, Right: right}, nil
	}

	return left, nil
}

func (p *parser) parsePrimary() (*Node, error) {
	switch p.cur.kind {
	case tokNumber:
		n := &Node{Kind: KindLiteral, Literal: p.cur.text}

		return n, p.advance()

	case tokString:
		n := &Node{Kind: KindLiteral, Literal: `"` + escapeQuotes(p.cur.text) + `"`}

		return n, p.advance()

	case tokRef:
		n := &Node{Kind: KindReference, Ref: p.cur.ref}

		return n, p.advance()

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}

		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}

		return inner, nil

	case tokLBrace:
		return p.parseArray()

	case tokName:
		return p.parseNameOrCall()

	default:
		return nil, fmt.Errorf("formula: unexpected token %q", p.cur.text)
	}
}

func (p *parser) parseNameOrCall() (*Node, error) {
	name := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.cur.kind != tokLParen {
		return &Node{Kind: KindReference, Ref: &Reference{Kind: RefNamedRange, Name: name}}, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	var args []*Node

	if p.cur.kind != tokRParen {
		for {
			arg, err := p.parseComparison()
			if err != nil {
				return nil, err
			}

			args = append(args, arg)

			if p.cur.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}

				continue
			}

			break
		}
	}

	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}

	return &Node{Kind: KindFunction, FuncName: name, Args: args}, nil
}

func (p *parser) parseArray() (*Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	var rows [][]*Node

	row, err := p.parseArrayRow()
	if err != nil {
		return nil, err
	}

	rows = append(rows, row)

	if err := p.expect(tokRBrace, "}"); err != nil {
		return nil, err
	}

	return &Node{Kind: KindArray, Rows: rows}, nil
}

func (p *parser) parseArrayRow() ([]*Node, error) {
	var row []*Node

	for {
		cell, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		row = append(row, cell)

		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}

			continue
		}

		break
	}

	return row, nil
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
