package formula

import (
	"fmt"
	"regexp"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokRef     // cell or range reference, with optional sheet/external qualifier
	tokName    // bare identifier: function name or named range
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokComma
	tokColon
	tokOp // + - * / ^ & = <> < <= > >=
)

type token struct {
	kind tokenKind
	text string
	ref  *Reference
}

// referencePattern matches an optional external marker, optional sheet
// qualifier, then a cell or cell:cell range, anchored at the start of the
// remaining input.
var referencePattern = regexp.MustCompile(
	`^(?:\[(\d+)\])?(?:(?:'((?:[^']|'')*)'|([A-Za-z_][A-Za-z0-9_.]*))!)?(\$?[A-Za-z]{1,3}\$?[0-9]+)(?::(\$?[A-Za-z]{1,3}\$?[0-9]+))?`,
)

// namedRangePattern matches a bare name (function/named-range identifier),
// used once referencePattern has failed to match.
var namedRangePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*`)

var numberPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`)

// lexer tokenizes a formula string (without the leading '=').
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\n') {
		l.pos++
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()

	if l.pos >= len(l.src) {
		return token{kind: tokEOF}, nil
	}

	rest := l.src[l.pos:]
	c := rest[0]

	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "("}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")"}, nil
	case c == '{':
		l.pos++
		return token{kind: tokLBrace, text: "{"}, nil
	case c == '}':
		l.pos++
		return token{kind: tokRBrace, text: "}"}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, text: ","}, nil
	case c == '"':
		return l.lexString()
	}

	if loc := referencePattern.FindStringSubmatchIndex(rest); loc != nil {
		return l.lexReference(rest, loc)
	}

	if m := numberPattern.FindString(rest); m != "" {
		l.pos += len(m)
		return token{kind: tokNumber, text: m}, nil
	}

	if op, n := lexOperator(rest); op != "" {
		l.pos += n
		return token{kind: tokOp, text: op}, nil
	}

	if c == ':' {
		l.pos++
		return token{kind: tokColon, text: ":"}, nil
	}

	if m := namedRangePattern.FindString(rest); m != "" {
		afterName := rest[len(m):]
		if strings.HasPrefix(afterName, "[") {
			return l.lexTableRef(m, afterName)
		}

		l.pos += len(m)

		return token{kind: tokName, text: m}, nil
	}

	return token{}, fmt.Errorf("formula: unexpected character %q at offset %d", c, l.pos)
}

func lexOperator(rest string) (string, int) {
	twoChar := []string{"<>", "<=", ">="}
	for _, op := range twoChar {
		if strings.HasPrefix(rest, op) {
			return op, len(op)
		}
	}

	oneChar := "+-*/^&=<>"
	if strings.IndexByte(oneChar, rest[0]) >= 0 {
		return string(rest[0]), 1
	}

	return "", 0
}

func (l *lexer) lexString() (token, error) {
	rest := l.src[l.pos:]

	i := 1
	var b strings.Builder

	for i < len(rest) {
		if rest[i] == '"' {
			if i+1 < len(rest) && rest[i+1] == '"' {
				b.WriteByte('"')
				i += 2
				continue
			}

			l.pos += i + 1

			return token{kind: tokString, text: b.String()}, nil
		}

		b.WriteByte(rest[i])
		i++
	}

	return token{}, fmt.Errorf("formula: unterminated string literal")
}

func (l *lexer) lexReference(rest string, loc []int) (token, error) {
	full := rest[loc[0]:loc[1]]

	// Table references: NAME immediately followed by '[' with no '!' match
	// consumed; detect separately since referencePattern never matches
	// bracket syntax.
	ref := &Reference{Kind: RefCell}

	if loc[2] != -1 {
		var extIdx int
		fmt.Sscanf(rest[loc[2]:loc[3]], "%d", &extIdx)
		ref.Kind = RefExternal
		ref.External = extIdx
	}

	switch {
	case loc[4] != -1:
		ref.Sheet = strings.ReplaceAll(rest[loc[4]:loc[5]], "''", "'")
		ref.SheetQuoted = true
	case loc[6] != -1:
		ref.Sheet = rest[loc[6]:loc[7]]
	}

	startText := rest[loc[8]:loc[9]]

	start, err := parseCellRef(startText)
	if err != nil {
		return token{}, err
	}

	ref.Start = start

	if loc[10] != -1 {
		endText := rest[loc[10]:loc[11]]

		end, err := parseCellRef(endText)
		if err != nil {
			return token{}, err
		}

		ref.End = end
		ref.Kind = rangeKindPreserving(ref.Kind)
	}

	l.pos += len(full)

	return token{kind: tokRef, text: full, ref: ref}, nil
}

// lexTableRef scans "Name[...]" (no nested brackets supported, matching
// Excel's one-level structured reference syntax) into a single RefTable
// token.
func (l *lexer) lexTableRef(name, afterName string) (token, error) {
	closeIdx := strings.IndexByte(afterName, ']')
	if closeIdx == -1 {
		return token{}, fmt.Errorf("formula: unterminated table reference %q", name)
	}

	full := name + afterName[:closeIdx+1]
	l.pos += len(full)

	return token{
		kind: tokRef,
		text: full,
		ref:  &Reference{Kind: RefTable, Name: full},
	}, nil
}

func rangeKindPreserving(k ReferenceKind) ReferenceKind {
	if k == RefExternal {
		return RefExternal
	}

	return RefRange
}
