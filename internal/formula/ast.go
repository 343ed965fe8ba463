// Package formula implements a minimal Excel-formula parser, AST, and a
// reference-shifting canonicalizer, grounded on the ASTNode/ReferenceType
// shape of the prior Rust prototype's src/formula/pattern.rs
// (formualizer_parse) and reimplemented from scratch in Go, since no
// equivalent parser package exists in the available tooling. The
// excelize-backed recalc engine (internal/recalc) reuses this parser to
// extract per-cell dependency references.
package formula

// Kind identifies the shape of a Node.
type Kind int

const (
	KindLiteral Kind = iota
	KindReference
	KindUnary
	KindBinary
	KindFunction
	KindArray
)

// ReferenceKind distinguishes the five reference shapes the shifter must
// reason about.
type ReferenceKind int

const (
	RefCell ReferenceKind = iota
	RefRange
	RefNamedRange
	RefTable
	RefExternal
)

// CellRef is one endpoint of a Cell or Range reference: a 1-based column
// and row plus their absolute ($) flags.
type CellRef struct {
	Col    int
	Row    int
	ColAbs bool
	RowAbs bool
}

// Reference is a parsed cell/range/named-range/table/external reference.
type Reference struct {
	Kind ReferenceKind

	// Sheet is the (optionally quoted-in-source) sheet qualifier, empty if
	// unqualified.
	Sheet string
	// SheetQuoted records whether the source used 'Sheet Name' quoting, so
	// canonicalization preserves it exactly.
	SheetQuoted bool

	// External is the workbook index for RefExternal (the "[1]" prefix).
	External int

	// Start/End hold the parsed coordinates for RefCell (End unused) and
	// RefRange.
	Start CellRef
	End   CellRef

	// Name carries the literal text for RefNamedRange (the name itself)
	// and RefTable (e.g. "Table1[Column1]"), reproduced verbatim since
	// these never shift.
	Name string
}

// Node is one AST node. Only the fields relevant to Kind are populated.
type Node struct {
	Kind Kind

	// KindLiteral
	Literal string

	// KindReference
	Ref *Reference

	// KindUnary
	UnaryOp string
	Operand *Node

	// KindBinary
	BinaryOp string
	Left     *Node
	Right    *Node

	// KindFunction
	FuncName string
	Args     []*Node

	// KindArray
	Rows [][]*Node
}
