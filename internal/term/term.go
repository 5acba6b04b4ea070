// Package term implements the expression subsystem shared by the driver,
// the instruction encoder and the reformatter: a dialect-aware tokenizer
// that emits a flat postfix-ready Term sequence (the expression
// parser), and a shunting-yard evaluator that folds that sequence to a
// signed integer under one of two binding-rule tables.
package term

// Pos records where a term came from, for error reporting.
type Pos struct {
	File   string
	Line   int
	Column int
}

// Kind identifies the payload a Term carries.
type Kind byte

const (
	KindNumber Kind = iota
	KindString
	KindLabel
	KindHere // '$' used as "current PC", distinct from a Here label
	KindOp
)

// Base records which numeric syntax produced a KindNumber term, so the
// reformatter can re-render the same literal in a different dialect's
// notation.
type Base int

const (
	NoBase Base = 0
	Bin    Base = 2
	Oct    Base = 8
	Dec    Base = 10
	Hex    Base = 16
)

// Term is the tagged record described in the data model: a binary/decimal
// /hex/octal literal, a string, a label reference, the "here" pseudo-value,
// or an operator (including the parenthesis and comma pseudo-operators
// used only during parsing).
type Term struct {
	Kind  Kind
	Pos   Pos
	Num   int64  // KindNumber
	Base  Base   // KindNumber: the literal syntax used, for reformatting
	Width int    // KindNumber: digits/bytes implied by the literal's width
	Str   string // KindString
	Label string // KindLabel
	Op    Op     // KindOp
}

func Number(pos Pos, v int64, base Base, width int) Term {
	return Term{Kind: KindNumber, Pos: pos, Num: v, Base: base, Width: width}
}

func String(pos Pos, s string) Term {
	return Term{Kind: KindString, Pos: pos, Str: s}
}

func Label(pos Pos, name string) Term {
	return Term{Kind: KindLabel, Pos: pos, Label: name}
}

func Here(pos Pos) Term {
	return Term{Kind: KindHere, Pos: pos}
}

func Oper(pos Pos, op Op) Term {
	return Term{Kind: KindOp, Pos: pos, Op: op}
}
