// Package encode implements the instruction encoder: a dispatch table
// keyed by uppercased mnemonic, grouped by operand family (zero-operand,
// 8-bit arithmetic, 16-bit arithmetic, bit ops, control flow, the LD
// matrix), plus the 8080 mnemonic set and the Z180 extensions. Dispatch
// proceeds by the *shape* of the parsed operand (register, indirect,
// indexed, immediate) rather than repeated mnemonic string matching.
package encode

import (
	"fmt"

	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

// Kind tags the syntactic shape of a parsed operand.
type Kind int

const (
	KindNone    Kind = iota
	KindReg8         // A, B, C, D, E, H, L, and the 8080's M
	KindReg16        // BC, DE, HL, SP, AF, IX, IY, PSW
	KindIndHL        // (HL)
	KindIndReg       // (BC), (DE), (SP), (C)
	KindIndexed      // (IX+d) / (IY+d)
	KindIndAddr      // (nnnn) - an absolute address in parens
	KindCond         // NZ, Z, NC, C, PO, PE, P, M and MA aliases HS/LO/MI
	KindImm          // a bare expression: register name didn't match anything
	KindIR           // I or R special registers
)

// Operand is one parsed instruction argument. Expr carries the term
// sequence for anything that must be evaluated (displacement, address,
// immediate value); Reg carries the canonical uppercased register or
// condition mnemonic for register/condition operands.
type Operand struct {
	Kind  Kind
	Reg   string
	Index byte // 0xDD (IX) or 0xFD (IY), for KindIndexed
	Expr  []term.Term
}

// Context carries everything the encoder needs beyond the mnemonic and
// operands: where to evaluate expressions from, which binding-rule
// table to use, the instruction's own address (for JR/DJNZ relative
// targets), and which CPU variant is active.
type Context struct {
	Resolver term.Resolver
	Mode     term.Mode
	Lenient  bool // pass 1: tolerate unresolved labels, fold to 0
	PC       int64
	CPU      style.CPU
	Dialect  style.Dialect
}

// Error reports an encoding failure: a bad operand combination or an
// out-of-range value ("Invalid load instruction", etc).
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func errf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

func (c *Context) evalExpr(terms []term.Term) (int64, bool, error) {
	v, ok, _, err := term.Eval(terms, c.Mode, c.Lenient, c.Resolver)
	if err != nil {
		return 0, false, err
	}
	return v, ok, nil
}
