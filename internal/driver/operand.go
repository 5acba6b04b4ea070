package driver

import (
	"strings"

	"github.com/mkern/zasm/internal/encode"
	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

var reg8Names = map[string]bool{"A": true, "B": true, "C": true, "D": true, "E": true, "H": true, "L": true}
var reg16Names = map[string]bool{"BC": true, "DE": true, "HL": true, "SP": true, "AF": true, "IX": true, "IY": true, "PSW": true}
var irNames = map[string]bool{"I": true, "R": true}

// condOnly are condition mnemonics with no conflicting register meaning.
// "C" and "M" are ambiguous (register C / 8080 pseudo-register M vs
// condition C / condition M) and are resolved by the caller's preferCond
// hint, set for the CALL/JP/JR/RET mnemonic family.
var condOnly = map[string]bool{
	"NZ": true, "Z": true, "NC": true, "PO": true, "PE": true, "P": true,
	"HS": true, "LO": true, "MI": true,
}

// ParseOperand classifies one already-comma-split argument into an
// encode.Operand. preferCond resolves the C/M register-vs-condition
// ambiguity in favor of a condition code, for the CALL/JP/JR/RET family.
func ParseOperand(cur term.Cursor, dialect style.Dialect, tp *term.Parser, preferCond bool) (encode.Operand, error) {
	cur = cur.ConsumeWhitespace()
	if cur.IsEmpty() {
		return encode.Operand{}, errEmptyOperand
	}

	if cur.StartsWithChar('(') {
		inner, ok := matchOuterParens(cur)
		if ok {
			return parseIndirect(inner, dialect, tp)
		}
	}

	word, rest := cur.ConsumeWhile(term.IsIdentChar)
	name := strings.ToUpper(word.String())
	if name != "" && rest.ConsumeWhitespace().IsEmpty() {
		switch {
		case irNames[name]:
			return encode.Operand{Kind: encode.KindIR, Reg: name}, nil
		case name == "C" || name == "M":
			if preferCond {
				return encode.Operand{Kind: encode.KindCond, Reg: name}, nil
			}
			return encode.Operand{Kind: encode.KindReg8, Reg: name}, nil
		case condOnly[name]:
			return encode.Operand{Kind: encode.KindCond, Reg: name}, nil
		case reg8Names[name]:
			return encode.Operand{Kind: encode.KindReg8, Reg: name}, nil
		case reg16Names[name]:
			return encode.Operand{Kind: encode.KindReg16, Reg: name}, nil
		}
	}

	terms, _, err := tp.Parse(cur, term.AllowParens|term.AllowStrings)
	if err != nil {
		return encode.Operand{}, err
	}
	return encode.Operand{Kind: encode.KindImm, Expr: terms}, nil
}

var errEmptyOperand = &encode.Error{Msg: "missing operand"}

// matchOuterParens reports whether cur is exactly "(...)" with balanced
// parens, returning the inner cursor.
func matchOuterParens(cur term.Cursor) (term.Cursor, bool) {
	s := cur.String()
	if len(s) < 2 || s[0] != '(' {
		return cur, false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if i != len(s)-1 {
					return cur, false
				}
				return cur.Consume(1).Trunc(i - 1), true
			}
		}
	}
	return cur, false
}

func parseIndirect(inner term.Cursor, dialect style.Dialect, tp *term.Parser) (encode.Operand, error) {
	inner = inner.ConsumeWhitespace()
	word, rest := inner.ConsumeWhile(term.IsIdentChar)
	name := strings.ToUpper(word.String())

	switch name {
	case "HL":
		if rest.ConsumeWhitespace().IsEmpty() {
			return encode.Operand{Kind: encode.KindIndHL, Reg: "(HL)"}, nil
		}
	case "BC":
		if rest.ConsumeWhitespace().IsEmpty() {
			return encode.Operand{Kind: encode.KindIndReg, Reg: "(BC)"}, nil
		}
	case "DE":
		if rest.ConsumeWhitespace().IsEmpty() {
			return encode.Operand{Kind: encode.KindIndReg, Reg: "(DE)"}, nil
		}
	case "SP":
		if rest.ConsumeWhitespace().IsEmpty() {
			return encode.Operand{Kind: encode.KindIndReg, Reg: "(SP)"}, nil
		}
	case "C":
		if rest.ConsumeWhitespace().IsEmpty() {
			return encode.Operand{Kind: encode.KindIndReg, Reg: "(C)"}, nil
		}
	case "IX", "IY":
		prefix := byte(0xDD)
		if name == "IY" {
			prefix = 0xFD
		}
		disp := rest.ConsumeWhitespace()
		if disp.IsEmpty() {
			return encode.Operand{Kind: encode.KindIndexed, Index: prefix}, nil
		}
		// Locate the first '+'/'-' in the remaining text and take
		// everything from there as the displacement expression.
		s := disp.String()
		cutIdx := -1
		for i := 0; i < len(s); i++ {
			if s[i] == '+' || s[i] == '-' {
				cutIdx = i
				break
			}
		}
		if cutIdx < 0 {
			return encode.Operand{Kind: encode.KindIndexed, Index: prefix}, nil
		}
		terms, _, err := tp.Parse(disp, term.AllowParens|term.AllowStrings)
		if err != nil {
			return encode.Operand{}, err
		}
		return encode.Operand{Kind: encode.KindIndexed, Index: prefix, Expr: terms}, nil
	}

	// Not a recognized register form: it's an address expression.
	terms, _, err := tp.Parse(inner, term.AllowParens|term.AllowStrings)
	if err != nil {
		return encode.Operand{}, err
	}
	return encode.Operand{Kind: encode.KindIndAddr, Expr: terms}, nil
}
