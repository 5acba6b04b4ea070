package term

import "errors"

// Resolver supplies the symbol-environment lookups the evaluator needs:
// the current PC (for '$'/here) and label values (for identifiers).
type Resolver interface {
	// Here returns the current program counter. known is false only if
	// the caller has no PC context at all (e.g. evaluating a macro body
	// outside of code generation).
	Here() (value int64, known bool)
	// ResolveLabel looks up a label by its already-scope-qualified name.
	// isAddress reports whether the label names a code/data location
	// (used to decide operand byte width downstream).
	ResolveLabel(name string) (value int64, known bool, isAddress bool)
}

// EvalError is returned for an undefined label or unknown PC met outside
// of lenient mode and for a mismatched parenthesis found at a ')' or ','.
// Division by zero and a negative shift count return the operator
// table's own error value instead.
type EvalError struct {
	Pos Pos
	Msg string
}

func (e *EvalError) Error() string { return e.Msg }

// Eval folds a term sequence (as produced by Parser.Parse) to a signed
// integer using a shunting-yard pass over a value stack and an operator
// stack. mode selects the Full or Simple binding-rule table.
//
// When lenient is true (pass 1), an unresolved label folds silently to 0
// and evaluation continues; the returned ok is false so the caller knows
// the result isn't final. When lenient is false (pass 2, inside an
// enabled block), an unresolved label is a hard error.
func Eval(terms []Term, mode Mode, lenient bool, res Resolver) (value int64, ok bool, isAddress bool, err error) {
	var values []int64
	var addrs []bool
	var ops []Op

	push := func(v int64, addr bool) {
		values = append(values, v)
		addrs = append(addrs, addr)
	}

	apply := func(op Op) error {
		data := &opTable[op]
		if data.children == 2 {
			if len(values) < 2 {
				return errors.New("expression evaluation error")
			}
			b, bAddr := values[len(values)-1], addrs[len(addrs)-1]
			values, addrs = values[:len(values)-1], addrs[:len(addrs)-1]
			a, aAddr := values[len(values)-1], addrs[len(addrs)-1]
			values, addrs = values[:len(values)-1], addrs[:len(addrs)-1]
			v, everr := data.eval(a, b)
			if everr != nil {
				return everr
			}
			push(v, aAddr || bAddr)
			return nil
		}
		if len(values) < 1 {
			return errors.New("expression evaluation error")
		}
		a, aAddr := values[len(values)-1], addrs[len(addrs)-1]
		values, addrs = values[:len(values)-1], addrs[:len(addrs)-1]
		v, everr := data.eval(a, 0)
		if everr != nil {
			return everr
		}
		if op == OpLow || op == OpHigh {
			aAddr = false
		}
		push(v, aAddr)
		return nil
	}

	allResolved := true

	for _, t := range terms {
		switch t.Kind {
		case KindNumber:
			push(t.Num, false)

		case KindString:
			push(foldString(t.Str), false)

		case KindHere:
			v, known := res.Here()
			if !known {
				if !lenient {
					return 0, false, false, &EvalError{t.Pos, "unable to evaluate expression"}
				}
				allResolved = false
				v = 0
			}
			push(v, true)

		case KindLabel:
			v, known, isAddr := res.ResolveLabel(t.Label)
			if !known {
				if !lenient {
					return 0, false, false, &EvalError{t.Pos, "undefined label: " + t.Label}
				}
				allResolved = false
				v = 0
			}
			push(v, isAddr)

		case KindOp:
			switch t.Op {
			case OpLParen:
				ops = append(ops, t.Op)
			case OpRParen:
				matched := false
				for len(ops) > 0 {
					op := ops[len(ops)-1]
					ops = ops[:len(ops)-1]
					if op == OpLParen {
						matched = true
						break
					}
					if err := apply(op); err != nil {
						return 0, false, false, err
					}
				}
				if !matched {
					return 0, false, false, &EvalError{t.Pos, "mismatched parentheses"}
				}
			case OpComma:
				for len(ops) > 0 {
					op := ops[len(ops)-1]
					ops = ops[:len(ops)-1]
					if op == OpLParen {
						return 0, false, false, &EvalError{t.Pos, "mismatched parentheses"}
					}
					if err := apply(op); err != nil {
						return 0, false, false, err
					}
				}
			default:
				for len(ops) > 0 && t.Op.collapses(ops[len(ops)-1], mode) {
					top := ops[len(ops)-1]
					ops = ops[:len(ops)-1]
					if err := apply(top); err != nil {
						return 0, false, false, err
					}
				}
				ops = append(ops, t.Op)
			}
		}
	}

	for len(ops) > 0 {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if op == OpLParen {
			return 0, false, false, errors.New("mismatched parentheses")
		}
		if err := apply(op); err != nil {
			return 0, false, false, err
		}
	}

	if len(values) != 1 {
		return 0, false, false, errors.New("expression evaluation error")
	}
	return values[0], allResolved, addrs[0], nil
}

func foldString(s string) int64 {
	switch len(s) {
	case 0:
		return 0
	case 1:
		return int64(s[0])
	default:
		return int64(s[len(s)-2])*256 + int64(s[len(s)-1])
	}
}

// IsBareString reports whether terms represents exactly one string
// literal (used by data pseudo-ops, which emit a string's raw bytes
// rather than folding it to a packed numeric value).
func IsBareString(terms []Term) (s string, ok bool) {
	if len(terms) == 2 && terms[0].Kind == KindString && terms[1].Kind == KindOp && terms[1].Op == OpComma {
		return terms[0].Str, true
	}
	return "", false
}

//
// Range wrappers
//

// RangeU16 checks the 16-bit unsigned-or-signed range (-0x8000..0xFFFF)
// used for most 16-bit operands.
func RangeU16(v int64) (uint16, bool) {
	if v >= -0x8000 && v <= 0xFFFF {
		return uint16(v), true
	}
	return 0, false
}

// RangeS8 checks the signed 8-bit range (-0x80..0x7F) used for relative
// jump displacements and IX/IY index offsets.
func RangeS8(v int64) (byte, bool) {
	if v >= -0x80 && v <= 0x7F {
		return byte(v), true
	}
	return 0, false
}

// RangeU8 checks a plain unsigned 8-bit range (0..0xFF).
func RangeU8(v int64) (byte, bool) {
	if v >= 0 && v <= 0xFF {
		return byte(v), true
	}
	return 0, false
}

// RangeConst8 checks the 8-bit constant range (-0x80..0xFF), with the
// exception that 0xFF00..0xFFFF folds to its low byte (matching the
// historical assembler's handling of sign-extended byte constants).
func RangeConst8(v int64) (byte, bool) {
	if v >= 0xFF00 && v <= 0xFFFF {
		return byte(v), true
	}
	if v >= -0x80 && v <= 0xFF {
		return byte(v), true
	}
	return 0, false
}
