package encode

import (
	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

// EncodeZ80 dispatches a Z80 (or Z180-superset) mnemonic with its parsed
// operands to a byte sequence.
func EncodeZ80(mnemonic string, ops []Operand, ctx *Context) ([]byte, error) {
	m := mnemonic

	if len(ops) == 0 {
		if b, ok := op0[m]; ok {
			return b, nil
		}
		if ctx.CPU == style.Z180 {
			if b, ok := op180[m]; ok && m == "SLP" {
				return []byte{0xED, b}, nil
			}
		}
	}

	switch m {
	case "LD":
		if len(ops) != 2 {
			return nil, errf("LD requires two operands")
		}
		return encodeLD(ops[0], ops[1], ctx)

	case "AND", "OR", "XOR", "SUB", "CP", "CMP":
		return encode8080StyleALU1(m, ops, ctx)

	case "ADC", "ADD", "SBC":
		return encodeALUOrArith16(m, ops, ctx)

	case "INC", "DEC":
		return encodeIncDec(m, ops, ctx)

	case "BIT", "RES", "SET":
		return encodeBitOp(m, ops, ctx)

	case "PUSH", "POP":
		return encodePushPop(m, ops, ctx)

	case "CALL", "JP":
		return encodeCallJp(m, ops, ctx)

	case "JR":
		return encodeJr(ops, ctx)

	case "DJNZ":
		return encodeDjnz(ops, ctx)

	case "RET":
		return encodeRet(ops, ctx)

	case "RST":
		return encodeRst(ops, ctx)

	case "EX":
		return encodeEx(ops, ctx)

	case "IM":
		return encodeIm(ops, ctx)

	case "RL", "RLC", "RR", "RRC", "SLA", "SRA", "SRL":
		return encodeShift(m, ops, ctx)

	case "IN":
		return encodeIn(ops, ctx)

	case "OUT":
		return encodeOut(ops, ctx)
	}

	if ctx.CPU == style.Z180 {
		if b, err, matched := encodeZ180(m, ops, ctx); matched {
			return b, err
		}
	}

	return nil, errf("unknown instruction: %s", m)
}

func indexedDisp(ctx *Context, op Operand) (byte, error) {
	if len(op.Expr) == 0 {
		return 0, nil
	}
	v, _, err := ctx.evalExpr(op.Expr)
	if err != nil {
		return 0, err
	}
	d, ok := term.RangeS8(v)
	if !ok {
		return 0, errf("index displacement out of range")
	}
	return d, nil
}

func immByte(ctx *Context, op Operand) (byte, error) {
	v, _, err := ctx.evalExpr(op.Expr)
	if err != nil {
		return 0, err
	}
	b, ok := term.RangeConst8(v)
	if !ok {
		return 0, errf("immediate out of 8-bit range")
	}
	return b, nil
}

func immWord(ctx *Context, op Operand) (uint16, error) {
	v, _, err := ctx.evalExpr(op.Expr)
	if err != nil {
		return 0, err
	}
	w, ok := term.RangeU16(v)
	if !ok {
		return 0, errf("immediate out of 16-bit range")
	}
	return w, nil
}

func encode8080StyleALU1(m string, ops []Operand, ctx *Context) ([]byte, error) {
	base := opA1[m]
	if len(ops) == 1 {
		return encodeALUOperand(base, ops[0], ctx)
	}
	if len(ops) == 2 && ops[0].Kind == KindReg8 && ops[0].Reg == "A" {
		return encodeALUOperand(base, ops[1], ctx)
	}
	return nil, errf("invalid operand for %s", m)
}

func encodeALUOperand(base byte, op Operand, ctx *Context) ([]byte, error) {
	switch op.Kind {
	case KindReg8, KindIndHL:
		if r, ok := reg8X[op.Reg]; ok {
			return []byte{base | r}, nil
		}
	case KindIndexed:
		d, err := indexedDisp(ctx, op)
		if err != nil {
			return nil, err
		}
		return []byte{op.Index, base | 6, d}, nil
	case KindImm, KindIndAddr:
		b, err := immByte(ctx, op)
		if err != nil {
			return nil, err
		}
		// Immediate ALU opcode is the register-form base with bit 6
		// set and the (HL) register field (6) added: the 0xC6 family
		// sits 0x46 above the register-form base.
		return []byte{base + 0x46, b}, nil
	}
	return nil, errf("invalid ALU operand")
}

func encodeALUOrArith16(m string, ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) == 2 && ops[0].Kind == KindReg16 {
		dst := ops[0].Reg
		switch dst {
		case "HL":
			if m == "ADD" {
				if r, ok := reg16[ops[1].Reg]; ok {
					return []byte{0x09 | r}, nil
				}
			} else if ops[1].Kind == KindReg16 {
				if r, ok := reg16[ops[1].Reg]; ok {
					base := byte(0x4A)
					if m == "SBC" {
						base = 0x42
					}
					return []byte{0xED, base | r}, nil
				}
			}
		case "IX", "IY":
			prefix := regI[dst]
			if m == "ADD" && ops[1].Kind == KindReg16 {
				src := ops[1].Reg
				if src == "IX" || src == "IY" {
					if src != dst {
						return nil, errf("cannot mix IX/IY in ADD")
					}
					return []byte{prefix, 0x09 | 0x20}, nil
				}
				if r, ok := reg16[src]; ok {
					return []byte{prefix, 0x09 | r}, nil
				}
			}
		}
		return nil, errf("invalid 16-bit arithmetic operands for %s", m)
	}
	return encode8080StyleALU2(m, ops, ctx)
}

func encode8080StyleALU2(m string, ops []Operand, ctx *Context) ([]byte, error) {
	base, ok := opA2[m]
	if !ok {
		return nil, errf("unknown instruction: %s", m)
	}
	if len(ops) == 2 && ops[0].Kind == KindReg8 && ops[0].Reg == "A" {
		return encodeALUOperand(base, ops[1], ctx)
	}
	return nil, errf("invalid operand for %s", m)
}

func encodeIncDec(m string, ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 1 {
		return nil, errf("%s requires one operand", m)
	}
	op := ops[0]
	bases := opD[m]
	switch op.Kind {
	case KindReg8, KindIndHL:
		if r, ok := reg8X[op.Reg]; ok {
			return []byte{bases[0] | (r << 3)}, nil
		}
	case KindIndexed:
		d, err := indexedDisp(ctx, op)
		if err != nil {
			return nil, err
		}
		return []byte{op.Index, bases[0] | (6 << 3), d}, nil
	case KindReg16:
		if r, ok := reg16[op.Reg]; ok {
			if m == "INC" {
				return []byte{0x03 | r}, nil
			}
			return []byte{0x0B | r}, nil
		}
		if op.Reg == "IX" || op.Reg == "IY" {
			prefix := regI[op.Reg]
			if m == "INC" {
				return []byte{prefix, 0x23}, nil
			}
			return []byte{prefix, 0x2B}, nil
		}
	}
	return nil, errf("invalid operand for %s", m)
}

func encodeBitOp(m string, ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 2 {
		return nil, errf("%s requires two operands", m)
	}
	n, _, err := ctx.evalExpr(ops[0].Expr)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > 7 {
		return nil, errf("bit index out of range")
	}
	base := opB2[m] | byte(n<<3)
	target := ops[1]
	switch target.Kind {
	case KindReg8, KindIndHL:
		if r, ok := reg8X[target.Reg]; ok {
			return []byte{0xCB, base | r}, nil
		}
	case KindIndexed:
		d, err := indexedDisp(ctx, target)
		if err != nil {
			return nil, err
		}
		return []byte{target.Index, 0xCB, d, base | 6}, nil
	}
	return nil, errf("invalid operand for %s", m)
}

func encodePushPop(m string, ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 1 {
		return nil, errf("%s requires one operand", m)
	}
	op := ops[0]
	base := opP[m]
	if r, ok := reg16P[op.Reg]; ok {
		return []byte{base | r}, nil
	}
	if op.Reg == "IX" || op.Reg == "IY" {
		return []byte{regI[op.Reg], base | 0x20}, nil
	}
	return nil, errf("invalid operand for %s", m)
}

func encodeCallJp(m string, ops []Operand, ctx *Context) ([]byte, error) {
	bases := opC[m]
	if len(ops) == 1 {
		if m == "JP" && ops[0].Kind == KindIndHL {
			return []byte{0xE9}, nil
		}
		if m == "JP" && ops[0].Kind == KindIndexed {
			return []byte{ops[0].Index, 0xE9}, nil
		}
		w, err := immWord(ctx, ops[0])
		if err != nil {
			return nil, err
		}
		return []byte{bases[0], byte(w), byte(w >> 8)}, nil
	}
	if len(ops) == 2 && ops[0].Kind == KindCond {
		c, ok := cond[ops[0].Reg]
		if !ok {
			return nil, errf("unknown condition: %s", ops[0].Reg)
		}
		w, err := immWord(ctx, ops[1])
		if err != nil {
			return nil, err
		}
		return []byte{bases[1] | c, byte(w), byte(w >> 8)}, nil
	}
	return nil, errf("invalid operands for %s", m)
}

func encodeJr(ops []Operand, ctx *Context) ([]byte, error) {
	bases := opC["JR"]
	var target []term.Term
	var condCode byte
	haveCond := false
	if len(ops) == 2 {
		c, ok := cond[ops[0].Reg]
		if !ok || c > 0x18 {
			return nil, errf("JR only supports NZ/Z/NC/C")
		}
		condCode, haveCond = c, true
		target = ops[1].Expr
	} else if len(ops) == 1 {
		target = ops[0].Expr
	} else {
		return nil, errf("JR requires one or two operands")
	}
	return encodeRelative(target, ctx, func() byte {
		if haveCond {
			return bases[1] | condCode
		}
		return bases[0]
	}())
}

func encodeDjnz(ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 1 {
		return nil, errf("DJNZ requires one operand")
	}
	return encodeRelative(ops[0].Expr, ctx, 0x10)
}

func encodeRelative(target []term.Term, ctx *Context, opcode byte) ([]byte, error) {
	v, resolved, err := ctx.evalExpr(target)
	if err != nil {
		return nil, err
	}
	if !resolved && ctx.Lenient {
		return []byte{opcode, 0}, nil
	}
	rel := v - (ctx.PC + 2)
	d, ok := term.RangeS8(rel)
	if !ok {
		return nil, errf("relative jump out of range")
	}
	return []byte{opcode, d}, nil
}

func encodeRet(ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) == 0 {
		return []byte{0xC9}, nil
	}
	if len(ops) == 1 && ops[0].Kind == KindCond {
		c, ok := cond[ops[0].Reg]
		if !ok {
			return nil, errf("unknown condition: %s", ops[0].Reg)
		}
		return []byte{0xC0 | c}, nil
	}
	return nil, errf("invalid operand for RET")
}

func encodeRst(ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 1 {
		return nil, errf("RST requires one operand")
	}
	v, _, err := ctx.evalExpr(ops[0].Expr)
	if err != nil {
		return nil, err
	}
	if v < 0 || v > 0x38 || v%8 != 0 {
		return nil, errf("RST target must be a multiple of 8 in 0..0x38")
	}
	return []byte{0xC7 | byte(v)}, nil
}

func encodeEx(ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 2 {
		return nil, errf("EX requires two operands")
	}
	a, b := ops[0], ops[1]
	switch {
	case a.Kind == KindReg16 && a.Reg == "DE" && b.Kind == KindReg16 && b.Reg == "HL":
		return []byte{0xEB}, nil
	case a.Kind == KindReg16 && a.Reg == "AF" && b.Kind == KindReg16 && b.Reg == "AF":
		return []byte{0x08}, nil
	case a.Kind == KindIndReg && a.Reg == "(SP)" && b.Kind == KindReg16 && b.Reg == "HL":
		return []byte{0xE3}, nil
	case a.Kind == KindIndReg && a.Reg == "(SP)" && b.Kind == KindReg16 && (b.Reg == "IX" || b.Reg == "IY"):
		return []byte{regI[b.Reg], 0xE3}, nil
	}
	return nil, errf("invalid operands for EX")
}

func encodeIm(ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 1 {
		return nil, errf("IM requires one operand")
	}
	v, _, err := ctx.evalExpr(ops[0].Expr)
	if err != nil {
		return nil, err
	}
	switch v {
	case 0:
		return []byte{0xED, 0x46}, nil
	case 1:
		return []byte{0xED, 0x56}, nil
	case 2:
		return []byte{0xED, 0x5E}, nil
	}
	return nil, errf("IM mode must be 0, 1 or 2")
}

func encodeShift(m string, ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 1 {
		return nil, errf("%s requires one operand", m)
	}
	base := opR[m]
	op := ops[0]
	switch op.Kind {
	case KindReg8, KindIndHL:
		if r, ok := reg8X[op.Reg]; ok {
			return []byte{0xCB, base | r}, nil
		}
	case KindIndexed:
		d, err := indexedDisp(ctx, op)
		if err != nil {
			return nil, err
		}
		return []byte{op.Index, 0xCB, d, base | 6}, nil
	}
	return nil, errf("invalid operand for %s", m)
}

func encodeIn(ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 2 {
		return nil, errf("IN requires two operands")
	}
	dst, src := ops[0], ops[1]
	if dst.Kind == KindReg8 && dst.Reg == "A" && src.Kind == KindIndAddr {
		b, err := immByte(ctx, src)
		if err != nil {
			return nil, err
		}
		return []byte{0xDB, b}, nil
	}
	if dst.Kind == KindReg8 && src.Kind == KindIndReg && src.Reg == "(C)" {
		if r, ok := reg8F[dst.Reg]; ok {
			if dst.Reg == "F" {
				return nil, errf("IN F,(C) is not a valid instruction")
			}
			return []byte{0xED, 0x40 | (r << 3)}, nil
		}
	}
	return nil, errf("invalid operands for IN")
}

func encodeOut(ops []Operand, ctx *Context) ([]byte, error) {
	if len(ops) != 2 {
		return nil, errf("OUT requires two operands")
	}
	dst, src := ops[0], ops[1]
	if dst.Kind == KindIndAddr && src.Kind == KindReg8 && src.Reg == "A" {
		b, err := immByte(ctx, dst)
		if err != nil {
			return nil, err
		}
		return []byte{0xD3, b}, nil
	}
	if dst.Kind == KindIndReg && dst.Reg == "(C)" && src.Kind == KindReg8 {
		if r, ok := reg8[src.Reg]; ok {
			return []byte{0xED, 0x41 | (r << 3)}, nil
		}
	}
	return nil, errf("invalid operands for OUT")
}
