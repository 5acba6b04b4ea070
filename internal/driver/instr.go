package driver

import (
	"github.com/mkern/zasm/internal/encode"
	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

// condFirstMnemonics take an optional condition code as their first
// operand (CALL cc,nn / JP cc,nn / JR cc,n) or as their only operand
// (RET cc).
var condFirstMnemonics = map[string]bool{"CALL": true, "JP": true, "JR": true, "RET": true}

// EncodeInstruction splits an argument cursor into operands and encodes
// mnemonic against them, bridging the driver's line-level text to the
// encoder's typed Operand model.
func EncodeInstruction(mnemonic string, args term.Cursor, ctx *encode.Context, dialect style.Dialect, tp *term.Parser) ([]byte, error) {
	parts := SplitArgs(args)
	preferCond := condFirstMnemonics[mnemonic]

	ops := make([]encode.Operand, 0, len(parts))
	for i, p := range parts {
		op, err := ParseOperand(p, dialect, tp, preferCond && i == 0)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return encode.Encode(mnemonic, ops, ctx)
}
