package encode

import "github.com/mkern/zasm/internal/style"

// Encode dispatches mnemonic/operands to the correct per-CPU table
// Dialect selection of mnemonic aliasing (e.g. CMP accepted as
// a typo for CP) happens inside the per-CPU tables themselves, since it
// does not vary by dialect.
func Encode(mnemonic string, ops []Operand, ctx *Context) ([]byte, error) {
	switch ctx.CPU {
	case style.I8080:
		return EncodeI8080(mnemonic, ops, ctx)
	default:
		return EncodeZ80(mnemonic, ops, ctx)
	}
}
