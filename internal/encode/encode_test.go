package encode

import (
	"testing"

	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

type nullResolver struct{ pc int64 }

func (r nullResolver) Here() (int64, bool) { return r.pc, true }
func (r nullResolver) ResolveLabel(name string) (int64, bool, bool) {
	if name == "TARGET" {
		return 0x1010, true, true
	}
	return 0, false, false
}

func ctx(pc int64) *Context {
	return &Context{Resolver: nullResolver{pc: pc}, Mode: term.Full, PC: pc, CPU: style.Z80}
}

func reg(k Kind, name string) Operand { return Operand{Kind: k, Reg: name} }

func imm(v int64) Operand {
	return Operand{Kind: KindImm, Expr: []term.Term{term.Number(term.Pos{}, v, term.Dec, 1)}}
}

func indexed(prefix byte, disp int64) Operand {
	var expr []term.Term
	if disp != 0 {
		expr = []term.Term{term.Number(term.Pos{}, disp, term.Dec, 1)}
	}
	return Operand{Kind: KindIndexed, Index: prefix, Expr: expr}
}

func checkEncode(t *testing.T, mnemonic string, ops []Operand, c *Context, want []byte) {
	t.Helper()
	got, err := Encode(mnemonic, ops, c)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", mnemonic, err)
	}
	if len(got) != len(want) {
		t.Fatalf("%s: got % X, want % X", mnemonic, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s: got % X, want % X", mnemonic, got, want)
		}
	}
}

func TestZeroOperand(t *testing.T) {
	checkEncode(t, "NOP", nil, ctx(0), []byte{0x00})
	checkEncode(t, "HALT", nil, ctx(0), []byte{0x76})
	checkEncode(t, "RETN", nil, ctx(0), []byte{0xED, 0x45})
	checkEncode(t, "LDIR", nil, ctx(0), []byte{0xED, 0xB0})
}

func TestLDRegToReg(t *testing.T) {
	checkEncode(t, "LD", []Operand{reg(KindReg8, "A"), reg(KindReg8, "B")}, ctx(0), []byte{0x78})
	checkEncode(t, "LD", []Operand{reg(KindReg8, "B"), reg(KindReg8, "C")}, ctx(0), []byte{0x41})
}

func TestLDImmediate(t *testing.T) {
	checkEncode(t, "LD", []Operand{reg(KindReg8, "A"), imm(0x20)}, ctx(0), []byte{0x3E, 0x20})
}

func TestLDIndexed(t *testing.T) {
	checkEncode(t, "LD", []Operand{reg(KindReg8, "A"), indexed(0xDD, 5)}, ctx(0), []byte{0xDD, 0x7E, 0x05})
}

func TestLDSpecialA(t *testing.T) {
	checkEncode(t, "LD", []Operand{reg(KindReg8, "A"), Operand{Kind: KindIndReg, Reg: "(BC)"}}, ctx(0), []byte{0x0A})
	checkEncode(t, "LD", []Operand{Operand{Kind: KindIR, Reg: "I"}, reg(KindReg8, "A")}, ctx(0), []byte{0xED, 0x47})
}

func TestALUImmediate(t *testing.T) {
	checkEncode(t, "AND", []Operand{imm(0x0F)}, ctx(0), []byte{0xE6, 0x0F})
	checkEncode(t, "ADD", []Operand{reg(KindReg8, "A"), reg(KindReg8, "B")}, ctx(0), []byte{0x80})
}

func TestBitOps(t *testing.T) {
	bit := func(n int64) Operand {
		return Operand{Kind: KindImm, Expr: []term.Term{term.Number(term.Pos{}, n, term.Dec, 1)}}
	}
	checkEncode(t, "BIT", []Operand{bit(7), reg(KindReg8, "A")}, ctx(0), []byte{0xCB, 0x7F})
	checkEncode(t, "SET", []Operand{bit(0), reg(KindIndHL, "(HL)")}, ctx(0), []byte{0xCB, 0xC6})
}

func TestJrRelative(t *testing.T) {
	target := Operand{Kind: KindImm, Expr: []term.Term{term.Label(term.Pos{}, "TARGET"), term.Oper(term.Pos{}, term.OpComma)}}
	c := ctx(0x1000)
	checkEncode(t, "JR", []Operand{target}, c, []byte{0x18, 0x0E}) // 0x1010-(0x1000+2)=0x0E
}

func TestRetConditional(t *testing.T) {
	checkEncode(t, "RET", []Operand{reg(KindCond, "Z")}, ctx(0), []byte{0xC8})
}

func TestIN0RejectsF(t *testing.T) {
	c := ctx(0)
	c.CPU = style.Z180
	_, err := Encode("IN0", []Operand{reg(KindReg8, "F"), Operand{Kind: KindIndAddr, Expr: []term.Term{term.Number(term.Pos{}, 1, term.Dec, 1)}}}, c)
	if err == nil {
		t.Fatal("expected IN0 F,(n) to be rejected")
	}
}

func TestEightyEightyMOV(t *testing.T) {
	c := ctx(0)
	c.CPU = style.I8080
	checkEncode(t, "MOV", []Operand{reg(KindReg8, "A"), reg(KindReg8, "M")}, c, []byte{0x7E})
}

func TestEightyEightyMVIToMemory(t *testing.T) {
	c := ctx(0)
	c.CPU = style.I8080
	checkEncode(t, "MVI", []Operand{reg(KindReg8, "M"), imm(0x42)}, c, []byte{0x36, 0x42})
}

func TestEightyEightyINRMemory(t *testing.T) {
	c := ctx(0)
	c.CPU = style.I8080
	checkEncode(t, "INR", []Operand{reg(KindReg8, "M")}, c, []byte{0x34})
}

func TestEightyEightyMOVMemoryToMemoryRejected(t *testing.T) {
	c := ctx(0)
	c.CPU = style.I8080
	_, err := Encode("MOV", []Operand{reg(KindReg8, "M"), reg(KindReg8, "M")}, c)
	if err == nil {
		t.Fatal("expected MOV M,M to be rejected")
	}
}

func TestEightyEightyADDMemory(t *testing.T) {
	c := ctx(0)
	c.CPU = style.I8080
	checkEncode(t, "ADD", []Operand{reg(KindReg8, "M")}, c, []byte{0x86})
}
