package term

import (
	"testing"

	"github.com/mkern/zasm/internal/style"
)

type testResolver struct {
	here   int64
	labels map[string]int64
}

func (r testResolver) Here() (int64, bool) { return r.here, true }
func (r testResolver) ResolveLabel(name string) (int64, bool, bool) {
	v, ok := r.labels[name]
	return v, ok, true
}

func evalString(t *testing.T, dialect style.Dialect, mode Mode, s string, res Resolver) (int64, error) {
	t.Helper()
	p := &Parser{Dialect: dialect}
	terms, _, err := p.Parse(NewCursor("t", 1, s), AllowParens|AllowStrings)
	if err != nil {
		return 0, err
	}
	v, _, _, err := Eval(terms, mode, false, res)
	return v, err
}

func TestParseDecimal(t *testing.T) {
	v, err := evalString(t, style.ZASM, Full, "1234", testResolver{})
	if err != nil || v != 1234 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestParseHexSuffix(t *testing.T) {
	v, err := evalString(t, style.M80, Full, "0FFH", testResolver{})
	if err != nil || v != 0xFF {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestParseHexPrefix0x(t *testing.T) {
	v, err := evalString(t, style.ZASM, Full, "0x2A", testResolver{})
	if err != nil || v != 0x2A {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestParseMAAmpersandHex(t *testing.T) {
	v, err := evalString(t, style.MA, Full, "&FF", testResolver{})
	if err != nil || v != 0xFF {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestParseMAAmpersandIsAndWhenNotUnary(t *testing.T) {
	v, err := evalString(t, style.MA, Full, "15 & 9", testResolver{})
	if err != nil || v != (15&9) {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestParsePasmoHereVsHex(t *testing.T) {
	res := testResolver{here: 0x4000}
	v, err := evalString(t, style.PASMO, Full, "$", res)
	if err != nil || v != 0x4000 {
		t.Fatalf("got %#x, %v", v, err)
	}
	v, err = evalString(t, style.PASMO, Full, "$1A", res)
	if err != nil || v != 0x1A {
		t.Fatalf("got %#x, %v", v, err)
	}
}

func TestParseHashHex(t *testing.T) {
	v, err := evalString(t, style.ZASM, Full, "#2A", testResolver{})
	if err != nil || v != 0x2A {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestParseQuotedHex(t *testing.T) {
	v, err := evalString(t, style.ZASM, Full, "X'2A'", testResolver{})
	if err != nil || v != 0x2A {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestFullPrecedenceMulBeforeAdd(t *testing.T) {
	v, err := evalString(t, style.ZASM, Full, "2+3*4", testResolver{})
	if err != nil || v != 14 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestSimplePrecedenceIsLeftToRight(t *testing.T) {
	v, err := evalString(t, style.MA, Simple, "2+3*4", testResolver{})
	if err != nil || v != 20 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestParens(t *testing.T) {
	v, err := evalString(t, style.ZASM, Full, "(2+3)*4", testResolver{})
	if err != nil || v != 20 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestUnaryMinus(t *testing.T) {
	v, err := evalString(t, style.ZASM, Full, "-5+10", testResolver{})
	if err != nil || v != 5 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestLabelResolution(t *testing.T) {
	res := testResolver{labels: map[string]int64{"FOO": 0x8000}}
	v, err := evalString(t, style.ZASM, Full, "FOO+1", res)
	if err != nil || v != 0x8001 {
		t.Fatalf("got %#x, %v", v, err)
	}
}

func TestUndefinedLabelLenientFoldsToZero(t *testing.T) {
	p := &Parser{Dialect: style.ZASM}
	terms, _, err := p.Parse(NewCursor("t", 1, "UNDEF+1"), AllowParens|AllowStrings)
	if err != nil {
		t.Fatal(err)
	}
	v, ok, _, err := Eval(terms, Full, true, testResolver{})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected ok=false for an unresolved label")
	}
	if v != 1 {
		t.Fatalf("got %d, want 1 (0+1)", v)
	}
}

func TestUndefinedLabelStrictIsError(t *testing.T) {
	p := &Parser{Dialect: style.ZASM}
	terms, _, err := p.Parse(NewCursor("t", 1, "UNDEF+1"), AllowParens|AllowStrings)
	if err != nil {
		t.Fatal(err)
	}
	_, _, _, err = Eval(terms, Full, false, testResolver{})
	if err == nil {
		t.Fatal("expected an error for an undefined label in strict mode")
	}
}

func TestStringLiteralFoldsToPackedBytes(t *testing.T) {
	v, err := evalString(t, style.ZASM, Full, `"AB"`, testResolver{})
	if err != nil || v != int64('A')*256+int64('B') {
		t.Fatalf("got %#x, %v", v, err)
	}
}

func TestRangeWrappers(t *testing.T) {
	if _, ok := RangeS8(-0x81); ok {
		t.Fatal("expected -0x81 to be out of signed-8 range")
	}
	if b, ok := RangeS8(-1); !ok || b != 0xFF {
		t.Fatalf("got %#x, %v", b, ok)
	}
	if b, ok := RangeConst8(0xFF80); !ok || b != 0x80 {
		t.Fatalf("got %#x, %v", b, ok)
	}
	if _, ok := RangeConst8(0x100); ok {
		t.Fatal("expected 0x100 to be out of constant-8 range")
	}
	if b, ok := RangeConst8(-0x80); !ok || b != 0x80 {
		t.Fatalf("-0x80 should be the inclusive lower bound: got %#x, %v", b, ok)
	}
	if _, ok := RangeConst8(-0x81); ok {
		t.Fatal("expected -0x81 to be out of constant-8 range")
	}
}

func TestMAAscStringOnlyAppliesInMADialect(t *testing.T) {
	p := &Parser{Dialect: style.MA}
	terms, _, err := p.Parse(NewCursor("t", 1, `+ASC"AB"`), AllowParens|AllowStrings)
	if err != nil {
		t.Fatalf("MA: %v", err)
	}
	if len(terms) != 2 || terms[0].Kind != KindString || terms[0].Str != "AB" || terms[1].Kind != KindOp || terms[1].Op != OpComma {
		t.Fatalf("MA: got %#v, want a single KindString term \"AB\" followed by the comma marker", terms)
	}

	p = &Parser{Dialect: style.M80}
	terms, _, err = p.Parse(NewCursor("t", 1, `+ASC"AB"`), AllowParens|AllowStrings)
	if err == nil && len(terms) == 2 && terms[0].Kind == KindString && terms[0].Str == "AB" {
		t.Fatal("M80 should not treat +ASC\"...\" as the MA string-literal form")
	}
}
