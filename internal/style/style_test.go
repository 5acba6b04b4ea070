package style

import "testing"

func TestDialectString(t *testing.T) {
	cases := []struct {
		d    Dialect
		want string
	}{
		{MA, "MA"}, {M80, "M80"}, {PASMO, "PASMO"}, {ZASM, "ZASM"}, {Dialect(99), "?"},
	}
	for _, c := range cases {
		if got := c.d.String(); got != c.want {
			t.Errorf("Dialect(%d).String() = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestParseDialect(t *testing.T) {
	cases := []struct {
		text string
		want Dialect
		ok   bool
	}{
		{"ma", MA, true},
		{"M80", M80, true},
		{"pasmo", PASMO, true},
		{"ZASM", ZASM, true},
		{"cpm", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseDialect(c.text)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseDialect(%q) = %v, %v, want %v, %v", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestDialectCaseSensitiveDefault(t *testing.T) {
	if M80.CaseSensitiveDefault() {
		t.Error("M80 should be case-insensitive by default")
	}
	for _, d := range []Dialect{MA, PASMO, ZASM} {
		if !d.CaseSensitiveDefault() {
			t.Errorf("%s should be case-sensitive by default", d)
		}
	}
}

func TestCPUString(t *testing.T) {
	cases := []struct {
		c    CPU
		want string
	}{
		{Z80, "Z80"}, {Z180, "Z180"}, {I8080, "8080"}, {CPU(99), "?"},
	}
	for _, c := range cases {
		if got := c.c.String(); got != c.want {
			t.Errorf("CPU(%d).String() = %q, want %q", c.c, got, c.want)
		}
	}
}

func TestParseCPU(t *testing.T) {
	cases := []struct {
		text string
		want CPU
		ok   bool
	}{
		{"z80", Z80, true},
		{"Z180", Z180, true},
		{"8080", I8080, true},
		{"i8080", I8080, true},
		{"6502", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseCPU(c.text)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseCPU(%q) = %v, %v, want %v, %v", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestSegmentString(t *testing.T) {
	cases := []struct {
		s    Segment
		want string
	}{
		{Absolute, "A"}, {Code, "C"}, {Data, "D"}, {Segment(99), "?"},
	}
	for _, c := range cases {
		if got := c.s.String(); got != c.want {
			t.Errorf("Segment(%d).String() = %q, want %q", c.s, got, c.want)
		}
	}
}
