package listing

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestHeaderWritesInvocationAndPass(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Header("zasm foo.asm", "/work", 2, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	out := buf.String()
	if !strings.Contains(out, "zasm foo.asm") {
		t.Errorf("header missing invocation: %q", out)
	}
	if !strings.Contains(out, "pass 2") {
		t.Errorf("header missing pass number: %q", out)
	}
	if !strings.Contains(out, "/work") {
		t.Errorf("header missing cwd: %q", out)
	}
}

func TestLineDumpsBytesAndText(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Line(0, 0x100, []byte{0x01, 0x02}, "DB 1,2", nil)

	out := buf.String()
	if !strings.Contains(out, "0100") {
		t.Errorf("missing address: %q", out)
	}
	if !strings.Contains(out, "01 02") {
		t.Errorf("missing byte dump: %q", out)
	}
	if !strings.Contains(out, "DB 1,2") {
		t.Errorf("missing source text: %q", out)
	}
}

func TestLineShowsLoadAddressColumn(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)
	l.Line(0x200, 0x100, []byte{0xAA}, "DB 0AAh", nil)

	out := buf.String()
	if !strings.Contains(out, "0200") || !strings.Contains(out, "0100") {
		t.Errorf("missing load/program address columns: %q", out)
	}
}

func TestLineWrapsLongByteDump(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Line(0, 0x100, []byte{1, 2, 3, 4, 5, 6, 7, 8}, "DB 1,2,3,4,5,6,7,8", nil)

	lines := strings.Count(buf.String(), "\n")
	if lines != 2 {
		t.Errorf("got %d lines, want 2 (one dump row + one continuation): %q", lines, buf.String())
	}
	if !strings.Contains(buf.String(), "07 08") {
		t.Errorf("continuation row missing trailing bytes: %q", buf.String())
	}
}

func TestLineAppendsErrorRows(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Line(0, 0x100, nil, "BOGUS", []string{"unknown instruction: BOGUS"})

	out := buf.String()
	if !strings.Contains(out, "*** ERROR: unknown instruction: BOGUS") {
		t.Errorf("missing error row: %q", out)
	}
}
