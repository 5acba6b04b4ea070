package reformat

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

func parseArg(t *testing.T, dialect style.Dialect, s string) []term.Term {
	t.Helper()
	var p term.Parser
	p.Dialect = dialect
	terms, _, err := p.Parse(term.NewCursor("t", 1, s), term.AllowParens|term.AllowStrings)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return terms
}

func TestCommitRendersDataDirectiveInTargetDialect(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, style.ZASM, false)
	r.Label("START", true, false)
	r.OpCode("DB")
	r.AddArg("0AAh", parseArg(t, style.M80, "0AAh"))
	r.Comment("comment text")
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"START::", "DEFB", "#0AA", "; comment text"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestCommitBlankLineWhenNothingBuffered(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, style.M80, false)
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if buf.String() != "\n" {
		t.Errorf("got %q, want a single blank line", buf.String())
	}
}

func TestCommitRendersLabelOnlyLineInMA(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, style.MA, false)
	r.Label("LOOP", false, true)
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got, want := buf.String(), ".LOOP\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommitExpandsBorgForZasm(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, style.ZASM, false)
	r.OpCode("BORG")
	r.AddArg("100h", parseArg(t, style.M80, "100h"))
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (LOAD + ORG): %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "LOAD") || !strings.HasPrefix(lines[1], "ORG") {
		t.Errorf("lines = %v, want LOAD then ORG", lines)
	}
}

func TestCommitRendersM80HexWithLeadingZero(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, style.M80, false)
	r.OpCode("DB")
	r.AddArg("0FFh", parseArg(t, style.M80, "0FFh"))
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !strings.Contains(buf.String(), "0FFH") {
		t.Errorf("got %q, want a leading-zero-padded 0FFH literal", buf.String())
	}
}

func TestShouldIncludeDedupesCaseInsensitively(t *testing.T) {
	r := New(&bytes.Buffer{}, style.M80, false)
	if !r.ShouldInclude("LIB.ASM") {
		t.Error("first include of a path should be included")
	}
	if r.ShouldInclude("lib.asm") {
		t.Error("a repeat include (any case) should be skipped without --multi-inc")
	}
}

func TestShouldIncludeAlwaysTrueWithMultiInc(t *testing.T) {
	r := New(&bytes.Buffer{}, style.M80, true)
	r.ShouldInclude("lib.asm")
	if !r.ShouldInclude("lib.asm") {
		t.Error("a repeat include should still be included with --multi-inc")
	}
}
