package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAsm(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.asm")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSucceedsOnCleanSource(t *testing.T) {
	src := writeAsm(t, "ORG 100h\nADD A,B\nEND\n")
	bin := filepath.Join(t.TempDir(), "out.bin")
	code := run([]string{"--style", "M80", "--binary", bin, src})
	if code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	got, err := os.ReadFile(bin)
	if err != nil {
		t.Fatalf("reading output binary: %v", err)
	}
	if string(got) != string([]byte{0x80}) {
		t.Errorf("binary = % X, want [80]", got)
	}
}

func TestRunFailsOnAssemblyError(t *testing.T) {
	src := writeAsm(t, "BOGUSOP A,B\nEND\n")
	code := run([]string{"--style", "M80", src})
	if code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
}

func TestRunRejectsMissingStyle(t *testing.T) {
	src := writeAsm(t, "END\n")
	code := run([]string{src})
	if code != 2 {
		t.Errorf("run() = %d, want 2 (missing --style)", code)
	}
}

func TestRunRejectsUnknownCPU(t *testing.T) {
	src := writeAsm(t, "END\n")
	code := run([]string{"--style", "M80", "--cpu-type", "6502", src})
	if code != 2 {
		t.Errorf("run() = %d, want 2 (unknown --cpu-type)", code)
	}
}

func TestRunRejectsNoSourceFiles(t *testing.T) {
	code := run([]string{"--style", "M80"})
	if code != 2 {
		t.Errorf("run() = %d, want 2 (no source files)", code)
	}
}

func TestRunRejectsBadFillValue(t *testing.T) {
	src := writeAsm(t, "END\n")
	code := run([]string{"--style", "M80", "--fill", "notanumber", src})
	if code != 2 {
		t.Errorf("run() = %d, want 2 (bad --fill)", code)
	}
}

func TestRunRejectsReformatWithoutOutputPath(t *testing.T) {
	src := writeAsm(t, "END\n")
	code := run([]string{"--style", "M80", "--reformat", "ZASM", src})
	if code != 2 {
		t.Errorf("run() = %d, want 2 (--reformat without --reformat-out)", code)
	}
}

func TestRunAcceptsRepeatableDefineFlags(t *testing.T) {
	src := writeAsm(t, "ORG 100h\nIFDEF FOO\nDB 1\nELSE\nDB 2\nENDIF\nEND\n")
	bin := filepath.Join(t.TempDir(), "out.bin")
	code := run([]string{"--style", "M80", "--binary", bin, "--define", "FOO=1", src})
	if code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	got, err := os.ReadFile(bin)
	if err != nil {
		t.Fatalf("reading output binary: %v", err)
	}
	if string(got) != string([]byte{1}) {
		t.Errorf("binary = % X, want [01] (FOO should be defined)", got)
	}
}

func TestRunLabcaseOverrideAffectsSymbolFolding(t *testing.T) {
	src := writeAsm(t, "ORG 100h\nFoo EQU 1\nDB FOO\nEND\n")
	bin := filepath.Join(t.TempDir(), "out.bin")
	code := run([]string{"--style", "ZASM", "--labcase", "off", "--binary", bin, src})
	if code != 0 {
		t.Fatalf("run() = %d, want 0 (case-insensitive lookup of Foo/FOO should succeed)", code)
	}
	got, err := os.ReadFile(bin)
	if err != nil {
		t.Fatalf("reading output binary: %v", err)
	}
	if string(got) != string([]byte{1}) {
		t.Errorf("binary = % X, want [01]", got)
	}
}
