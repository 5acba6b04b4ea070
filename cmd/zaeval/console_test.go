package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runConsole(t *testing.T, input string) string {
	t.Helper()
	c := New()
	var out bytes.Buffer
	c.RunCommands(strings.NewReader(input), &out, false)
	return out.String()
}

func TestConsoleEvalCommand(t *testing.T) {
	out := runConsole(t, "eval 1+2\n")
	if !strings.Contains(out, "value: 3") {
		t.Errorf("output %q missing evaluated value", out)
	}
}

func TestConsoleEncodeCommand(t *testing.T) {
	out := runConsole(t, "encode NOP\n")
	if !strings.Contains(out, "00") || !strings.Contains(out, "(1 byte)") {
		t.Errorf("output %q missing NOP encoding", out)
	}
}

func TestConsoleEncodeUsesCurrentCPUSetting(t *testing.T) {
	out := runConsole(t, "set cputype 8080\nencode MOV A,B\n")
	if !strings.Contains(out, "78") {
		t.Errorf("output %q missing 8080 MOV A,B encoding", out)
	}
}

func TestConsoleSetDisplaysVariablesWithoutArgs(t *testing.T) {
	out := runConsole(t, "set\n")
	if !strings.Contains(out, "Style") || !strings.Contains(out, "CPUType") {
		t.Errorf("output %q missing settings listing", out)
	}
}

func TestConsoleSetStyleSwitchesDialect(t *testing.T) {
	out := runConsole(t, "set style m80\neval 0FFh\n")
	if !strings.Contains(out, "value: 255") {
		t.Errorf("output %q should parse 0FFh as 255 once style is M80", out)
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	out := runConsole(t, "bogus\n")
	if !strings.Contains(out, "Command not found.") {
		t.Errorf("output %q missing not-found message", out)
	}
}

func TestConsoleSymbolLoadAndFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.sym")
	if err := os.WriteFile(path, []byte("FOO:\tEQU\t0064h\t; A foo.asm:1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := runConsole(t, "symbol load "+path+"\nsymbol find FOO\n")
	if !strings.Contains(out, "loaded 1 symbols") {
		t.Errorf("output %q missing load confirmation", out)
	}
	if !strings.Contains(out, "FOO") {
		t.Errorf("output %q missing found symbol", out)
	}
}

func TestConsoleSymbolFindMissing(t *testing.T) {
	out := runConsole(t, "symbol find NOPE\n")
	if !strings.Contains(out, `symbol "NOPE" not found`) {
		t.Errorf("output %q missing not-found message", out)
	}
}

func TestConsoleHelpListsCommands(t *testing.T) {
	out := runConsole(t, "help\n")
	for _, want := range []string{"eval", "encode", "symbol", "set", "quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output %q missing %q", out, want)
		}
	}
}

func TestConsoleBlankLineRepeatsLastCommand(t *testing.T) {
	out := runConsole(t, "eval 1+1\n\n")
	if n := strings.Count(out, "value: 2"); n != 2 {
		t.Errorf("got %d occurrences of the eval result, want 2 (original + repeat)", n)
	}
}
