package symtab

import (
	"testing"

	"github.com/mkern/zasm/internal/style"
)

func TestDefineAndResolveLocal(t *testing.T) {
	tab := New(true, false)
	if err := tab.DefineLabel("LOOP", false, true, 0x8000, style.Code, "a.asm", 10, 1); err != nil {
		t.Fatal(err)
	}
	l, ok := tab.Resolve("LOOP")
	if !ok || l.Value != 0x8000 {
		t.Fatalf("got %v, %v", l, ok)
	}
}

func TestCaseFoldDefault(t *testing.T) {
	tab := New(false, false)
	tab.DefineLabel("Loop", false, true, 0x100, style.Code, "a.asm", 1, 1)
	if _, ok := tab.Resolve("LOOP"); !ok {
		t.Fatal("expected case-insensitive resolution to find the label")
	}
}

func TestCaseSensitiveDefault(t *testing.T) {
	tab := New(true, false)
	tab.DefineLabel("Loop", false, true, 0x100, style.Code, "a.asm", 1, 1)
	if _, ok := tab.Resolve("LOOP"); ok {
		t.Fatal("expected case-sensitive table not to fold case")
	}
}

func TestDuplicateDefinitionPass1(t *testing.T) {
	tab := New(true, false)
	tab.DefineLabel("X", false, true, 1, style.Code, "a.asm", 1, 1)
	err := tab.DefineLabel("X", false, true, 2, style.Code, "a.asm", 5, 1)
	if err == nil {
		t.Fatal("expected a duplicate-definition error")
	}
}

func TestUnchangedRedefinitionPass1Allowed(t *testing.T) {
	tab := New(true, false) // non-strict: same value twice is tolerated
	tab.DefineLabel("X", false, true, 1, style.Code, "a.asm", 1, 1)
	err := tab.DefineLabel("X", false, true, 1, style.Code, "a.asm", 5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPhaseErrorPass2(t *testing.T) {
	tab := New(true, false)
	tab.DefineLabel("X", false, true, 1, style.Code, "a.asm", 1, 1)
	err := tab.DefineLabel("X", false, true, 2, style.Code, "a.asm", 1, 2)
	if err == nil {
		t.Fatal("expected a phase error")
	}
}

func TestPublicPreDeclarationPromoted(t *testing.T) {
	tab := New(true, false)
	tab.DeclarePublic("ENTRY", "a.asm", 1)
	if err := tab.DefineLabel("ENTRY", true, true, 0x100, style.Code, "a.asm", 20, 1); err != nil {
		t.Fatal(err)
	}
	l, ok := tab.Resolve("ENTRY")
	if !ok || !l.Defined || l.Value != 0x100 {
		t.Fatalf("got %v, %v", l, ok)
	}
}

func TestNewFileClearsLocals(t *testing.T) {
	tab := New(true, false)
	tab.DefineLabel("LOCAL", false, true, 1, style.Code, "a.asm", 1, 1)
	tab.NewFile()
	if _, ok := tab.Resolve("LOCAL"); ok {
		t.Fatal("expected locals to be cleared at a file boundary")
	}
}

func TestLocalsShadowPublics(t *testing.T) {
	tab := New(true, false)
	tab.DefineLabel("X", true, true, 1, style.Code, "a.asm", 1, 1)
	tab.DefineLabel("X", false, true, 2, style.Code, "b.asm", 1, 1)
	l, _ := tab.Resolve("X")
	if l.Value != 2 {
		t.Fatalf("expected local to shadow public, got %d", l.Value)
	}
}
