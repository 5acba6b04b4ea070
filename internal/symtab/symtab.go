// Package symtab implements the two-scope symbol environment described in
// a process-wide `publics` map and a per-source-file `locals`
// map, with phase-aware redefinition checking (duplicate definition in
// pass 1, phase error in pass 2).
package symtab

import (
	"fmt"
	"strings"

	"github.com/mkern/zasm/internal/style"
)

// Label is a named value with a defining source location, as specified
// canonical name (original case preserved), segment tag, value,
// and defining file/line.
type Label struct {
	Name    string // original-case name, for listing/symbol-file output
	Segment style.Segment
	Value   int64
	Defined bool // false until a value has been assigned
	Public  bool
	File    string
	Line    int
}

// Table is the two-scope symbol store: `publics` persists across every
// source file in the assembly job; `locals` is cleared by NewFile at each
// source-file boundary.
type Table struct {
	CaseSensitive bool
	Strict        bool // duplicate definitions with an unchanged value are still errors

	publics map[string]*Label
	locals  map[string]*Label
}

// New creates an empty symbol table.
func New(caseSensitive, strict bool) *Table {
	return &Table{
		CaseSensitive: caseSensitive,
		Strict:        strict,
		publics:       make(map[string]*Label),
		locals:        make(map[string]*Label),
	}
}

// NewFile clears the per-file local scope, as required between input
// source files in a multi-file assembly job.
func (t *Table) NewFile() {
	t.locals = make(map[string]*Label)
}

func (t *Table) fold(name string) string {
	if t.CaseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// DefineLabel defines (or redefines) a label. hasValue/value come from the
// caller, since only the caller (the driver, via its own PC/LC state) knows
// what "the current PC" means. pass is 1 or 2.
//
// Redefinition policy:
//   - pass 1: a second definition is a "duplicate definition" error if the
//     table is in strict mode, or if the new value differs from the first.
//   - pass 2: a value that differs from the one recorded in pass 1 is a
//     "phase error".
func (t *Table) DefineLabel(name string, public bool, hasValue bool, value int64, seg style.Segment, file string, line int, pass int) error {
	key := t.fold(name)
	scope := t.locals
	if public {
		scope = t.publics
	}

	existing, found := scope[key]
	if !found {
		// A public label may have been pre-declared (EXTRN/PUBLIC) with
		// an undefined value; promote it in place rather than treating
		// this as a fresh definition.
		if public {
			if pre, ok := t.publics[key]; ok && !pre.Defined {
				existing, found = pre, true
			}
		}
	}

	switch pass {
	case 1:
		if found && existing.Defined {
			if t.Strict || !hasValue || existing.Value != value {
				return fmt.Errorf("duplicate definition: %s", name)
			}
		}
		lbl := &Label{Name: name, Segment: seg, Public: public, File: file, Line: line}
		if hasValue {
			lbl.Value, lbl.Defined = value, true
		}
		scope[key] = lbl
		return nil

	case 2:
		if !found {
			// First sight of this label in pass 2 (e.g. a local declared
			// inside a conditional block disabled in pass 1): accept it.
			scope[key] = &Label{Name: name, Segment: seg, Public: public, File: file, Line: line, Value: value, Defined: hasValue}
			return nil
		}
		if hasValue && existing.Defined && existing.Value != value {
			return fmt.Errorf("phase error: %s", name)
		}
		if hasValue {
			existing.Value, existing.Defined = value, true
		}
		return nil

	default:
		return fmt.Errorf("invalid pass number %d", pass)
	}
}

// DeclarePublic marks name as public, inserting it with an undefined
// value if it is not already present. Used for EXTRN/PUBLIC/ENTRY.
func (t *Table) DeclarePublic(name, file string, line int) {
	key := t.fold(name)
	if _, found := t.publics[key]; !found {
		t.publics[key] = &Label{Name: name, Public: true, File: file, Line: line}
	}
}

// Resolve looks up name: locals of the current file first, then publics.
func (t *Table) Resolve(name string) (*Label, bool) {
	key := t.fold(name)
	if l, ok := t.locals[key]; ok {
		return l, true
	}
	if l, ok := t.publics[key]; ok {
		return l, true
	}
	return nil, false
}

// Publics returns every public label, for symbol-file and listing output.
func (t *Table) Publics() []*Label { return sortedValues(t.publics) }

// Locals returns every local label currently in scope.
func (t *Table) Locals() []*Label { return sortedValues(t.locals) }

func sortedValues(m map[string]*Label) []*Label {
	out := make([]*Label, 0, len(m))
	for _, l := range m {
		out = append(out, l)
	}
	// Stable, deterministic ordering by name so that symbol-file and
	// listing output is byte-identical across runs.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Name > out[j].Name; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
