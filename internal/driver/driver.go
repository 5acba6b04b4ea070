package driver

import (
	"github.com/mkern/zasm/internal/encode"
	"github.com/mkern/zasm/internal/errs"
	"github.com/mkern/zasm/internal/sink"
	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/symtab"
	"github.com/mkern/zasm/internal/term"
)

// Driver holds everything the two-pass assembly loop mutates one line
// at a time: the PC/LC pair per segment, the symbol table, the
// conditional-assembly stack, the active CPU/dialect, and the output
// sinks, across the three independent Absolute/Code/Data segments.
type Driver struct {
	Dialect style.Dialect
	CPU     style.CPU
	Mode    term.Mode

	Sym   *symtab.Table
	Sinks []sink.Sink

	Pass int // 1 or 2
	Fill byte

	// Update lists the directive names (plus the catch-all "ALL") that
	// --update permits to move LC backward and overwrite already-written
	// bytes. Nil/empty means no directive may do so.
	Update map[string]bool

	seg     style.Segment
	pc      [3]int64
	lc      [3]int64
	segBase [3]int64
	segUsed [3]bool

	enable []bool

	tp term.Parser

	Errors []error
	File   string
	Line   int

	entry int64
}

// New creates a driver for one assembly job. caseSensitive selects the
// symbol-table case policy (LABCASE may change it later); the
// binding-rule table is Simple for MA and Full for the other dialects.
func New(dialect style.Dialect, cpu style.CPU, caseSensitive bool) *Driver {
	return NewWithSymtab(dialect, cpu, symtab.New(caseSensitive, false))
}

// NewWithSymtab creates a driver that shares sym with its caller instead
// of starting a fresh table. The pipeline uses this to run pass 2 with
// the same symbol table pass 1 populated, so that DefineLabel's
// pass-2 phase-error check has something to compare against.
func NewWithSymtab(dialect style.Dialect, cpu style.CPU, sym *symtab.Table) *Driver {
	mode := term.Full
	if dialect == style.MA {
		mode = term.Simple
	}
	d := &Driver{
		Dialect: dialect,
		CPU:     cpu,
		Mode:    mode,
		Sym:     sym,
		enable:  []bool{true},
		Fill:    0,
	}
	d.tp.Dialect = dialect
	return d
}

// SetSegBase records the configured base address for a segment
// (--cseg/--dseg); it takes effect the first time the driver switches
// into that segment with ASEG/CSEG/DSEG.
func (d *Driver) SetSegBase(seg style.Segment, addr int64) {
	d.segBase[seg] = addr
}

// SwitchSegment activates seg, initializing its PC/LC to the configured
// segment base the first time it is entered.
func (d *Driver) SwitchSegment(seg style.Segment) {
	d.seg = seg
	if !d.segUsed[seg] {
		d.segUsed[seg] = true
		d.pc[seg] = d.segBase[seg]
		d.lc[seg] = d.segBase[seg]
	}
}

// Here implements term.Resolver.
func (d *Driver) Here() (int64, bool) { return d.pc[d.seg], true }

// ResolveLabel implements term.Resolver.
func (d *Driver) ResolveLabel(name string) (int64, bool, bool) {
	l, ok := d.Sym.Resolve(name)
	if !ok {
		return 0, false, false
	}
	return l.Value, l.Defined, true
}

// Enabled reports whether the current conditional-assembly block is
// active: the effective enable is the top of the stack only.
func (d *Driver) Enabled() bool { return d.enable[len(d.enable)-1] }

func (d *Driver) addError(kind errs.Kind, format string, args ...any) {
	d.Errors = append(d.Errors, errs.New(kind, d.File, d.Line, format, args...))
}

// PC returns the current program counter in the active segment.
func (d *Driver) PC() int64 { return d.pc[d.seg] }

// LC returns the current load counter (actual write address) in the
// active segment.
func (d *Driver) LC() int64 { return d.lc[d.seg] }

// UpdateAllowed reports whether directive (e.g. "ORG", "BORG") is
// permitted by --update to move LC backward and patch already-written
// bytes.
func (d *Driver) UpdateAllowed(directive string) bool {
	return d.Update["ALL"] || d.Update[directive]
}

// SetOrigin sets both PC and LC to addr (a plain ORG/CSEG-at-address).
func (d *Driver) SetOrigin(addr int64) error {
	d.pc[d.seg] = addr
	d.lc[d.seg] = addr
	for _, s := range d.Sinks {
		if err := s.SetAddr(addr, true); err != nil {
			return err
		}
	}
	return nil
}

// SetOffset diverges PC from LC (OFFSET/.PHASE): the source continues to
// see pc at the new value, but bytes still land at the old LC.
func (d *Driver) SetOffset(pc int64) {
	d.pc[d.seg] = pc
}

// Dephase ends a .PHASE block, resuming pc == lc.
func (d *Driver) Dephase() {
	d.pc[d.seg] = d.lc[d.seg]
}

// Emit writes b at the current LC and advances both PC and LC by
// len(b), satisfying the invariant PC[after]-PC[before] ==
// LC[after]-LC[before] == len(bytes).
func (d *Driver) Emit(b []byte) error {
	if d.Pass == 2 {
		for _, s := range d.Sinks {
			if err := s.SetAddr(d.lc[d.seg], true); err != nil {
				return err
			}
			if err := s.Data(b); err != nil {
				return err
			}
		}
	}
	d.pc[d.seg] += int64(len(b))
	d.lc[d.seg] += int64(len(b))
	return nil
}

// Reserve advances PC/LC by n bytes (DS/ZERO/ALIGN). In pass 2 the
// reserved span is written to the sinks as n copies of the fill byte.
func (d *Driver) Reserve(n int64) error {
	if d.Pass == 2 && n > 0 {
		pad := make([]byte, n)
		for i := range pad {
			pad[i] = d.Fill
		}
		return d.Emit(pad)
	}
	d.pc[d.seg] += n
	d.lc[d.seg] += n
	return nil
}

func (d *Driver) encodeContext() *encode.Context {
	return &encode.Context{
		Resolver: d,
		Mode:     d.Mode,
		Lenient:  d.Pass == 1,
		PC:       d.pc[d.seg],
		CPU:      d.CPU,
		Dialect:  d.Dialect,
	}
}

// SetEntry records the program's entry point (END expr), used by the
// Intel-HEX end-of-file record.
func (d *Driver) SetEntry(addr int64) { d.entry = addr }

// Entry returns the recorded entry point.
func (d *Driver) Entry() int64 { return d.entry }

// Close finalizes every output sink.
func (d *Driver) Close() error {
	for _, s := range d.Sinks {
		if err := s.Close(d.entry); err != nil {
			return err
		}
	}
	return nil
}
