package driver

import (
	"strings"

	"github.com/mkern/zasm/internal/errs"
	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

// Action tells the pipeline what, if anything, it must do beyond
// advancing to the next line: loop back for REPT, read another file for
// INCLUDE/INSERT, or stop the job at END.
type Action int

const (
	ActionNone Action = iota
	ActionReptBegin
	ActionEndm
	ActionInclude
	ActionInsert
	ActionEnd
)

// LineResult is returned by ProcessLine for the pipeline to act on.
type LineResult struct {
	Action Action
	Count  int64 // ActionReptBegin: repetition count
	Path   string
	Public bool // EXTRN/ENTRY without a definition: true signals DeclarePublic already done
}

// ProcessLine executes one already-split source line: it defines any
// label, then dispatches the mnemonic to a pseudo-op handler or, failing
// that, to the instruction encoder.
func (d *Driver) ProcessLine(pl ParsedLine) (LineResult, error) {
	if pl.Blank {
		return LineResult{}, nil
	}

	if !d.Enabled() {
		// Still track the conditional stack itself even when disabled.
		switch pl.Mnemonic {
		case "IF", "IFDEF", "IFNOT":
			d.pushCond(false)
			return LineResult{}, nil
		case "ELSE":
			d.flipCond()
			return LineResult{}, nil
		case "ENDIF":
			d.popCond()
			return LineResult{}, nil
		}
		// REPT/ENDM pairs entirely inside a disabled block never open a
		// repeat frame, so ENDM here must not close one either.
		return LineResult{}, nil
	}

	if pl.LabelOnly {
		if err := d.defineLabel(pl.Label, pl.Public, d.pc[d.seg], true); err != nil {
			d.Errors = append(d.Errors, err)
		}
		return LineResult{}, nil
	}

	if h, ok := directives[pl.Mnemonic]; ok {
		return h(d, pl)
	}

	// A label followed by a non-directive mnemonic: define it at the
	// current PC before encoding the instruction.
	if pl.Label != "" {
		if err := d.defineLabel(pl.Label, pl.Public, d.pc[d.seg], true); err != nil {
			d.Errors = append(d.Errors, err)
		}
	}

	if pl.Mnemonic == "" {
		return LineResult{}, nil
	}

	b, err := EncodeInstruction(pl.Mnemonic, pl.Args, d.encodeContext(), d.Dialect, &d.tp)
	if err != nil {
		if d.Pass == 2 {
			d.Errors = append(d.Errors, err)
		}
		return LineResult{}, nil
	}
	if err := d.Emit(b); err != nil {
		return LineResult{}, err
	}
	return LineResult{}, nil
}

func (d *Driver) defineLabel(name string, public bool, value int64, hasValue bool) error {
	return d.Sym.DefineLabel(name, public, hasValue, value, d.seg, d.File, d.Line, d.Pass)
}

func (d *Driver) pushCond(cond bool) {
	d.enable = append(d.enable, d.Enabled() && cond)
}

func (d *Driver) flipCond() {
	if len(d.enable) < 2 {
		d.addError(errs.Directive, "ELSE without IF")
		return
	}
	parent := d.enable[len(d.enable)-2]
	cur := d.enable[len(d.enable)-1]
	d.enable[len(d.enable)-1] = parent && !cur
}

func (d *Driver) popCond() {
	if len(d.enable) <= 1 {
		d.addError(errs.Structural, "ENDIF without IF")
		return
	}
	d.enable = d.enable[:len(d.enable)-1]
}

func (d *Driver) evalArg(cur term.Cursor) (int64, bool, error) {
	terms, _, err := d.tp.Parse(cur, term.AllowParens|term.AllowStrings)
	if err != nil {
		return 0, false, err
	}
	v, ok, _, err := term.Eval(terms, d.Mode, d.Pass == 1, d)
	return v, ok, err
}

type directiveFunc func(d *Driver, pl ParsedLine) (LineResult, error)

var directives map[string]directiveFunc

func init() {
	directives = map[string]directiveFunc{
		"EQU":    dirEqu,
		"DEFL":   dirEqu,
		"SET":    dirEqu,
		"ORG":    dirOrg,
		"BORG":   dirOrg,
		"LOAD":   dirOrg,
		"OFFSET": dirOffset,
		".PHASE": dirOffset,
		".DEPHASE": dirDephase,
		"DB":     dirData(1),
		"DEFB":   dirData(1),
		"BYTE":   dirData(1),
		"DW":     dirData(2),
		"DEFW":   dirData(2),
		"WORD":   dirData(2),
		"DD":     dirData(4),
		"EQUD":   dirData(4),
		"DC":     dirDC,
		"DZ":     dirDZ,
		"DS":     dirDS,
		"DEFS":   dirDS,
		"ZERO":   dirDS,
		"ALIGN":  dirAlign,
		"FILL":   dirFill,
		"END":    dirEnd,
		"IF":     dirIf,
		"IFDEF":  dirIfdef,
		"IFNOT":  dirIfnot,
		"ELSE":   dirElse,
		"ENDIF":  dirEndif,
		"REPT":   dirRept,
		"ENDM":   dirEndm,
		"PUBLIC": dirPublic,
		"ENTRY":  dirPublic,
		"EXTRN":  dirPublic,
		"EXT":    dirPublic,
		".8080":  dirCPU(style.I8080),
		".Z80":   dirCPU(style.Z80),
		".Z180":  dirCPU(style.Z180),
		"ASEG":   dirSeg(style.Absolute),
		"CSEG":   dirSeg(style.Code),
		"DSEG":   dirSeg(style.Data),
		"LABCASE": dirLabcase,
		"INCLUDE": dirInclude,
		"INSERT":  dirInsert,
		"INCBIN":  dirInsert,
		"LIST":    dirNoop,
		"NOLIST":  dirNoop,
		"NAME":    dirNoop,
		"TITLE":   dirNoop,
		"DATE":    dirNoop,
		"TIME":    dirNoop,
		"BUILD":   dirNoop,
		"ERROR":   dirError,
		"EVAL":    dirNoop,
		".LFCOND": dirNoop,
		".SFCOND": dirNoop,
		".TFCOND": dirNoop,
	}
}

func dirNoop(d *Driver, pl ParsedLine) (LineResult, error) { return LineResult{}, nil }

func dirEqu(d *Driver, pl ParsedLine) (LineResult, error) {
	v, _, err := d.evalArg(pl.Args)
	if err != nil {
		d.Errors = append(d.Errors, err)
		return LineResult{}, nil
	}
	if pl.Label != "" {
		if err := d.defineLabel(pl.Label, pl.Public, v, true); err != nil {
			d.Errors = append(d.Errors, err)
		}
	}
	return LineResult{}, nil
}

func dirOrg(d *Driver, pl ParsedLine) (LineResult, error) {
	v, _, err := d.evalArg(pl.Args)
	if err != nil {
		d.Errors = append(d.Errors, err)
		return LineResult{}, nil
	}
	if v < d.LC() && !d.UpdateAllowed(pl.Mnemonic) {
		d.addError(errs.Semantic, "%s may not move the address backward without --update", pl.Mnemonic)
		return LineResult{}, nil
	}
	return LineResult{}, d.SetOrigin(v)
}

func dirOffset(d *Driver, pl ParsedLine) (LineResult, error) {
	v, _, err := d.evalArg(pl.Args)
	if err != nil {
		d.Errors = append(d.Errors, err)
		return LineResult{}, nil
	}
	d.SetOffset(v)
	return LineResult{}, nil
}

func dirDephase(d *Driver, pl ParsedLine) (LineResult, error) {
	d.Dephase()
	return LineResult{}, nil
}

func dirData(width int) directiveFunc {
	return func(d *Driver, pl ParsedLine) (LineResult, error) {
		if pl.Label != "" {
			if err := d.defineLabel(pl.Label, pl.Public, d.pc[d.seg], true); err != nil {
				d.Errors = append(d.Errors, err)
			}
		}
		for _, arg := range SplitArgs(pl.Args) {
			terms, _, err := d.tp.Parse(arg, term.AllowParens|term.AllowStrings)
			if err != nil {
				d.Errors = append(d.Errors, err)
				continue
			}
			if s, ok := term.IsBareString(terms); ok && width == 1 {
				if err := d.Emit([]byte(s)); err != nil {
					return LineResult{}, err
				}
				continue
			}
			v, _, _, err := term.Eval(terms, d.Mode, d.Pass == 1, d)
			if err != nil {
				d.Errors = append(d.Errors, err)
				continue
			}
			b := make([]byte, width)
			for i := 0; i < width; i++ {
				b[i] = byte(v >> (8 * i))
			}
			if err := d.Emit(b); err != nil {
				return LineResult{}, err
			}
		}
		return LineResult{}, nil
	}
}

// dirDC is DB with the high bit of the final character set, the
// classic "last byte of a string marker" convention.
func dirDC(d *Driver, pl ParsedLine) (LineResult, error) {
	if pl.Label != "" {
		if err := d.defineLabel(pl.Label, pl.Public, d.pc[d.seg], true); err != nil {
			d.Errors = append(d.Errors, err)
		}
	}
	for _, arg := range SplitArgs(pl.Args) {
		terms, _, err := d.tp.Parse(arg, term.AllowParens|term.AllowStrings)
		if err != nil {
			d.Errors = append(d.Errors, err)
			continue
		}
		if s, ok := term.IsBareString(terms); ok {
			b := []byte(s)
			if len(b) > 0 {
				b[len(b)-1] |= 0x80
			}
			if err := d.Emit(b); err != nil {
				return LineResult{}, err
			}
			continue
		}
		v, _, _, err := term.Eval(terms, d.Mode, d.Pass == 1, d)
		if err != nil {
			d.Errors = append(d.Errors, err)
			continue
		}
		if err := d.Emit([]byte{byte(v) | 0x80}); err != nil {
			return LineResult{}, err
		}
	}
	return LineResult{}, nil
}

// dirDZ emits a null-terminated string.
func dirDZ(d *Driver, pl ParsedLine) (LineResult, error) {
	if pl.Label != "" {
		if err := d.defineLabel(pl.Label, pl.Public, d.pc[d.seg], true); err != nil {
			d.Errors = append(d.Errors, err)
		}
	}
	for _, arg := range SplitArgs(pl.Args) {
		terms, _, err := d.tp.Parse(arg, term.AllowParens|term.AllowStrings)
		if err != nil {
			d.Errors = append(d.Errors, err)
			continue
		}
		if s, ok := term.IsBareString(terms); ok {
			if err := d.Emit(append([]byte(s), 0)); err != nil {
				return LineResult{}, err
			}
			continue
		}
		v, _, _, err := term.Eval(terms, d.Mode, d.Pass == 1, d)
		if err != nil {
			d.Errors = append(d.Errors, err)
			continue
		}
		if err := d.Emit([]byte{byte(v), 0}); err != nil {
			return LineResult{}, err
		}
	}
	return LineResult{}, nil
}

func dirDS(d *Driver, pl ParsedLine) (LineResult, error) {
	if pl.Label != "" {
		if err := d.defineLabel(pl.Label, pl.Public, d.pc[d.seg], true); err != nil {
			d.Errors = append(d.Errors, err)
		}
	}
	args := SplitArgs(pl.Args)
	if len(args) == 0 {
		return LineResult{}, nil
	}
	n, _, err := d.evalArg(args[0])
	if err != nil {
		d.Errors = append(d.Errors, err)
		return LineResult{}, nil
	}
	return LineResult{}, d.Reserve(n)
}

func dirAlign(d *Driver, pl ParsedLine) (LineResult, error) {
	n, _, err := d.evalArg(pl.Args)
	if err != nil || n <= 0 {
		if err != nil {
			d.Errors = append(d.Errors, err)
		}
		return LineResult{}, nil
	}
	cur := d.pc[d.seg]
	rem := cur % n
	if rem == 0 {
		return LineResult{}, nil
	}
	return LineResult{}, d.Reserve(n - rem)
}

func dirFill(d *Driver, pl ParsedLine) (LineResult, error) {
	v, _, err := d.evalArg(pl.Args)
	if err != nil {
		d.Errors = append(d.Errors, err)
		return LineResult{}, nil
	}
	d.Fill = byte(v)
	if bin, ok := firstBinarySink(d); ok {
		bin.SetFill(d.Fill)
	}
	return LineResult{}, nil
}

func dirEnd(d *Driver, pl ParsedLine) (LineResult, error) {
	if !pl.Args.IsEmpty() {
		v, _, err := d.evalArg(pl.Args)
		if err == nil {
			d.SetEntry(v)
		}
	}
	return LineResult{Action: ActionEnd}, nil
}

func dirIf(d *Driver, pl ParsedLine) (LineResult, error) {
	v, _, err := d.evalArg(pl.Args)
	if err != nil {
		d.Errors = append(d.Errors, err)
		d.pushCond(false)
		return LineResult{}, nil
	}
	d.pushCond(v != 0)
	return LineResult{}, nil
}

func dirIfdef(d *Driver, pl ParsedLine) (LineResult, error) {
	name := strings.TrimSpace(pl.Args.String())
	_, defined, _ := d.ResolveLabel(name)
	d.pushCond(defined)
	return LineResult{}, nil
}

func dirIfnot(d *Driver, pl ParsedLine) (LineResult, error) {
	name := strings.TrimSpace(pl.Args.String())
	_, defined, _ := d.ResolveLabel(name)
	d.pushCond(!defined)
	return LineResult{}, nil
}

func dirElse(d *Driver, pl ParsedLine) (LineResult, error) {
	d.flipCond()
	return LineResult{}, nil
}

func dirEndif(d *Driver, pl ParsedLine) (LineResult, error) {
	d.popCond()
	return LineResult{}, nil
}

func dirRept(d *Driver, pl ParsedLine) (LineResult, error) {
	n, _, err := d.evalArg(pl.Args)
	if err != nil {
		d.Errors = append(d.Errors, err)
		return LineResult{}, nil
	}
	return LineResult{Action: ActionReptBegin, Count: n}, nil
}

func dirEndm(d *Driver, pl ParsedLine) (LineResult, error) {
	return LineResult{Action: ActionEndm}, nil
}

func dirPublic(d *Driver, pl ParsedLine) (LineResult, error) {
	for _, arg := range SplitArgs(pl.Args) {
		name := strings.TrimSpace(arg.String())
		if name != "" {
			d.Sym.DeclarePublic(name, d.File, d.Line)
		}
	}
	return LineResult{}, nil
}

func dirCPU(cpu style.CPU) directiveFunc {
	return func(d *Driver, pl ParsedLine) (LineResult, error) {
		d.CPU = cpu
		return LineResult{}, nil
	}
}

func dirSeg(seg style.Segment) directiveFunc {
	return func(d *Driver, pl ParsedLine) (LineResult, error) {
		d.SwitchSegment(seg)
		return LineResult{}, nil
	}
}

func dirLabcase(d *Driver, pl ParsedLine) (LineResult, error) {
	arg := strings.ToUpper(strings.TrimSpace(pl.Args.String()))
	d.Sym.CaseSensitive = arg != "OFF" && arg != "0" && arg != "NO"
	return LineResult{}, nil
}

func dirInclude(d *Driver, pl ParsedLine) (LineResult, error) {
	return LineResult{Action: ActionInclude, Path: strings.Trim(strings.TrimSpace(pl.Args.String()), `"`)}, nil
}

func dirInsert(d *Driver, pl ParsedLine) (LineResult, error) {
	return LineResult{Action: ActionInsert, Path: strings.Trim(strings.TrimSpace(pl.Args.String()), `"`)}, nil
}

func dirError(d *Driver, pl ParsedLine) (LineResult, error) {
	d.addError(errs.Directive, "%s", strings.TrimSpace(pl.Args.String()))
	return LineResult{}, nil
}

func firstBinarySink(d *Driver) (interface{ SetFill(byte) }, bool) {
	for _, s := range d.Sinks {
		if b, ok := s.(interface{ SetFill(byte) }); ok {
			return b, true
		}
	}
	return nil, false
}
