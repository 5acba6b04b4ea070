// Package pipeline implements the assembly-job orchestration: it drives
// two passes across one or more input source files, expanding INCLUDE
// and REPT/ENDM, feeding the listing and reformatter, opening the
// output sinks only in pass 2, and deleting partial artifacts when any
// error was recorded.
//
// The file/REPT machinery uses an explicit stack of (path, lines,
// index) frames instead of host-language recursion, so that REPT/ENDM
// can rewind within the correct stream frame even across nested
// INCLUDEs.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mkern/zasm/internal/buildnum"
	"github.com/mkern/zasm/internal/driver"
	"github.com/mkern/zasm/internal/errs"
	"github.com/mkern/zasm/internal/listing"
	"github.com/mkern/zasm/internal/reformat"
	"github.com/mkern/zasm/internal/sink"
	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/symtab"
	"github.com/mkern/zasm/internal/term"
)

// Options configures one assembly job; every field corresponds to a CLI
// flag.
type Options struct {
	Dialect style.Dialect
	CPU     style.CPU
	Files   []string

	IncludeDirs []string
	Defines     map[string]string // --define NAME[=VALUE], repeatable

	BinaryPath string
	HexPath    string
	SymbolPath string
	ListPath   string

	Fill byte

	Update []string // ALL|ORG|BORG|OFFSET|PHASE|DEPHASE|LOAD

	Permissive  bool
	NumberBuild bool
	ListForce   bool
	ListCond    bool
	Address     bool

	ReformatDialect string // "" disables reformatting
	ReformatPath    string
	ModeLine        bool
	MultiInc        bool
	Keep            bool // preserve pass-1 listing as a separate file

	CSegBase int64
	DSegBase int64

	LabCase *bool // overrides the dialect's default case sensitivity

	Invocation string // for the listing header; defaults to os.Args joined
}

// Result summarizes one completed (or aborted) assembly job.
type Result struct {
	Errors      []error
	HighWater   int64 // highest binary address written
	EntryPoint  int64
	BuildNumber uint32
}

// Failed reports whether the job produced any error (any error in
// either pass deletes all artifacts and the process must exit 1).
func (r *Result) Failed() bool { return len(r.Errors) > 0 }

// Run executes one two-pass assembly job end to end.
func Run(opts Options) (*Result, error) {
	caseSensitive := opts.Dialect.CaseSensitiveDefault()
	if opts.LabCase != nil {
		caseSensitive = *opts.LabCase
	}
	sym := symtab.New(caseSensitive, !opts.Permissive)
	update := updateSet(opts.Update)

	res := &Result{}
	var bin *sink.Binary
	var binFile, hexFile *os.File

	for pass := 1; pass <= 2; pass++ {
		d := driver.NewWithSymtab(opts.Dialect, opts.CPU, sym)
		d.Pass = pass
		d.Fill = opts.Fill
		d.Update = update
		d.SetSegBase(style.Code, opts.CSegBase)
		d.SetSegBase(style.Data, opts.DSegBase)
		applyDefines(d, opts.Defines)

		capture := sink.NewCapture()

		var lst *listing.Listing
		var lstFile *os.File
		var rf *reformat.Reformatter
		var rfFile *os.File

		if pass == 2 {
			var err error
			binFile, hexFile, bin, err = openOutputSinks(d, opts)
			if err != nil {
				return nil, err
			}

			if opts.ListPath != "" {
				lstFile, err = os.Create(opts.ListPath)
				if err != nil {
					return nil, err
				}
				lst = listing.New(lstFile, opts.Address)
				lst.ForceAll, lst.CondLines = opts.ListForce, opts.ListCond
				lst.Header(invocation(opts), cwd(), pass, time.Now())
			}

			if opts.ReformatDialect != "" {
				target, ok := style.ParseDialect(opts.ReformatDialect)
				if !ok {
					return nil, fmt.Errorf("unknown reformat style: %s", opts.ReformatDialect)
				}
				rfFile, err = os.Create(opts.ReformatPath)
				if err != nil {
					return nil, err
				}
				if opts.ModeLine {
					fmt.Fprintf(rfFile, "; zasm-style: %s\n", target)
				}
				rf = reformat.New(rfFile, target, opts.MultiInc)
			}
		} else if opts.Keep && opts.ListPath != "" {
			// --keep preserves pass 1's listing as a separate file
			// alongside pass 2's, instead of only keeping the final pass.
			var err error
			lstFile, err = os.Create(pass1ListPath(opts.ListPath))
			if err != nil {
				return nil, err
			}
			lst = listing.New(lstFile, opts.Address)
			lst.Header(invocation(opts), cwd(), pass, time.Now())
		}

		d.Sinks = append(d.Sinks, capture)

		for _, path := range opts.Files {
			sym.NewFile()
			if err := assembleFile(d, path, opts, lst, rf, capture); err != nil {
				return nil, err
			}
		}

		if lstFile != nil {
			lstFile.Close()
		}
		if rfFile != nil {
			rfFile.Close()
		}

		if pass == 2 {
			if err := d.Close(); err != nil {
				return nil, err
			}
			res.Errors = append(res.Errors, d.Errors...)
			res.EntryPoint = d.Entry()
			if bin != nil {
				res.HighWater = bin.HighWaterMark()
			}

			if res.Failed() {
				if binFile != nil {
					os.Remove(opts.BinaryPath)
				}
				if hexFile != nil {
					os.Remove(opts.HexPath)
				}
				return res, nil
			}

			if opts.SymbolPath != "" {
				if err := writeSymbolFile(opts.SymbolPath, sym, opts.Dialect); err != nil {
					return nil, err
				}
			}
			if opts.NumberBuild {
				basename := outputBasename(opts)
				n, err := buildnum.Increment(basename)
				if err != nil {
					return nil, err
				}
				res.BuildNumber = n
			}
		} else {
			res.Errors = append(res.Errors, d.Errors...)
		}
	}

	return res, nil
}

func updateSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[strings.ToUpper(n)] = true
	}
	return m
}

func applyDefines(d *driver.Driver, defines map[string]string) {
	for name, val := range defines {
		v := int64(1)
		if val != "" {
			if n, err := strconv.ParseInt(val, 0, 64); err == nil {
				v = n
			}
		}
		d.Sym.DeclarePublic(name, "<command-line>", 0)
		_ = d.Sym.DefineLabel(name, true, true, v, style.Absolute, "<command-line>", 0, d.Pass)
	}
}

func invocation(opts Options) string {
	if opts.Invocation != "" {
		return opts.Invocation
	}
	return strings.Join(os.Args, " ")
}

func cwd() string {
	d, err := os.Getwd()
	if err != nil {
		return "."
	}
	return d
}

func outputBasename(opts Options) string {
	for _, p := range []string{opts.BinaryPath, opts.HexPath, opts.SymbolPath, opts.ListPath} {
		if p != "" {
			return strings.TrimSuffix(p, filepath.Ext(p))
		}
	}
	if len(opts.Files) > 0 {
		return strings.TrimSuffix(opts.Files[0], filepath.Ext(opts.Files[0]))
	}
	return "a"
}

func pass1ListPath(listPath string) string {
	ext := filepath.Ext(listPath)
	return strings.TrimSuffix(listPath, ext) + ".p1" + ext
}

func openOutputSinks(d *driver.Driver, opts Options) (binFile, hexFile *os.File, bin *sink.Binary, err error) {
	if opts.BinaryPath != "" {
		binFile, err = os.Create(opts.BinaryPath)
		if err != nil {
			return nil, nil, nil, err
		}
		bin = sink.NewBinary(binFile, opts.Fill)
		d.Sinks = append(d.Sinks, bin)
	}
	if opts.HexPath != "" {
		hexFile, err = os.Create(opts.HexPath)
		if err != nil {
			return binFile, nil, bin, err
		}
		d.Sinks = append(d.Sinks, sink.NewIntelHex(hexFile))
	}
	return binFile, hexFile, bin, nil
}

func writeSymbolFile(path string, sym *symtab.Table, dialect style.Dialect) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writeLabels := func(labels []*symtab.Label) error {
		for _, l := range labels {
			_, err := fmt.Fprintf(f, "%s:\tEQU\t%s\t; %s %s:%d\n",
				l.Name, literalHex(l.Value, dialect), l.Segment, l.File, l.Line)
			if err != nil {
				return err
			}
		}
		return nil
	}
	if err := writeLabels(sym.Publics()); err != nil {
		return err
	}
	return writeLabels(sym.Locals())
}

func literalHex(v int64, dialect style.Dialect) string {
	uv := uint16(v)
	switch dialect {
	case style.MA:
		return fmt.Sprintf("&%04X", uv)
	case style.PASMO:
		return fmt.Sprintf("$%04X", uv)
	case style.ZASM:
		return fmt.Sprintf("#%04X", uv)
	default: // M80
		return fmt.Sprintf("0%04Xh", uv)
	}
}

//
// File/REPT stack
//

type reptFrame struct {
	bodyStart int
	remaining int64
}

type frame struct {
	path             string
	lines            []string
	idx              int
	rept             []reptFrame
	suppressReformat bool // a repeat INCLUDE of this path, skipped in the reformat stream
}

func openFrame(path string, includeDirs []string) (*frame, error) {
	b, err := readSearchPath(path, includeDirs)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(b), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return &frame{path: path, lines: lines}, nil
}

func readSearchPath(path string, includeDirs []string) ([]byte, error) {
	if b, err := os.ReadFile(path); err == nil {
		return b, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	for _, dir := range includeDirs {
		full := filepath.Join(dir, path)
		if b, err := os.ReadFile(full); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("file not found: %s", path)
}

// assembleFile drives the file/REPT stack for one top-level input file,
// including any files it transitively INCLUDEs.
func assembleFile(d *driver.Driver, path string, opts Options, lst *listing.Listing, rf *reformat.Reformatter, capture *sink.Capture) error {
	top, err := openFrame(path, opts.IncludeDirs)
	if err != nil {
		return fmt.Errorf("include not found: %w", err)
	}
	stack := []*frame{top}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.idx >= len(f.lines) {
			stack = stack[:len(stack)-1]
			continue
		}

		row := f.idx + 1
		raw := f.lines[f.idx]
		f.idx++

		d.File, d.Line = f.path, row
		pl := driver.SplitLine(f.path, row, raw, d.Dialect)

		if capture != nil {
			capture.Reset()
		}
		beforeErrs := len(d.Errors)
		pcBefore, lcBefore := d.PC(), d.LC()

		result, err := d.ProcessLine(pl)
		if err != nil {
			return err
		}

		if lst != nil && d.Pass == 2 && (d.Enabled() || opts.ListCond) {
			lst.Line(lcBefore, pcBefore, capture.Bytes(), raw, errorMessages(d.Errors[beforeErrs:]))
		}
		if rf != nil && d.Pass == 2 && d.Enabled() && !f.suppressReformat {
			feedReformatter(rf, pl, d.Dialect)
		}

		switch result.Action {
		case driver.ActionReptBegin:
			if result.Count <= 0 {
				f.idx = skipReptBody(f.lines, f.idx)
			} else {
				f.rept = append(f.rept, reptFrame{bodyStart: f.idx, remaining: result.Count})
			}

		case driver.ActionEndm:
			if len(f.rept) == 0 {
				d.Errors = append(d.Errors, errs.New(errs.Structural, f.path, row, "ENDM without REPT"))
				continue
			}
			top := &f.rept[len(f.rept)-1]
			top.remaining--
			if top.remaining > 0 {
				f.idx = top.bodyStart
			} else {
				f.rept = f.rept[:len(f.rept)-1]
			}

		case driver.ActionInclude:
			nf, ferr := openFrame(result.Path, opts.IncludeDirs)
			if ferr != nil {
				return fmt.Errorf("include not found: %s", result.Path)
			}
			if rf != nil && d.Pass == 2 {
				// A repeat INCLUDE of the same path is still assembled (it
				// must be, for correct label/byte output) but is not
				// re-emitted into the reformat stream unless --multi-inc.
				nf.suppressReformat = !rf.ShouldInclude(result.Path)
			}
			stack = append(stack, nf)

		case driver.ActionInsert:
			data, ferr := readSearchPath(result.Path, opts.IncludeDirs)
			if ferr != nil {
				d.Errors = append(d.Errors, errs.New(errs.Structural, f.path, row, "insert file not found: %s", result.Path))
				continue
			}
			if eerr := d.Emit(data); eerr != nil {
				return eerr
			}

		case driver.ActionEnd:
			return nil
		}
	}
	return nil
}

// skipReptBody scans forward over a REPT body whose count evaluated to
// zero, tracking nested REPT/ENDM depth by the line's leading mnemonic
// word, and returns the index just past the matching ENDM.
func skipReptBody(lines []string, idx int) int {
	depth := 1
	for i := idx; i < len(lines); i++ {
		word := firstWord(lines[i])
		switch word {
		case "REPT":
			depth++
		case "ENDM":
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(lines)
}

func firstWord(line string) string {
	cur := term.NewCursor("", 0, line).StripTrailingComment().ConsumeWhitespace()
	word, rest := cur.ConsumeWhile(term.IsIdentChar)
	if rest.StartsWithChar(':') {
		rest = rest.Consume(1)
		if rest.StartsWithChar(':') {
			rest = rest.Consume(1)
		}
		word, _ = rest.ConsumeWhitespace().ConsumeWhile(term.IsIdentChar)
	}
	return strings.ToUpper(word.String())
}

func errorMessages(lineErrs []error) []string {
	out := make([]string, len(lineErrs))
	for i, e := range lineErrs {
		out[i] = e.Error()
	}
	return out
}

func feedReformatter(rf *reformat.Reformatter, pl driver.ParsedLine, dialect style.Dialect) {
	rf.Label(pl.Label, pl.Public, pl.LabelOnly)
	if !pl.LabelOnly && pl.Mnemonic != "" {
		rf.OpCode(pl.Mnemonic)
		var tp term.Parser
		tp.Dialect = dialect
		for _, a := range driver.SplitArgs(pl.Args) {
			terms, _, err := tp.Parse(a, term.AllowParens|term.AllowStrings)
			text := strings.TrimSpace(a.String())
			if err != nil {
				rf.AddArg(text, nil)
				continue
			}
			rf.AddArg(text, terms)
		}
	}
	rf.Comment(pl.Comment)
	rf.Commit()
}
