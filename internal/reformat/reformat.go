// Package reformat implements the dialect-aware source reformatter: a
// parallel sink fed by the same Label/OpCode/AddArg/Comment calls the
// driver makes while parsing a line, buffering them until a Commit and
// then re-emitting one canonical line in the target dialect (MA, M80,
// ZASM or PASMO), using each dialect's own literal prefix/suffix
// spellings (MA &HH/%bbbbbbbb, M80 0HHH/bbbbbbbbB, ZASM #HH, PASMO
// $HH/%bbbbbbbb).
package reformat

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

// arg is one buffered instruction/directive operand: its parsed term
// list (for literal re-rendering) and, for bare text the parser never
// tokenized as an expression (e.g. an INCLUDE path), the raw text.
type arg struct {
	raw   string
	terms []term.Term
}

// Reformatter buffers one source line's worth of Label/OpCode/Arg/Comment
// calls and renders it in Target's canonical syntax on Commit.
type Reformatter struct {
	w        io.Writer
	Target   style.Dialect
	MultiInc bool

	includeSeen map[string]bool

	label    string
	public   bool
	labelOnly bool
	mnemonic string
	args     []arg
	comment  string
}

// New creates a reformatter writing to w in the target dialect.
func New(w io.Writer, target style.Dialect, multiInc bool) *Reformatter {
	return &Reformatter{w: w, Target: target, MultiInc: multiInc, includeSeen: map[string]bool{}}
}

// Label records a line's label, if any.
func (r *Reformatter) Label(name string, public, labelOnly bool) {
	r.label, r.public, r.labelOnly = name, public, labelOnly
}

// OpCode records a line's mnemonic.
func (r *Reformatter) OpCode(mnemonic string) { r.mnemonic = strings.ToUpper(mnemonic) }

// AddArg records one operand: terms is the already-parsed term sequence
// (shared with the encoder/evaluator per the "shared evaluator" design
// note), raw is the original operand text, used verbatim for arguments
// the reformatter doesn't attempt to re-render (file paths, REPT counts
// expressed oddly, etc).
func (r *Reformatter) AddArg(raw string, terms []term.Term) {
	r.args = append(r.args, arg{raw: raw, terms: terms})
}

// Comment records a line's trailing comment (without the leading ';').
func (r *Reformatter) Comment(c string) { r.comment = c }

// ShouldInclude reports whether an INCLUDE of path should be inlined
// again: once multi-inc is off (the default), a file already inlined is
// skipped a second time.
func (r *Reformatter) ShouldInclude(path string) bool {
	if r.MultiInc {
		return true
	}
	key := strings.ToLower(path)
	if r.includeSeen[key] {
		return false
	}
	r.includeSeen[key] = true
	return true
}

// Commit renders the buffered line in the target dialect and resets the
// buffer for the next source line.
func (r *Reformatter) Commit() error {
	defer r.reset()

	if r.label == "" && r.mnemonic == "" && r.comment == "" {
		_, err := fmt.Fprintln(r.w)
		return err
	}

	var lines []string
	mnems := translateMnemonic(r.Target, r.mnemonic)
	if len(mnems) == 0 {
		mnems = []string{r.mnemonic}
	}
	rendered := r.renderArgs()

	if r.labelOnly {
		lines = append(lines, renderLabelOnly(r.Target, r.label, r.public))
	} else {
		if r.Target == style.MA && r.label != "" {
			lines = append(lines, renderLabelOnly(r.Target, r.label, r.public))
		}
		for i, m := range mnems {
			var sb strings.Builder
			if i == 0 && r.label != "" {
				sb.WriteString(renderLabelPrefix(r.Target, r.label, r.public))
			}
			if m != "" {
				sb.WriteString(m)
				if rendered != "" {
					sb.WriteByte(' ')
					sb.WriteString(rendered)
				}
			}
			lines = append(lines, sb.String())
		}
	}

	if r.comment != "" {
		lines[len(lines)-1] += " ; " + r.comment
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(r.w, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reformatter) reset() {
	r.label, r.public, r.labelOnly, r.mnemonic, r.comment = "", false, false, "", ""
	r.args = r.args[:0]
}

func (r *Reformatter) renderArgs() string {
	parts := make([]string, 0, len(r.args))
	for _, a := range r.args {
		if len(a.terms) > 0 {
			parts = append(parts, renderTerms(a.terms, r.Target))
		} else {
			parts = append(parts, a.raw)
		}
	}
	return strings.Join(parts, ",")
}

// renderLabelOnly renders a label-with-no-instruction line: MA puts the
// label alone on its own line as ".name"; the colon dialects render
// "name:"/"name::" with nothing following.
func renderLabelOnly(target style.Dialect, name string, public bool) string {
	if target == style.MA {
		return "." + name
	}
	return renderLabelPrefix(target, name, public) // trailing colon, empty body
}

// renderLabelPrefix renders the label portion that precedes a mnemonic
// on the same physical line. In the MA dialect a label can't share a
// line with an instruction, so it is rendered on its own line first and
// the instruction line that follows gets no label prefix at all; Commit
// writes that separate label line itself, so this returns "" for MA.
func renderLabelPrefix(target style.Dialect, name string, public bool) string {
	if target == style.MA {
		return ""
	}
	suffix := ":"
	if public {
		suffix = "::"
	}
	return name + suffix + "\t"
}

// translateMnemonic maps a canonical directive name to the spelling(s)
// the target dialect uses, expanding MA's BORG (a load address distinct
// from the program's PC) into ZASM's two-directive LOAD+ORG idiom when
// the target doesn't carry that distinction in one directive.
func translateMnemonic(target style.Dialect, mnemonic string) []string {
	switch mnemonic {
	case "DEFB", "BYTE":
		return []string{dataAlias["DB"][target]}
	case "DB":
		return []string{dataAlias["DB"][target]}
	case "DEFW", "WORD":
		return []string{dataAlias["DW"][target]}
	case "DW":
		return []string{dataAlias["DW"][target]}
	case "DEFS", "ZERO":
		return []string{dataAlias["DS"][target]}
	case "DS":
		return []string{dataAlias["DS"][target]}
	case "BORG", "LOAD":
		if target == style.ZASM {
			return []string{"LOAD", "ORG"}
		}
		return []string{"ORG"}
	case "OFFSET", ".PHASE":
		return []string{originAlias["OFFSET"][target]}
	case ".DEPHASE":
		return []string{originAlias["DEPHASE"][target]}
	}
	return nil
}

var dataAlias = map[string]map[style.Dialect]string{
	"DB": {style.MA: "DB", style.M80: "DB", style.PASMO: "DB", style.ZASM: "DEFB"},
	"DW": {style.MA: "DW", style.M80: "DW", style.PASMO: "DW", style.ZASM: "DEFW"},
	"DS": {style.MA: "DS", style.M80: "DS", style.PASMO: "DS", style.ZASM: "DEFS"},
}

var originAlias = map[string]map[style.Dialect]string{
	"OFFSET":  {style.MA: "OFFSET", style.M80: "OFFSET", style.PASMO: ".PHASE", style.ZASM: ".PHASE"},
	"DEPHASE": {style.MA: "OFFSET", style.M80: "OFFSET", style.PASMO: ".DEPHASE", style.ZASM: ".DEPHASE"},
}

// renderTerms re-renders a parsed term sequence (stopping at the
// terminating comma term) as text in the target dialect's literal
// syntax, concatenating tokens with a single space on each side of a
// word (a label, or a word operator such as AND, MOD, SHL) and no space
// between two non-word tokens (symbol operators, numbers, strings).
func renderTerms(terms []term.Term, target style.Dialect) string {
	var sb strings.Builder
	prevWord := false
	for _, t := range terms {
		if t.Kind == term.KindOp && t.Op == term.OpComma {
			break
		}
		tok, isWord := renderTerm(t, target)
		if sb.Len() > 0 && (isWord || prevWord) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
		prevWord = isWord
	}
	return sb.String()
}

func renderTerm(t term.Term, target style.Dialect) (tok string, isWord bool) {
	switch t.Kind {
	case term.KindNumber:
		return renderNumber(t, target), false
	case term.KindString:
		return quoteString(t.Str), false
	case term.KindLabel:
		return t.Label, true
	case term.KindHere:
		return hereToken(target), false
	case term.KindOp:
		switch t.Op {
		case term.OpLParen:
			return "(", false
		case term.OpRParen:
			return ")", false
		case term.OpComma:
			return ",", false
		default:
			sym := t.Op.Symbol()
			return sym, len(sym) > 0 && isAlphaByte(sym[0])
		}
	}
	return "", false
}

func isAlphaByte(b byte) bool { return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') }

func hereToken(target style.Dialect) string {
	if target == style.PASMO {
		return "$"
	}
	return "$"
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// renderNumber re-renders a numeric literal in the target dialect's
// preferred notation, using the term's recorded base and width so a
// 2-digit hex byte stays 2 digits after translation.
func renderNumber(t term.Term, target style.Dialect) string {
	v := t.Num
	switch t.Base {
	case term.Bin:
		digits := strconv.FormatInt(v, 2)
		digits = padDigits(digits, t.Width)
		switch target {
		case style.MA, style.PASMO:
			return "%" + digits
		default:
			return digits + "B"
		}
	case term.Oct:
		digits := strconv.FormatInt(v, 8)
		return digits + "O"
	case term.Hex:
		digits := strings.ToUpper(strconv.FormatInt(v, 16))
		digits = padDigits(digits, t.Width)
		switch target {
		case style.MA:
			return "&" + digits
		case style.PASMO:
			return "$" + digits
		case style.ZASM:
			return "#" + digits
		default: // M80
			if digits[0] < '0' || digits[0] > '9' {
				digits = "0" + digits
			}
			return digits + "H"
		}
	default:
		return strconv.FormatInt(v, 10)
	}
}

func padDigits(s string, width int) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}
