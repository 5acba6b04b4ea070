// Package driver implements per-line tokenizing, label extraction,
// pseudo-op/data/encoder dispatch, the conditional-assembly stack, and
// the REPT/ENDM and INCLUDE file-stack machinery, orchestrated by
// internal/pipeline across the two assembly passes.
package driver

import (
	"strings"

	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

// ParsedLine is one source line split into its label (if any), mnemonic,
// and argument text, with the trailing comment already stripped.
type ParsedLine struct {
	Label     string
	Public    bool
	LabelOnly bool // a label-only line (MA ".name", or a bare "name:")
	Mnemonic  string
	Args      term.Cursor
	Comment   string
	Blank     bool
}

// SplitLine extracts the label and mnemonic from one source line,
// dialect-dependently.
func SplitLine(file string, row int, raw string, dialect style.Dialect) ParsedLine {
	stripped, comment := term.NewCursor(file, row, raw).SplitTrailingComment()
	if stripped.IsEmpty() {
		return ParsedLine{Blank: comment == "", Comment: comment}
	}

	var pl ParsedLine
	if dialect == style.MA {
		pl = splitMALine(stripped)
	} else {
		pl = splitColonLine(stripped)
	}
	pl.Comment = comment
	return pl
}

// splitMALine recognizes the MA dialect's ".name" label-only line, and
// otherwise treats the whole line as mnemonic+args.
func splitMALine(cur term.Cursor) ParsedLine {
	if cur.StartsWithChar('.') {
		name, rest := cur.Consume(1).ConsumeWhile(term.IsIdentChar)
		rest = rest.ConsumeWhitespace()
		if name.String() != "" && rest.IsEmpty() {
			return ParsedLine{Label: name.String(), LabelOnly: true}
		}
	}
	mnem, args := splitMnemonic(cur)
	return ParsedLine{Mnemonic: mnem, Args: args}
}

// splitColonLine recognizes "name:"/"name::" labels and the bare
// "name EQU expr" equate form used by M80/PASMO/ZASM.
func splitColonLine(cur term.Cursor) ParsedLine {
	if !cur.StartsWith(term.IsIdentStart) {
		mnem, args := splitMnemonic(cur)
		return ParsedLine{Mnemonic: mnem, Args: args}
	}

	name, rest := cur.ConsumeWhile(term.IsIdentChar)
	if rest.StartsWithChar(':') {
		public := false
		rest = rest.Consume(1)
		if rest.StartsWithChar(':') {
			public = true
			rest = rest.Consume(1)
		}
		rest = rest.ConsumeWhitespace()
		if rest.IsEmpty() {
			return ParsedLine{Label: name.String(), Public: public, LabelOnly: true}
		}
		mnem, args := splitMnemonic(rest)
		return ParsedLine{Label: name.String(), Public: public, Mnemonic: mnem, Args: args}
	}

	// "name EQU expr" / "name MACRO ..." : a bare identifier followed by
	// a recognized equate-style directive, with no colon at all.
	afterName := rest.ConsumeWhitespace()
	word, _ := afterName.ConsumeWhile(term.IsIdentChar)
	if isEquateWord(word.String()) {
		mnem, args := splitMnemonic(afterName)
		return ParsedLine{Label: name.String(), Mnemonic: mnem, Args: args}
	}

	mnem, args := splitMnemonic(cur)
	return ParsedLine{Mnemonic: mnem, Args: args}
}

func isEquateWord(w string) bool {
	switch strings.ToUpper(w) {
	case "EQU", "DEFL", "MACRO", "SET":
		return true
	}
	return false
}

func splitMnemonic(cur term.Cursor) (string, term.Cursor) {
	cur = cur.ConsumeWhitespace()
	if cur.IsEmpty() {
		return "", cur
	}
	word, rest := cur.ConsumeWhile(term.IsIdentChar)
	if word.String() == "" {
		// A lone symbol (e.g. "=") used as a mnemonic.
		word, rest = cur.Trunc(1), cur.Consume(1)
	}
	return strings.ToUpper(word.String()), rest.ConsumeWhitespace()
}

// SplitArgs splits a comma-separated argument cursor into one Cursor per
// argument, respecting parentheses and quoted strings so that a comma
// inside "(IX+1)" or a string literal doesn't split early.
func SplitArgs(cur term.Cursor) []term.Cursor {
	var args []term.Cursor
	for {
		cur = cur.ConsumeWhitespace()
		if cur.IsEmpty() {
			break
		}
		piece, rest := scanArg(cur)
		args = append(args, piece)
		rest = rest.ConsumeWhitespace()
		if rest.StartsWithChar(',') {
			cur = rest.Consume(1)
			continue
		}
		break
	}
	return args
}

func scanArg(cur term.Cursor) (arg, remain term.Cursor) {
	depth := 0
	var quote byte
	s := cur.String()
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				return cur.Trunc(i), cur.Consume(i)
			}
		}
	}
	return cur.Trunc(i), cur.Consume(i)
}
