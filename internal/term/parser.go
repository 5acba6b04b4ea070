package term

import (
	"strconv"
	"strings"

	"github.com/mkern/zasm/internal/style"
)

// Flags controls which expression forms a Parse call accepts. Pseudo-ops
// that don't support parenthesized sub-expressions (to keep comma-splitting
// unambiguous) or that never see a string literal pass 0.
type Flags uint32

const (
	AllowParens Flags = 1 << iota
	AllowStrings
)

// Parser implements the character-driven expression tokenizer: a
// state machine (conceptually {Start, Value, Binary, Decimal, Hex, Number,
// ASCII, Label, Operator, OpWord}, collapsed here into nextTerm's case
// dispatch) that recognizes dialect-specific numeric syntaxes and
// reserved operator words, and emits a flat Term sequence terminated by
// a comma term.
//
// On any syntactic failure, Parse records the first error encountered on
// the line and returns a best-effort term list so that downstream stages
// (the driver, the encoder) can proceed without cascading complaints.
type Parser struct {
	Dialect style.Dialect

	flags   Flags
	parens  int
	prevKind tokenKind
	errs    []Error
}

// Error is a parse error anchored to a source position.
type Error struct {
	Pos Pos
	Msg string
}

func (e Error) Error() string { return e.Msg }

type tokenKind byte

const (
	tokNone tokenKind = iota
	tokValue
	tokOp
	tokLParen
	tokRParen
)

func (k tokenKind) canPrecedeUnary() bool {
	return k == tokOp || k == tokLParen || k == tokNone
}

// Parse consumes an expression starting at the first character of cur,
// stopping at a top-level comma or end of line, and returns the term
// sequence (always ending in an OpComma term), the unconsumed remainder,
// and the first error encountered (if any).
func (p *Parser) Parse(cur Cursor, flags Flags) (terms []Term, remain Cursor, err error) {
	p.flags = flags
	p.parens = 0
	p.prevKind = tokNone
	p.errs = nil

	for {
		var t Term
		var ok bool
		t, cur, ok = p.nextTerm(cur)
		if !ok {
			break
		}
		terms = append(terms, t)
		if t.Kind == KindOp && t.Op == OpComma {
			break
		}
	}

	if p.parens > 0 {
		p.addError(cur, "too many open brackets")
	}
	// Guarantee the list always ends with a comma marker, per the data
	// model ("A parsed expression is a sequence of terms terminated by
	// `,`"), even when the line ran out before one was seen.
	if len(terms) == 0 || terms[len(terms)-1].Op != OpComma || terms[len(terms)-1].Kind != KindOp {
		terms = append(terms, Oper(cur.Pos(), OpComma))
	}

	if len(p.errs) > 0 {
		return []Term{Number(cur.Pos(), 0, Hex, 1), Oper(cur.Pos(), OpComma)}, cur, p.errs[0]
	}
	return terms, cur, nil
}

// Errors returns every error recorded during the most recent Parse call.
func (p *Parser) Errors() []Error { return p.errs }

func (p *Parser) addError(cur Cursor, msg string) {
	p.errs = append(p.errs, Error{cur.Pos(), msg})
}

var keywordOps = map[string]Op{
	"NOT":  OpNot,
	"LOG2": OpLog2,
	"LOW":  OpLow,
	"HIGH": OpHigh,
	"MOD":  OpMod,
	"SHL":  OpShl,
	"SHR":  OpShr,
	"EQ":   OpEq,
	"NE":   OpNe,
	"LT":   OpLt,
	"LE":   OpLe,
	"GE":   OpGe,
	"GT":   OpGt,
	"AND":  OpAnd,
	"OR":   OpOr,
	"XOR":  OpXor,
}

// nextTerm scans one term (a value, operator, or the comma marker) from
// cur. An exhausted line yields the comma marker; ok is false only for a
// character that starts no term.
func (p *Parser) nextTerm(cur Cursor) (t Term, remain Cursor, ok bool) {
	cur = cur.ConsumeWhitespace()
	if cur.IsEmpty() {
		return Oper(cur.Pos(), OpComma), cur, true
	}

	pos := cur.Pos()

	switch {
	case cur.StartsWithChar(','):
		remain = cur.Consume(1)
		t, ok = Oper(pos, OpComma), true

	case cur.StartsWithChar('(') && p.flags&AllowParens != 0:
		p.parens++
		remain = cur.Consume(1)
		t, ok = Term{Kind: KindOp, Pos: pos, Op: OpLParen}, true
		p.prevKind = tokLParen
		return t, remain.ConsumeWhitespace(), true

	case cur.StartsWithChar(')') && p.flags&AllowParens != 0:
		if p.parens == 0 {
			p.addError(cur, "mismatched parentheses")
		} else {
			p.parens--
		}
		remain = cur.Consume(1)
		t, ok = Term{Kind: KindOp, Pos: pos, Op: OpRParen}, true
		p.prevKind = tokRParen
		return t, remain.ConsumeWhitespace(), true

	case cur.StartsWithChar('$') && p.Dialect == style.PASMO && len(cur.String()) > 1 && IsHex(cur.String()[1]):
		t, remain, ok = p.parseNumber(cur)

	case cur.StartsWithChar('$'):
		remain = cur.Consume(1)
		t, ok = Here(pos), true

	case cur.StartsWith(IsDecimal):
		t, remain, ok = p.parseNumber(cur)

	case cur.StartsWithChar('&') && (p.Dialect == style.MA || p.Dialect == style.PASMO) && p.prevKind.canPrecedeUnary():
		t, remain, ok = p.parseNumber(cur)

	case cur.StartsWithChar('%') && (p.Dialect == style.MA || p.Dialect == style.PASMO) && p.prevKind.canPrecedeUnary():
		t, remain, ok = p.parseNumber(cur)

	case cur.StartsWithChar('#'):
		t, remain, ok = p.parseNumber(cur)

	case cur.StartsWithString("X'") || cur.StartsWithString("x'"):
		t, remain, ok = p.parseNumber(cur)

	case p.Dialect == style.MA && cur.StartsWithString("+ASC\""):
		t, remain, ok = p.parseMAAscString(cur)

	case cur.StartsWith(IsQuote) && p.flags&AllowStrings != 0:
		t, remain, ok = p.parseStringLiteral(cur)

	case cur.StartsWith(style_identStart):
		t, remain, ok = p.parseIdentOrWordOp(cur)

	default:
		t, remain, ok = p.parseSymbolOp(cur)
	}

	if t.Kind == KindNumber || t.Kind == KindString || t.Kind == KindLabel || t.Kind == KindHere {
		p.prevKind = tokValue
	} else if ok {
		p.prevKind = tokOp
	}
	return t, remain.ConsumeWhitespace(), ok
}

func style_identStart(b byte) bool { return IsIdentStart(b) }

// parseNumber recognizes every numeric syntax: unadorned decimal;
// suffixes B/D/H/O/Q; prefix 0x; dialect-conditional &, %, $; and the
// universal # and X'..' hex forms.
func (p *Parser) parseNumber(cur Cursor) (t Term, remain Cursor, ok bool) {
	pos := cur.Pos()

	switch {
	case cur.StartsWithChar('$'):
		body, rest := cur.Consume(1).ConsumeWhile(IsHex)
		return p.finishNumber(pos, body.String(), 16, Hex, rest)

	case cur.StartsWithString("0x") || cur.StartsWithString("0X"):
		body, rest := cur.Consume(2).ConsumeWhile(IsHex)
		return p.finishNumber(pos, body.String(), 16, Hex, rest)

	case cur.StartsWithChar('&'):
		body, rest := cur.Consume(1).ConsumeWhile(IsHex)
		return p.finishNumber(pos, body.String(), 16, Hex, rest)

	case cur.StartsWithChar('#'):
		body, rest := cur.Consume(1).ConsumeWhile(IsHex)
		return p.finishNumber(pos, body.String(), 16, Hex, rest)

	case cur.StartsWithChar('%'):
		body, rest := cur.Consume(1).ConsumeWhile(IsBinary)
		return p.finishNumber(pos, body.String(), 2, Bin, rest)

	case cur.StartsWithString("X'") || cur.StartsWithString("x'"):
		body, rest := cur.Consume(2).ConsumeUntilChar('\'')
		if rest.IsEmpty() {
			p.addError(cur, "unterminated X'..' literal")
			return Number(pos, 0, Hex, 1), rest, true
		}
		rest = rest.Consume(1)
		return p.finishNumber(pos, body.String(), 16, Hex, rest)
	}

	word, rest := cur.ConsumeWhile(func(b byte) bool {
		return IsHex(b) || b == 'o' || b == 'O' || b == 'q' || b == 'Q' || b == 'h' || b == 'H'
	})
	v, base, width, sok := parseSuffixedWord(word.String())
	if !sok {
		p.addError(cur, "invalid numeric literal")
		return Number(pos, 0, Hex, 1), rest, true
	}
	return Number(pos, v, base, width), rest, true
}

func (p *Parser) finishNumber(pos Pos, digits string, radix int, base Base, rest Cursor) (Term, Cursor, bool) {
	if digits == "" {
		p.addError(rest, "invalid numeric literal")
		return Number(pos, 0, base, 1), rest, true
	}
	v, err := strconv.ParseInt(digits, radix, 64)
	if err != nil {
		p.addError(rest, "invalid numeric literal")
		return Number(pos, 0, base, 1), rest, true
	}
	return Number(pos, v, base, len(digits)), rest, true
}

// parseSuffixedWord applies the classic radix-by-trailing-letter rule: try
// H (hex), then O/Q (octal), then B (binary), then D (decimal) suffixes in
// turn, falling back to an unsuffixed decimal literal.
func parseSuffixedWord(word string) (v int64, base Base, width int, ok bool) {
	if word == "" {
		return 0, 0, 0, false
	}
	last := word[len(word)-1]
	body := word[:len(word)-1]
	switch last {
	case 'H', 'h':
		if body != "" && allOf(body, IsHex) {
			n, err := strconv.ParseInt(body, 16, 64)
			return n, Hex, len(body), err == nil
		}
	case 'O', 'o', 'Q', 'q':
		if body != "" && allOf(body, IsOctal) {
			n, err := strconv.ParseInt(body, 8, 64)
			return n, Oct, len(body), err == nil
		}
	case 'B', 'b':
		if body != "" && allOf(body, IsBinary) {
			n, err := strconv.ParseInt(body, 2, 64)
			return n, Bin, len(body), err == nil
		}
	case 'D', 'd':
		if body != "" && allOf(body, IsDecimal) {
			n, err := strconv.ParseInt(body, 10, 64)
			return n, Dec, len(body), err == nil
		}
	}
	if allOf(word, IsDecimal) {
		n, err := strconv.ParseInt(word, 10, 64)
		return n, Dec, len(word), err == nil
	}
	return 0, 0, 0, false
}

func allOf(s string, fn func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !fn(s[i]) {
			return false
		}
	}
	return true
}

func (p *Parser) parseStringLiteral(cur Cursor) (Term, Cursor, bool) {
	pos := cur.Pos()
	quote := cur.String()[0]
	rest := cur.Consume(1)

	var sb strings.Builder
	for {
		chunk, r := rest.ConsumeUntilChar(quote)
		sb.WriteString(chunk.String())
		if r.IsEmpty() {
			p.addError(cur, "string literal missing closing quote")
			return String(pos, sb.String()), r, true
		}
		r = r.Consume(1)
		// A doubled quote inside the literal is a literal quote character.
		if r.StartsWithChar(quote) {
			sb.WriteByte(quote)
			rest = r.Consume(1)
			continue
		}
		return String(pos, sb.String()), r, true
	}
}

// parseMAAscString recognizes the MA-dialect `+ASC"..."` string form.
func (p *Parser) parseMAAscString(cur Cursor) (Term, Cursor, bool) {
	rest := cur.Consume(4) // skip "+ASC"
	return p.parseStringLiteral(rest)
}

func (p *Parser) parseIdentOrWordOp(cur Cursor) (Term, Cursor, bool) {
	pos := cur.Pos()
	word, rest := cur.ConsumeWhile(IsIdentChar)
	upper := strings.ToUpper(word.String())
	if op, isOp := keywordOps[upper]; isOp {
		return Term{Kind: KindOp, Pos: pos, Op: op}, rest, true
	}
	return Label(pos, word.String()), rest, true
}

var symbolOps = []struct {
	sym string
	op  Op
}{
	{"<<", OpShl},
	{">>", OpShr},
	{"==", OpEq},
	{"!=", OpNe},
	{"<=", OpLe},
	{">=", OpGe},
	{"<", OpLt},
	{">", OpGt},
	{"+", OpAdd}, // disambiguated against unary below
	{"-", OpSub},
	{"*", OpMul},
	{"/", OpDiv},
	{"&", OpAnd},
	{"!", OpOr},
	{"^", OpXor},
	{"~", OpUNot},
}

func (p *Parser) parseSymbolOp(cur Cursor) (Term, Cursor, bool) {
	pos := cur.Pos()

	// MA remaps the comparison operators < and > onto SHL/SHR.
	if p.Dialect == style.MA {
		if cur.StartsWithChar('<') {
			return Term{Kind: KindOp, Pos: pos, Op: OpShl}, cur.Consume(1), true
		}
		if cur.StartsWithChar('>') {
			return Term{Kind: KindOp, Pos: pos, Op: OpShr}, cur.Consume(1), true
		}
	}

	for _, s := range symbolOps {
		if !cur.StartsWithString(s.sym) {
			continue
		}
		unary := p.prevKind.canPrecedeUnary()
		switch s.op {
		case OpAdd:
			if unary {
				return Term{Kind: KindOp, Pos: pos, Op: OpUPlus}, cur.Consume(1), true
			}
		case OpSub:
			if unary {
				return Term{Kind: KindOp, Pos: pos, Op: OpUMinus}, cur.Consume(1), true
			}
		case OpUNot:
			return Term{Kind: KindOp, Pos: pos, Op: OpUNot}, cur.Consume(len(s.sym)), true
		}
		return Term{Kind: KindOp, Pos: pos, Op: s.op}, cur.Consume(len(s.sym)), true
	}

	p.addError(cur, "invalid token")
	return Term{}, cur.Consume(1), false
}
