// Package listing implements the per-line assembly listing format: an
// optional load-address column, the program address, up to six emitted
// bytes, the source line text, and a following "*** ERROR:" line for any
// diagnostic raised on that line. A header records the invocation,
// working directory, pass number and timestamp.
package listing

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// bytesPerLine is the number of emitted bytes shown on a line's first
// dump row before continuation rows are used.
const bytesPerLine = 6

// Listing writes the textual assembly listing to w.
type Listing struct {
	w          io.Writer
	ShowLoad   bool // --address: print an extra load-address column
	ForceAll   bool // --list-force: list lines even with LIST off
	CondLines  bool // --list-cond: list disabled conditional-block lines too
}

// New creates a listing writer.
func New(w io.Writer, showLoad bool) *Listing {
	return &Listing{w: w, ShowLoad: showLoad}
}

// Header writes the listing's invocation/timestamp banner.
func (l *Listing) Header(invocation, cwd string, pass int, when time.Time) {
	fmt.Fprintf(l.w, "%s\n", invocation)
	fmt.Fprintf(l.w, "cwd: %s   pass %d   %s\n\n", cwd, pass, when.Format("2006-01-02 15:04:05"))
}

// Line writes one source line's listing row: the load address (if
// enabled), the program address, up to six emitted bytes, and the
// source text, continuing onto further indented rows for longer byte
// dumps. Any errs strings are appended on "*** ERROR:" rows that follow.
func (l *Listing) Line(loadAddr, pc int64, emitted []byte, text string, errMsgs []string) {
	prefix := fmt.Sprintf("%04X", pc&0xFFFF)
	if l.ShowLoad {
		prefix = fmt.Sprintf("%04X %s", loadAddr&0xFFFF, prefix)
	}

	if len(emitted) == 0 {
		fmt.Fprintf(l.w, "%s%s %s\n", prefix, strings.Repeat(" ", 3*bytesPerLine), text)
	} else {
		first := emitted
		more := []byte(nil)
		if len(first) > bytesPerLine {
			first, more = emitted[:bytesPerLine], emitted[bytesPerLine:]
		}
		fmt.Fprintf(l.w, "%s %-*s %s\n", prefix, 3*bytesPerLine, byteDump(first), text)
		for len(more) > 0 {
			row := more
			if len(row) > bytesPerLine {
				row, more = more[:bytesPerLine], more[bytesPerLine:]
			} else {
				more = nil
			}
			indent := strings.Repeat(" ", len(prefix)+1)
			fmt.Fprintf(l.w, "%s%-*s\n", indent, 3*bytesPerLine, byteDump(row))
		}
	}
	for _, e := range errMsgs {
		fmt.Fprintf(l.w, "*** ERROR: %s\n", e)
	}
}

func byteDump(b []byte) string {
	var sb strings.Builder
	for i, by := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", by)
	}
	return sb.String()
}
