// Symbol-file loading, the read-side counterpart of the pipeline's
// writeSymbolFile: parses the "name:\tEQU\tliteral\t; seg file:line"
// lines zasm --symbol produces and feeds them into a symtab.Table as
// already-resolved public labels.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/symtab"
)

func loadSymbolFile(sym *symtab.Table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		name, value, ok := parseSymbolLine(line)
		if !ok {
			continue
		}
		if err := sym.DefineLabel(name, true, true, value, style.Absolute, path, 0, 1); err != nil {
			continue
		}
		n++
	}
	return n, scanner.Err()
}

func parseSymbolLine(line string) (name string, value int64, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[1] != "EQU" {
		return "", 0, false
	}
	name = strings.TrimSuffix(fields[0], ":")
	v, err := parseLiteralHex(fields[2])
	if err != nil {
		return "", 0, false
	}
	return name, v, true
}

// parseLiteralHex reverses literalHex: it accepts any of the four
// dialects' hex-literal spellings ("&1234", "$1234", "#1234", "01234h").
func parseLiteralHex(s string) (int64, error) {
	switch {
	case strings.HasPrefix(s, "&"), strings.HasPrefix(s, "$"), strings.HasPrefix(s, "#"):
		return strconv.ParseInt(s[1:], 16, 32)
	case strings.HasSuffix(strings.ToLower(s), "h"):
		return strconv.ParseInt(s[:len(s)-1], 16, 32)
	default:
		return strconv.ParseInt(s, 0, 32)
	}
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
