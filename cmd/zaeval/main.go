// Command zaeval is an interactive console: a REPL over the expression
// parser, instruction encoder and symbol table, useful for trying out
// one operand or mnemonic without running a whole assembly job. It
// reuses the parser, encoder and symbol table packages directly rather
// than driving the two-pass pipeline.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/beevik/cmd"
	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/symtab"
	"github.com/mkern/zasm/internal/term"
)

// Console holds everything a command handler needs: the active dialect/
// CPU/case-sensitivity settings, the symbol table being queried, and the
// input/output streams of the current session.
type Console struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool

	dialect style.Dialect
	cpu     style.CPU
	mode    term.Mode

	sym      *symtab.Table
	tp       term.Parser
	settings *settings
	lastCmd  *cmd.Selection
	pc       int64
}

// New creates a console with MA/Z80 defaults, matching zaeval's own
// --style/--cpu-type flag defaults.
func New() *Console {
	c := &Console{
		dialect:  style.MA,
		cpu:      style.Z80,
		mode:     term.Simple,
		settings: newSettings(),
	}
	c.sym = symtab.New(c.dialect.CaseSensitiveDefault(), false)
	c.tp.Dialect = c.dialect
	c.onSettingsUpdate()
	return c
}

func main() {
	stylePtr := flag.String("style", "MA", "initial source dialect: MA|M80|PASMO|ZASM")
	cpuPtr := flag.String("cpu-type", "Z80", "initial target CPU: Z80|Z180|8080")
	symbolPath := flag.String("symbol", "", "preload a symbol file written by zasm --symbol")
	flag.Parse()

	c := New()
	if d, ok := style.ParseDialect(*stylePtr); ok {
		c.dialect = d
	}
	if cp, ok := style.ParseCPU(*cpuPtr); ok {
		c.cpu = cp
	}
	c.onSettingsUpdate()

	if *symbolPath != "" {
		n, err := loadSymbolFile(c.sym, *symbolPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "zaeval: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "zaeval: loaded %d symbols from %s\n", n, *symbolPath)
	}

	interactive := isTerminal(os.Stdin)
	c.RunCommands(os.Stdin, os.Stdout, interactive)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// RunCommands reads lines from r and dispatches them against the command
// tree, writing results to w: one blocking read per iteration, a prompt
// only in interactive mode, and a re-run of the last successful command
// on a blank line.
func (c *Console) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	c.input = bufio.NewScanner(r)
	c.output = bufio.NewWriter(w)
	c.interactive = interactive

	if interactive {
		c.println("zaeval - expression/encoder console (type 'help' for commands)")
	}

	for {
		c.prompt()
		line, err := c.getLine()
		if err != nil {
			break
		}
		if err := c.processCommand(line); err != nil {
			break
		}
	}
	if interactive {
		c.println()
	}
}

func (c *Console) processCommand(line string) error {
	var sel cmd.Selection
	if line != "" {
		var err error
		sel, err = cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			c.println("Command not found.")
			return nil
		case err == cmd.ErrAmbiguous:
			c.println("Command is ambiguous.")
			return nil
		case err != nil:
			c.printf("ERROR: %v.\n", err)
			return nil
		}
	} else if c.lastCmd != nil {
		sel = *c.lastCmd
	}

	if sel.Command == nil {
		return nil
	}
	if sel.Command.Data == nil && sel.Command.Subtree != nil {
		c.displayCommands(sel.Command.Subtree, nil)
		return nil
	}

	c.lastCmd = &sel
	handler := sel.Command.Data.(func(*Console, cmd.Selection) error)
	return handler(c, sel)
}

func (c *Console) getLine() (string, error) {
	if c.input.Scan() {
		return c.input.Text(), nil
	}
	if c.input.Err() != nil {
		return "", c.input.Err()
	}
	return "", io.EOF
}

func (c *Console) prompt() {
	if !c.interactive {
		return
	}
	c.printf("%s/%s> ", c.dialect, c.cpu)
	c.flush()
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.output, format, args...)
	c.flush()
}

func (c *Console) println(args ...any) {
	fmt.Fprintln(c.output, args...)
	c.flush()
}

func (c *Console) flush() { c.output.Flush() }

// onSettingsUpdate re-derives the parser mode and symbol-table case
// policy whenever the dialect/cpu/case-sensitivity settings change,
// whether from --style/--cpu-type at startup or a "set" command.
func (c *Console) onSettingsUpdate() {
	c.mode = term.Full
	if c.dialect == style.MA {
		c.mode = term.Simple
	}
	c.tp.Dialect = c.dialect
	if c.sym != nil {
		c.sym.CaseSensitive = c.settings.caseSensitiveOverride(c.dialect)
	}
}

// Here implements term.Resolver: the console's "$"/here token tracks a
// settable fake PC rather than an assembler's real LC, so EQU-free
// expressions that reference "$" still evaluate to something.
func (c *Console) Here() (int64, bool) { return c.pc, true }

// ResolveLabel implements term.Resolver by consulting the loaded symbol
// table.
func (c *Console) ResolveLabel(name string) (int64, bool, bool) {
	l, ok := c.sym.Resolve(name)
	if !ok {
		return 0, false, false
	}
	return l.Value, l.Defined, true
}
