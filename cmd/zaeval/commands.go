// Command-tree registration: one package-level *cmd.Tree built in
// init(), command handlers typed as func(*Console, cmd.Selection) error
// stashed in Command.Data.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/beevik/cmd"
	"github.com/mkern/zasm/internal/driver"
	"github.com/mkern/zasm/internal/encode"
	"github.com/mkern/zasm/internal/style"
	"github.com/mkern/zasm/internal/term"
)

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree("zaeval")

	root.AddCommand(cmd.Command{
		Name:        "help",
		Brief:       "Display help for a command",
		Description: "Display a list of commands, or detailed help for one command.",
		Usage:       "help [<command>]",
		Data:        (*Console).cmdHelp,
	})
	root.AddCommand(cmd.Command{
		Name:  "eval",
		Brief: "Evaluate an expression",
		Description: "Parse and fold an expression using the active dialect's" +
			" binding rules, printing both the parsed term sequence and the" +
			" folded value.",
		Usage: "eval <expression>",
		Data:  (*Console).cmdEval,
	})
	root.AddCommand(cmd.Command{
		Name:  "encode",
		Brief: "Encode one instruction",
		Description: "Run the instruction encoder against a single mnemonic" +
			" and operand list, printing the resulting byte sequence.",
		Usage: "encode <mnemonic> [<operand>, ...]",
		Data:  (*Console).cmdEncode,
	})

	sym := cmd.NewTree("Symbol")
	root.AddCommand(cmd.Command{
		Name:    "symbol",
		Brief:   "Symbol table commands",
		Subtree: sym,
	})
	sym.AddCommand(cmd.Command{
		Name:        "list",
		Brief:       "List all symbols",
		Description: "List every symbol currently loaded, public and local.",
		Usage:       "symbol list",
		Data:        (*Console).cmdSymbolList,
	})
	sym.AddCommand(cmd.Command{
		Name:        "find",
		Brief:       "Find a symbol by name",
		Description: "Look up one symbol by name and print its value and origin.",
		Usage:       "symbol find <name>",
		Data:        (*Console).cmdSymbolFind,
	})
	sym.AddCommand(cmd.Command{
		Name:  "load",
		Brief: "Load a symbol file",
		Description: "Load the symbols written by \"zasm --symbol\", adding" +
			" them to the console's symbol table.",
		Usage: "symbol load <path>",
		Data:  (*Console).cmdSymbolLoad,
	})

	root.AddCommand(cmd.Command{
		Name:  "set",
		Brief: "Set a console variable",
		Description: "Set the value of a console variable (style, cputype," +
			" casesensitive, pc). Without arguments, display all variables.",
		Usage: "set [<var> <value>]",
		Data:  (*Console).cmdSet,
	})
	root.AddCommand(cmd.Command{
		Name:        "quit",
		Brief:       "Quit the console",
		Description: "Quit the console.",
		Usage:       "quit",
		Data:        (*Console).cmdQuit,
	})

	root.AddShortcut("e", "eval")
	root.AddShortcut("en", "encode")
	root.AddShortcut("sym", "symbol")
	root.AddShortcut("?", "help")
	root.AddShortcut("q", "quit")

	cmds = root
}

func (c *Console) cmdHelp(sel cmd.Selection) error {
	if len(sel.Args) == 0 {
		c.displayCommands(cmds, nil)
		return nil
	}
	found, err := cmds.Lookup(strings.Join(sel.Args, " "))
	if err != nil {
		c.printf("%v\n", err)
		return nil
	}
	if found.Command.Subtree != nil {
		c.displayCommands(found.Command.Subtree, found.Command)
		return nil
	}
	if found.Command.Usage != "" {
		c.printf("Usage: %s\n\n", found.Command.Usage)
	}
	switch {
	case found.Command.Description != "":
		c.printf("%s\n\n", found.Command.Description)
	case found.Command.Brief != "":
		c.printf("%s.\n\n", found.Command.Brief)
	}
	return nil
}

func (c *Console) displayCommands(tree *cmd.Tree, parent *cmd.Command) {
	c.printf("%s commands:\n", tree.Title)
	for _, cc := range tree.Commands {
		if cc.Brief != "" {
			c.printf("    %-12s  %s\n", cc.Name, cc.Brief)
		}
	}
	c.println()
}

func (c *Console) displayUsage(cc *cmd.Command) {
	if cc.Usage != "" {
		c.printf("Usage: %s\n", cc.Usage)
	}
}

func (c *Console) cmdEval(sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		c.displayUsage(sel.Command)
		return nil
	}
	expr := strings.Join(sel.Args, " ")
	cur := term.NewCursor("<eval>", 1, expr)
	terms, _, perr := c.tp.Parse(cur, term.AllowParens|term.AllowStrings)
	if perr != nil {
		c.printf("parse error: %v\n", perr)
		return nil
	}
	v, ok, isAddr, everr := term.Eval(terms, c.mode, false, c)
	if everr != nil {
		c.printf("eval error: %v\n", everr)
		return nil
	}
	c.printf("terms: %d, value: %d ($%04X), resolved: %v, address: %v\n",
		len(terms)-1, v, uint16(v), ok, isAddr)
	return nil
}

func (c *Console) cmdEncode(sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		c.displayUsage(sel.Command)
		return nil
	}
	mnemonic := strings.ToUpper(sel.Args[0])
	argText := strings.Join(sel.Args[1:], " ")
	argCur := term.NewCursor("<encode>", 1, argText)

	ctx := &encode.Context{
		Resolver: c,
		Mode:     c.mode,
		Lenient:  false,
		PC:       c.pc,
		CPU:      c.cpu,
		Dialect:  c.dialect,
	}
	bytes, err := driver.EncodeInstruction(mnemonic, argCur, ctx, c.dialect, &c.tp)
	if err != nil {
		c.printf("encode error: %v\n", err)
		return nil
	}
	c.printf("%s  (%d byte%s)\n", hexDump(bytes), len(bytes), plural(len(bytes)))
	return nil
}

func hexDump(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func (c *Console) cmdSymbolList(sel cmd.Selection) error {
	any := false
	for _, l := range c.sym.Publics() {
		any = true
		c.printf("%-16s %s  %s  %s:%d\n", l.Name, literalHex(l.Value, c.dialect), l.Segment, l.File, l.Line)
	}
	for _, l := range c.sym.Locals() {
		any = true
		c.printf("%-16s %s  %s  %s:%d\n", l.Name, literalHex(l.Value, c.dialect), l.Segment, l.File, l.Line)
	}
	if !any {
		c.println("No symbols loaded.")
	}
	return nil
}

func (c *Console) cmdSymbolFind(sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		c.displayUsage(sel.Command)
		return nil
	}
	l, ok := c.sym.Resolve(sel.Args[0])
	if !ok {
		c.printf("symbol %q not found\n", sel.Args[0])
		return nil
	}
	c.printf("%-16s %s  %s  defined=%v  %s:%d\n", l.Name, literalHex(l.Value, c.dialect), l.Segment, l.Defined, l.File, l.Line)
	return nil
}

func (c *Console) cmdSymbolLoad(sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		c.displayUsage(sel.Command)
		return nil
	}
	n, err := loadSymbolFile(c.sym, sel.Args[0])
	if err != nil {
		c.printf("%v\n", err)
		return nil
	}
	c.printf("loaded %d symbols\n", n)
	return nil
}

func (c *Console) cmdSet(sel cmd.Selection) error {
	switch len(sel.Args) {
	case 0:
		c.println("Variables:")
		c.settings.Display(c.output)
		c.flush()

	case 1:
		c.displayUsage(sel.Command)

	default:
		key, value := sel.Args[0], strings.Join(sel.Args[1:], " ")
		if err := c.settings.Set(key, value); err != nil {
			c.printf("%v\n", err)
			return nil
		}
		c.applySettings()
		c.println("Setting updated.")
	}
	return nil
}

// applySettings re-derives the live dialect/cpu/pc/mode fields a command
// handler actually reads from the settings struct a "set" command just
// mutated.
func (c *Console) applySettings() {
	if d, ok := style.ParseDialect(c.settings.Style); ok {
		c.dialect = d
	} else {
		c.settings.Style = c.dialect.String()
	}
	if cp, ok := style.ParseCPU(c.settings.CPUType); ok {
		c.cpu = cp
	} else {
		c.settings.CPUType = c.cpu.String()
	}
	c.pc = int64(c.settings.PC)
	c.onSettingsUpdate()
}

func (c *Console) cmdQuit(sel cmd.Selection) error {
	c.println("Goodbye.")
	os.Exit(0)
	return nil
}
