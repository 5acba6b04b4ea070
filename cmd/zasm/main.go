// Command zasm is the batch CLI: it parses flags, builds a
// pipeline.Options, runs the two-pass assembly job, prints any recorded
// diagnostics, and sets the process exit code (0 on a clean assembly, 1
// if any error was recorded in either pass).
//
// Flag parsing is built here with the standard library's flag package
// rather than a third-party CLI framework (see DESIGN.md): beevik/cmd is
// a REPL command-tree dispatcher, a different concern, wired instead
// into cmd/zaeval.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mkern/zasm/internal/pipeline"
	"github.com/mkern/zasm/internal/style"
)

// stringList accumulates repeatable flag occurrences (--include, which
// may be given more than once) into a slice, the standard workaround for
// flag.Parse's lack of native repeatable-flag support.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("zasm", flag.ContinueOnError)

	styleName := fs.String("style", "", "source dialect: MA|M80|PASMO|ZASM (required)")
	cpuName := fs.String("cpu-type", "Z80", "target CPU: Z80|Z180|8080")
	binaryPath := fs.String("binary", "", "raw binary output path")
	hexPath := fs.String("hex", "", "Intel-HEX output path")
	symbolPath := fs.String("symbol", "", "symbol table output path")
	listPath := fs.String("list", "", "listing output path")
	fillStr := fs.String("fill", "0", "fill byte for address gaps (decimal or 0x-prefixed hex)")
	permissive := fs.Bool("permissive", false, "tolerate duplicate definitions with an unchanged value")
	numberBuild := fs.Bool("number-build", false, "increment the persisted build-number file on success")
	listForce := fs.Bool("list-force", false, "list lines even with LIST disabled")
	listCond := fs.Bool("list-cond", false, "list lines inside disabled conditional blocks too")
	address := fs.Bool("address", false, "show a load-address column in the listing")
	reformat := fs.String("reformat", "", "reformat the source into this dialect: MA|M80|PASMO|ZASM")
	reformatOut := fs.String("reformat-out", "", "reformatted source output path (required with --reformat)")
	modeline := fs.Bool("modeline", false, "emit a dialect modeline comment at the top of reformatted output")
	multiInc := fs.Bool("multi-inc", false, "re-inline an INCLUDE'd file every time it recurs, in reformatted output")
	keep := fs.Bool("keep", false, "preserve pass 1's listing as a separate file")
	csegStr := fs.String("cseg", "0", "CSEG base address")
	dsegStr := fs.String("dseg", "0", "DSEG base address")
	labcase := fs.String("labcase", "", "override label case sensitivity: on|off")

	var includeDirs stringList
	fs.Var(&includeDirs, "include", "include search directory (repeatable)")
	var defines stringList
	fs.Var(&defines, "define", "NAME[=VALUE] (repeatable)")
	var updates stringList
	fs.Var(&updates, "update", "ALL|ORG|BORG|OFFSET|PHASE|DEPHASE|LOAD (repeatable)")

	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "zasm: no source files given")
		return 2
	}

	dialect, ok := style.ParseDialect(*styleName)
	if !ok {
		fmt.Fprintf(os.Stderr, "zasm: --style is required and must be one of MA, M80, PASMO, ZASM (got %q)\n", *styleName)
		return 2
	}
	cpu, ok := style.ParseCPU(*cpuName)
	if !ok {
		fmt.Fprintf(os.Stderr, "zasm: unknown --cpu-type %q\n", *cpuName)
		return 2
	}

	fill, err := strconv.ParseInt(*fillStr, 0, 16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zasm: bad --fill value: %v\n", err)
		return 2
	}
	cseg, err := strconv.ParseInt(*csegStr, 0, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zasm: bad --cseg value: %v\n", err)
		return 2
	}
	dseg, err := strconv.ParseInt(*dsegStr, 0, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zasm: bad --dseg value: %v\n", err)
		return 2
	}

	defineMap := map[string]string{}
	for _, d := range defines {
		name, val, _ := strings.Cut(d, "=")
		defineMap[name] = val
	}

	var labCaseOverride *bool
	switch strings.ToUpper(*labcase) {
	case "ON":
		v := true
		labCaseOverride = &v
	case "OFF":
		v := false
		labCaseOverride = &v
	}

	if *reformat != "" && *reformatOut == "" {
		fmt.Fprintln(os.Stderr, "zasm: --reformat requires --reformat-out")
		return 2
	}

	opts := pipeline.Options{
		Dialect:         dialect,
		CPU:             cpu,
		Files:           files,
		IncludeDirs:     includeDirs,
		Defines:         defineMap,
		BinaryPath:      *binaryPath,
		HexPath:         *hexPath,
		SymbolPath:      *symbolPath,
		ListPath:        *listPath,
		Fill:            byte(fill),
		Update:          updates,
		Permissive:      *permissive,
		NumberBuild:     *numberBuild,
		ListForce:       *listForce,
		ListCond:        *listCond,
		Address:         *address,
		ReformatDialect: *reformat,
		ReformatPath:    *reformatOut,
		ModeLine:        *modeline,
		MultiInc:        *multiInc,
		Keep:            *keep,
		CSegBase:        cseg,
		DSegBase:        dseg,
		LabCase:         labCaseOverride,
		Invocation:      "zasm " + strings.Join(args, " "),
	}

	res, err := pipeline.Run(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zasm: %v\n", err)
		return 1
	}

	for _, e := range res.Errors {
		fmt.Println(e)
	}
	if res.Failed() {
		return 1
	}
	return 0
}
