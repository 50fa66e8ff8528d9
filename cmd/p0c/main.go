// Package main implements the p0c compiler binary.
//
// p0c compiles a P0 program (integers, +, unary -, print, input()) to 32-bit
// x86 assembly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/compiler"
	"github.com/GriffinCanCode/p0c/pkg/config"
	"github.com/GriffinCanCode/p0c/pkg/diag"
	"github.com/GriffinCanCode/p0c/pkg/flatten"
	"github.com/GriffinCanCode/p0c/pkg/frontend"
	"github.com/GriffinCanCode/p0c/pkg/interp"
	"github.com/GriffinCanCode/p0c/pkg/linker"
	"github.com/GriffinCanCode/p0c/pkg/logger"
)

const version = "0.1.0"

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	output  string
	flat    bool
	run     bool
	exe     bool
	verbose bool
	version bool
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, `p0c - Compile P0 programs to i386 assembly

Usage:
    p0c [flags] <source>

Flags:`)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("p0c", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.output, "o", "", "output file (default: <source base name>.s in the current directory)")
	fs.BoolVar(&opts.flat, "flat", false, "print the flattened program instead of writing assembly")
	fs.BoolVar(&opts.run, "run", false, "interpret the program, reading input() values from stdin")
	fs.BoolVar(&opts.exe, "exe", false, "assemble and link an executable with the system C compiler")
	fs.BoolVar(&opts.verbose, "v", false, "verbose output")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(stdout, fs)
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		usage(stderr, fs)
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "p0c version %s\n", version)
		return exitOK
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "error: expected exactly one source file, got %d\n", fs.NArg())
		usage(stderr, fs)
		return exitUsage
	}
	if modes := count(opts.flat, opts.run, opts.exe); modes > 1 {
		fmt.Fprintln(stderr, "error: -flat, -run and -exe are mutually exclusive")
		return exitUsage
	}

	cfg := config.Load(opts.verbose)
	if err := cfg.Apply(); err != nil {
		fmt.Fprintf(stderr, "error: cannot open log file: %v\n", err)
		return exitError
	}
	logger.LogCompilerStart(args)

	start := time.Now()
	source := fs.Arg(0)
	err := dispatch(opts, source, stdin, stdout)
	logger.LogCompilerComplete(err == nil, time.Since(start).String())

	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			logger.LogError(de.Kind.String(), source, de.Line, de.Msg)
		}
		diag.Report(stderr, err, useColor(stderr))
		return exitError
	}
	return exitOK
}

func dispatch(opts options, source string, stdin io.Reader, stdout io.Writer) error {
	switch {
	case opts.flat:
		return printFlat(source, stdout)
	case opts.run:
		return interpret(source, stdin, stdout)
	case opts.exe:
		return buildExecutable(source, opts.output)
	default:
		_, err := compiler.CompileFile(source, opts.output)
		return err
	}
}

func printFlat(source string, stdout io.Writer) error {
	prog, err := frontend.ParseFile(source)
	if err != nil {
		return err
	}
	flat, err := flatten.Program(prog)
	if err != nil {
		return err
	}
	return ast.Fprint(stdout, flat)
}

// interpret runs the flattened program, so -run rejects exactly what the
// compiler rejects.
func interpret(source string, stdin io.Reader, stdout io.Writer) error {
	prog, err := frontend.ParseFile(source)
	if err != nil {
		return err
	}
	flat, err := flatten.Program(prog)
	if err != nil {
		return err
	}
	return interp.Run(flat, stdin, stdout)
}

func buildExecutable(source, output string) error {
	asmPath, err := compiler.CompileFile(source, "")
	if err != nil {
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(asmPath, compiler.AsmExt)
	}
	return linker.Build(context.Background(), asmPath, output)
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && diag.UseColor(f)
}

func count(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
