// Package compiler drives the P0 pipeline: parse, flatten, lay out the
// frame, generate i386 assembly and write it out.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/codegen/x86"
	"github.com/GriffinCanCode/p0c/pkg/flatten"
	"github.com/GriffinCanCode/p0c/pkg/frame"
	"github.com/GriffinCanCode/p0c/pkg/frontend"
	"github.com/GriffinCanCode/p0c/pkg/logger"
)

// AsmExt is the extension of generated assembly files
const AsmExt = ".s"

// Result holds every artifact of one compilation
type Result struct {
	Flat     *ast.Program
	Layout   *frame.Layout
	Assembly string
	Temps    int
}

// Compile runs the back half of the pipeline on an already built tree
func Compile(prog *ast.Program) (*Result, error) {
	ctx := flatten.NewContext()

	logger.LogPhase("flatten")
	flat, err := ctx.Program(prog)
	if err != nil {
		return nil, err
	}
	logger.LogPhaseComplete("flatten")

	logger.LogPhase("layout")
	layout, err := frame.Compute(flat)
	if err != nil {
		return nil, err
	}
	logger.LogPhaseComplete("layout")

	logger.LogPhase("codegen")
	asm, err := x86.NewGenerator(nil).GenerateWithValidation(flat, layout)
	if err != nil {
		return nil, err
	}
	logger.LogPhaseComplete("codegen")

	return &Result{
		Flat:     flat,
		Layout:   layout,
		Assembly: asm,
		Temps:    ctx.Temps(),
	}, nil
}

// CompileSource parses and compiles P0 source text. name is used for logging.
func CompileSource(name, src string) (*Result, error) {
	logger.LogPhase("parse")
	prog, err := frontend.Parse(name, src)
	if err != nil {
		return nil, err
	}
	logger.LogPhaseComplete("parse")
	return Compile(prog)
}

// CompileFile compiles the source file at path and writes the assembly to
// out, or to OutputPath(path) when out is empty. It returns the path written.
// Nothing is written if any phase fails.
func CompileFile(path, out string) (string, error) {
	logger.LogFileProcessing(path)

	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	res, err := CompileSource(path, string(src))
	if err != nil {
		return "", err
	}

	if out == "" {
		out = OutputPath(path)
	}
	if err := WriteFileAtomic(out, []byte(res.Assembly)); err != nil {
		return "", err
	}
	logger.LogOutputWritten(out, len(res.Assembly))
	return out, nil
}

// OutputPath names the assembly file for a source file: the base name with
// its last extension replaced, in the current directory.
func OutputPath(src string) string {
	base := filepath.Base(src)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base + AsmExt
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
