// Package frontend parses P0 source text into an ast.Program.
//
// Design: Minimal, focused on correctness. The parser is permissive about
// arity (print a, b and a = b = c parse) and leaves those checks to the
// flattener, which owns P0's well-formedness rules.
package frontend

import (
	"fmt"
	"os"

	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/logger"
)

// Parse parses P0 source. name is used for logging only.
func Parse(name, source string) (*ast.Program, error) {
	prog, err := NewParser(source).Parse()
	if err != nil {
		return nil, err
	}
	logger.LogParsing(name, ast.CountNodes(prog))
	return prog, nil
}

// ParseFile reads and parses a P0 source file
func ParseFile(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, string(src))
}
