// Package interp evaluates P0 programs directly on the syntax tree.
//
// It is the reference semantics for the compiler: a program and its flattened
// form must print the same lines for the same input. Arithmetic wraps at 32
// bits, matching the generated code.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/diag"
	"github.com/GriffinCanCode/p0c/pkg/logger"
)

type state struct {
	vars   map[string]int32
	in     *bufio.Scanner
	out    *bufio.Writer
	inputs int
}

// Run executes p, reading input() values one per line from in and writing
// print output to out.
func Run(p *ast.Program, in io.Reader, out io.Writer) error {
	if p == nil {
		return diag.Unsupported("interp", p)
	}
	st := &state{
		vars: make(map[string]int32),
		in:   bufio.NewScanner(in),
		out:  bufio.NewWriter(out),
	}

	var err error
	if p.Body != nil {
		err = st.evalBlock(p.Body)
	}
	if ferr := st.out.Flush(); err == nil {
		err = ferr
	}
	logger.Debug("Interpreted program", "vars", len(st.vars), "inputs", st.inputs, "ok", err == nil)
	return err
}

func (st *state) evalBlock(block *ast.Block) error {
	for _, stmt := range block.Stmts {
		switch s := stmt.(type) {
		case *ast.PrintStatement:
			if len(s.Args) != 1 {
				return diag.Errorf(diag.Arity, s.Line, "print takes exactly 1 argument, got %d", len(s.Args))
			}
			val, err := st.evalExpr(s.Args[0], s.Line)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(st.out, val); err != nil {
				return err
			}
		case *ast.Assignment:
			if len(s.Targets) != 1 {
				return diag.Errorf(diag.Arity, s.Line, "assignments can be to only one variable at a time, got %d targets", len(s.Targets))
			}
			val, err := st.evalExpr(s.Value, s.Line)
			if err != nil {
				return err
			}
			st.vars[s.Targets[0]] = val
		case *ast.ExpressionStatement:
			if _, err := st.evalExpr(s.X, s.Line); err != nil {
				return err
			}
		default:
			return diag.Unsupported("interp", s)
		}
	}
	return nil
}

func (st *state) evalExpr(e ast.Expr, line int) (int32, error) {
	switch ex := e.(type) {
	case *ast.IntLiteral:
		return ex.Value, nil
	case *ast.VariableRef:
		val, ok := st.vars[ex.Name]
		if !ok {
			return 0, diag.Errorf(diag.UnboundVariable, line, "variable %s used before assignment", ex.Name)
		}
		return val, nil
	case *ast.Addition:
		left, err := st.evalExpr(ex.Left, line)
		if err != nil {
			return 0, err
		}
		right, err := st.evalExpr(ex.Right, line)
		if err != nil {
			return 0, err
		}
		return left + right, nil
	case *ast.Negation:
		x, err := st.evalExpr(ex.X, line)
		if err != nil {
			return 0, err
		}
		return -x, nil
	case *ast.Call:
		if len(ex.Args) != 0 {
			return 0, diag.Errorf(diag.InvalidCall, ex.Line, "input() takes no arguments, got %d", len(ex.Args))
		}
		if ex.Callee != ast.InputFunc {
			return 0, diag.Errorf(diag.InvalidCall, ex.Line, "unknown function %s; only input() can be called", ex.Callee)
		}
		return st.input()
	default:
		return 0, diag.Unsupported("interp", ex)
	}
}

// input reads the next non-blank line as a decimal integer
func (st *state) input() (int32, error) {
	for st.in.Scan() {
		text := strings.TrimSpace(st.in.Text())
		if text == "" {
			continue
		}
		st.inputs++
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("input %d: %q is not a 32-bit integer", st.inputs, text)
		}
		return int32(n), nil
	}
	if err := st.in.Err(); err != nil {
		return 0, fmt.Errorf("input: %w", err)
	}
	return 0, fmt.Errorf("input: unexpected end of input after %d values", st.inputs)
}
