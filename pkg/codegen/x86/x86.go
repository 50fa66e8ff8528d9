// Package x86 implements 32-bit x86 code generation for flattened P0.
//
// Design: Direct AT&T assembly text, one accumulator (%eax), every variable
// in a fixed %ebp-relative slot. cdecl calls into a small C runtime.
package x86

import (
	"fmt"
	"io"
	"strings"

	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/diag"
	"github.com/GriffinCanCode/p0c/pkg/frame"
	"github.com/GriffinCanCode/p0c/pkg/logger"
)

// Fixed symbols shared with the runtime
const (
	EntrySymbol = "main"
	PrintSymbol = "print_int_nl"
	InputSymbol = "input"
)

// Accumulator holds every intermediate result
const Accumulator = "%eax"

// Generator generates i386 assembly
type Generator struct {
	w      io.Writer
	buf    strings.Builder
	layout *frame.Layout
	insts  int
}

func NewGenerator(w io.Writer) *Generator {
	return &Generator{w: w}
}

// Generate emits the whole program as one entry routine. Nothing is written
// to the underlying writer unless generation succeeds.
func (g *Generator) Generate(prog *ast.Program, layout *frame.Layout) error {
	if prog == nil || layout == nil {
		return diag.Unsupported("codegen", prog)
	}
	g.buf.Reset()
	g.layout = layout
	g.insts = 0

	g.prologue()
	if prog.Body != nil {
		for _, s := range prog.Body.Stmts {
			if err := g.generateStmt(s); err != nil {
				logger.Error("Failed to generate statement", "arch", "i386", "error", err)
				return err
			}
		}
	}
	g.epilogue()

	logger.LogCodeGen("i386", EntrySymbol, g.insts)

	_, err := io.WriteString(g.w, g.buf.String())
	return err
}

// GenerateWithValidation generates and validates assembly
func (g *Generator) GenerateWithValidation(prog *ast.Program, layout *frame.Layout) (string, error) {
	var buf strings.Builder
	g.w = &buf

	if err := g.Generate(prog, layout); err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	assembly := buf.String()
	if err := ValidateProgram(assembly); err != nil {
		logger.Error("Assembly validation failed", "error", err)
		return "", fmt.Errorf("validation failed: %w", err)
	}

	return assembly, nil
}

// Instructions returns the number of instructions emitted by the last run
func (g *Generator) Instructions() int {
	return g.insts
}

func (g *Generator) prologue() {
	fmt.Fprintf(&g.buf, "\t.text\n")
	fmt.Fprintf(&g.buf, "\t.globl %s\n", EntrySymbol)
	fmt.Fprintf(&g.buf, "%s:\n", EntrySymbol)
	g.emit("pushl %%ebp")
	g.emit("movl %%esp, %%ebp")
	if size := g.layout.Size(); size > 0 {
		g.emit("subl $%d, %%esp", size)
	}
}

func (g *Generator) epilogue() {
	g.emit("movl $0, %s", Accumulator)
	g.emit("leave")
	g.emit("ret")
}

func (g *Generator) emit(format string, args ...any) {
	g.buf.WriteByte('\t')
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
	g.insts++
}

func (g *Generator) generateStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.PrintStatement:
		return g.generatePrint(s)
	case *ast.Assignment:
		return g.generateAssign(s)
	case *ast.ExpressionStatement:
		return g.generateDiscard(s)
	default:
		return diag.Unsupported("codegen", stmt)
	}
}

// generatePrint pushes the operand and calls the runtime printer
func (g *Generator) generatePrint(s *ast.PrintStatement) error {
	if len(s.Args) != 1 {
		return diag.Errorf(diag.Arity, s.Line, "print takes exactly 1 argument, got %d", len(s.Args))
	}
	arg, err := g.operand(s.Args[0])
	if err != nil {
		return err
	}
	g.emit("pushl %s", arg)
	g.emit("call %s", PrintSymbol)
	g.emit("addl $4, %%esp")
	return nil
}

func (g *Generator) generateAssign(s *ast.Assignment) error {
	if len(s.Targets) != 1 {
		return diag.Errorf(diag.Arity, s.Line, "assignments can be to only one variable at a time, got %d targets", len(s.Targets))
	}
	dest, err := g.slot(s.Targets[0])
	if err != nil {
		return err
	}

	switch v := s.Value.(type) {
	case *ast.IntLiteral:
		g.emit("movl $%d, %s", v.Value, dest)
		return nil

	case *ast.VariableRef:
		src, err := g.slot(v.Name)
		if err != nil {
			return err
		}
		// x86 has no memory-to-memory mov; go through the stack
		// so the accumulator is left alone.
		g.emit("pushl %s", src)
		g.emit("popl %s", dest)
		return nil

	case *ast.Call, *ast.Addition, *ast.Negation:
		if err := g.generateValue(v); err != nil {
			return err
		}
		g.emit("movl %s, %s", Accumulator, dest)
		return nil

	default:
		return diag.Errorf(diag.UnsupportedNode, s.Line, "codegen: cannot assign %T to %s", s.Value, s.Targets[0])
	}
}

// generateDiscard emits only what has a side effect
func (g *Generator) generateDiscard(s *ast.ExpressionStatement) error {
	switch x := s.X.(type) {
	case *ast.Call:
		return g.generateCall(x)
	case *ast.IntLiteral, *ast.VariableRef:
		_, err := g.operand(x)
		return err
	case *ast.Addition:
		if _, err := g.operand(x.Left); err != nil {
			return err
		}
		_, err := g.operand(x.Right)
		return err
	case *ast.Negation:
		_, err := g.operand(x.X)
		return err
	default:
		return diag.Errorf(diag.UnsupportedNode, s.Line, "codegen: cannot discard %T", s.X)
	}
}

// generateValue leaves the value of a flat expression in the accumulator
func (g *Generator) generateValue(e ast.Expr) error {
	switch v := e.(type) {
	case *ast.Call:
		return g.generateCall(v)

	case *ast.Addition:
		left, err := g.operand(v.Left)
		if err != nil {
			return err
		}
		right, err := g.operand(v.Right)
		if err != nil {
			return err
		}
		g.emit("movl %s, %s", left, Accumulator)
		g.emit("addl %s, %s", right, Accumulator)
		return nil

	case *ast.Negation:
		x, err := g.operand(v.X)
		if err != nil {
			return err
		}
		g.emit("movl %s, %s", x, Accumulator)
		g.emit("negl %s", Accumulator)
		return nil

	default:
		return diag.Unsupported("codegen", e)
	}
}

// generateCall calls input(); the result arrives in %eax
func (g *Generator) generateCall(c *ast.Call) error {
	if c.Callee != ast.InputFunc || len(c.Args) != 0 {
		return diag.Errorf(diag.InvalidCall, c.Line, "invalid call %s with %d arguments", c.Callee, len(c.Args))
	}
	g.emit("call %s", InputSymbol)
	return nil
}

// operand formats an atomic expression as an instruction operand
func (g *Generator) operand(e ast.Expr) (string, error) {
	switch v := e.(type) {
	case *ast.IntLiteral:
		return fmt.Sprintf("$%d", v.Value), nil
	case *ast.VariableRef:
		return g.slot(v.Name)
	default:
		return "", diag.Errorf(diag.UnsupportedNode, 0, "codegen: expected literal or variable, got %T", e)
	}
}

func (g *Generator) slot(name string) (string, error) {
	off, ok := g.layout.Offset(name)
	if !ok {
		return "", diag.Errorf(diag.UnsupportedNode, 0, "codegen: variable %q has no stack slot", name)
	}
	return fmt.Sprintf("%d(%%ebp)", off), nil
}
