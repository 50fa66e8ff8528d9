// Package frame assigns stack slots to the variables of a flattened program.
//
// Design: One forward pass; each distinct name gets the next 4-byte slot
// below the frame base, in first-seen order. Slots are never shared.
package frame

import (
	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/diag"
	"github.com/GriffinCanCode/p0c/pkg/logger"
)

const (
	// SlotSize is the width of one variable
	SlotSize = 4
	// StackAlign is the i386 cdecl stack slot alignment
	StackAlign = 4
)

// Layout maps variable names to %ebp-relative offsets
type Layout struct {
	offsets map[string]int
	names   []string
}

func newLayout() *Layout {
	return &Layout{offsets: make(map[string]int)}
}

// Compute lays out every variable of a flattened program
func Compute(p *ast.Program) (*Layout, error) {
	l := newLayout()
	if p == nil {
		return nil, diag.Unsupported("frame layout", p)
	}
	if p.Body != nil {
		for _, s := range p.Body.Stmts {
			if err := l.visitStmt(s); err != nil {
				return nil, err
			}
		}
	}
	logger.LogLayout(l.Len(), l.Size())
	return l, nil
}

func (l *Layout) visitStmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.PrintStatement:
		if len(s.Args) != 1 {
			return diag.Errorf(diag.Arity, s.Line, "print takes exactly 1 argument, got %d", len(s.Args))
		}
		return l.visitAtom(s.Args[0])

	case *ast.Assignment:
		if len(s.Targets) != 1 {
			return diag.Errorf(diag.Arity, s.Line, "assignments can be to only one variable at a time, got %d targets", len(s.Targets))
		}
		l.add(s.Targets[0])
		return l.visitValue(s.Value)

	case *ast.ExpressionStatement:
		return l.visitValue(s.X)

	default:
		return diag.Unsupported("frame layout", s)
	}
}

// visitValue accepts the right-hand sides a flattened program can hold
func (l *Layout) visitValue(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Addition:
		if err := l.visitAtom(e.Left); err != nil {
			return err
		}
		return l.visitAtom(e.Right)
	case *ast.Negation:
		return l.visitAtom(e.X)
	case *ast.Call:
		return nil
	default:
		return l.visitAtom(e)
	}
}

func (l *Layout) visitAtom(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.IntLiteral:
		return nil
	case *ast.VariableRef:
		l.add(e.Name)
		return nil
	default:
		return diag.Errorf(diag.UnsupportedNode, 0, "frame layout: expected literal or variable, got %T", e)
	}
}

func (l *Layout) add(name string) {
	if _, ok := l.offsets[name]; ok {
		return
	}
	l.names = append(l.names, name)
	l.offsets[name] = -SlotSize * len(l.names)
}

// Offset returns the slot of name relative to %ebp
func (l *Layout) Offset(name string) (int, bool) {
	off, ok := l.offsets[name]
	return off, ok
}

// Names returns the variables in slot order
func (l *Layout) Names() []string {
	return append([]string(nil), l.names...)
}

// Len returns the number of distinct variables
func (l *Layout) Len() int {
	return len(l.names)
}

// Size returns the bytes the prologue must reserve
func (l *Layout) Size() int {
	size := SlotSize * len(l.names)
	return (size + StackAlign - 1) &^ (StackAlign - 1)
}
