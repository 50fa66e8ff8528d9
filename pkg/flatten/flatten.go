// Package flatten rewrites P0 programs into administrative normal form.
//
// Design: After flattening, every operand of an addition, negation or print
// is a literal or a variable. Intermediate values go to compiler temporaries
// named from a per-compilation counter; additions of two literals fold to a
// single literal. Input nodes are never modified, unchanged sub-trees are
// shared with the result.
package flatten

import (
	"fmt"

	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/diag"
	"github.com/GriffinCanCode/p0c/pkg/logger"
)

// TempPrefix starts every temporary name. No P0 identifier can contain '$'.
const TempPrefix = "$tmp"

// Context holds the state of one flattening run
type Context struct {
	bindings *Bindings
	tempID   int
}

// NewContext returns a context with an empty binding set and the
// temporary counter at zero.
func NewContext() *Context {
	return &Context{bindings: NewBindings()}
}

// Bindings exposes the names assigned so far
func (c *Context) Bindings() *Bindings {
	return c.bindings
}

// Temps returns the number of temporaries introduced so far
func (c *Context) Temps() int {
	return c.tempID
}

// Program flattens p in a fresh context
func Program(p *ast.Program) (*ast.Program, error) {
	return NewContext().Program(p)
}

// Program flattens p using c
func (c *Context) Program(p *ast.Program) (*ast.Program, error) {
	if p == nil {
		return nil, diag.Unsupported("flatten", p)
	}
	logger.Debug("Flattening program", "nodes", ast.CountNodes(p))

	body := p.Body
	if body == nil {
		body = &ast.Block{}
	}
	flat, err := c.block(body)
	if err != nil {
		return nil, err
	}

	logger.LogFlatten(len(flat.Stmts), c.tempID)
	return &ast.Program{Body: flat}, nil
}

// Flatten flattens any node and returns the resulting sequence.
//
// A Program or Block yields a single flattened container. A statement yields
// its expansion in execution order. An expression yields the temporary
// assignments that must run first followed by the flattened value, which
// callers substitute where the expression stood.
func (c *Context) Flatten(n ast.Node) ([]ast.Node, error) {
	switch n := n.(type) {
	case *ast.Program:
		flat, err := c.Program(n)
		if err != nil {
			return nil, err
		}
		return []ast.Node{flat}, nil

	case *ast.Block:
		flat, err := c.block(n)
		if err != nil {
			return nil, err
		}
		return []ast.Node{flat}, nil

	case ast.Stmt:
		stmts, err := c.stmt(n)
		if err != nil {
			return nil, err
		}
		return stmtNodes(stmts), nil

	case ast.Expr:
		pre, value, err := c.expr(n, 0)
		if err != nil {
			return nil, err
		}
		return append(stmtNodes(pre), value), nil

	default:
		return nil, diag.Unsupported("flatten", n)
	}
}

func (c *Context) block(b *ast.Block) (*ast.Block, error) {
	out := make([]ast.Stmt, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		flat, err := c.stmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, flat...)
	}
	return &ast.Block{Stmts: out}, nil
}

func (c *Context) stmt(s ast.Stmt) ([]ast.Stmt, error) {
	switch s := s.(type) {
	case *ast.PrintStatement:
		if len(s.Args) != 1 {
			return nil, diag.Errorf(diag.Arity, s.Line, "print takes exactly 1 argument, got %d", len(s.Args))
		}
		pre, arg, err := c.atomize(s.Args[0], s.Line)
		if err != nil {
			return nil, err
		}
		if arg == s.Args[0] {
			return []ast.Stmt{s}, nil
		}
		return append(pre, &ast.PrintStatement{Args: []ast.Expr{arg}, Line: s.Line}), nil

	case *ast.Assignment:
		if len(s.Targets) != 1 {
			return nil, diag.Errorf(diag.Arity, s.Line, "assignments can be to only one variable at a time, got %d targets", len(s.Targets))
		}
		pre, value, err := c.expr(s.Value, s.Line)
		if err != nil {
			return nil, err
		}
		// The target becomes visible only after its right-hand side.
		c.bindings.Record(s.Targets[0])
		if len(pre) == 0 && value == s.Value {
			return []ast.Stmt{s}, nil
		}
		return append(pre, &ast.Assignment{Targets: s.Targets, Value: value, Line: s.Line}), nil

	case *ast.ExpressionStatement:
		pre, value, err := c.expr(s.X, s.Line)
		if err != nil {
			return nil, err
		}
		if len(pre) == 0 && value == s.X {
			return []ast.Stmt{s}, nil
		}
		return append(pre, &ast.ExpressionStatement{X: value, Line: s.Line}), nil

	default:
		return nil, diag.Unsupported("flatten", s)
	}
}

// expr returns the statements that must run before the flattened value of e.
// The value is atomic, a call, or a single addition/negation over atoms.
func (c *Context) expr(e ast.Expr, line int) ([]ast.Stmt, ast.Expr, error) {
	switch e := e.(type) {
	case *ast.IntLiteral:
		return nil, e, nil

	case *ast.VariableRef:
		if err := c.checkBound(e, line); err != nil {
			return nil, nil, err
		}
		return nil, e, nil

	case *ast.Addition:
		l, lok := e.Left.(*ast.IntLiteral)
		r, rok := e.Right.(*ast.IntLiteral)
		if lok && rok {
			// int32 arithmetic wraps exactly like addl does at run time.
			return nil, ast.Int(l.Value + r.Value), nil
		}

		var pre []ast.Stmt
		left, right := e.Left, e.Right
		if !ast.IsAtomic(left) {
			stmts, tmp, err := c.spill(left, line)
			if err != nil {
				return nil, nil, err
			}
			pre = append(pre, stmts...)
			left = tmp
		}
		if !ast.IsAtomic(right) {
			stmts, tmp, err := c.spill(right, line)
			if err != nil {
				return nil, nil, err
			}
			pre = append(pre, stmts...)
			right = tmp
		}
		for _, operand := range []ast.Expr{left, right} {
			if v, ok := operand.(*ast.VariableRef); ok {
				if err := c.checkBound(v, line); err != nil {
					return nil, nil, err
				}
			}
		}
		if left == e.Left && right == e.Right {
			return pre, e, nil
		}
		return pre, ast.Add(left, right), nil

	case *ast.Negation:
		pre, operand, err := c.atomize(e.X, line)
		if err != nil {
			return nil, nil, err
		}
		if operand == e.X {
			return pre, e, nil
		}
		return pre, ast.Neg(operand), nil

	case *ast.Call:
		if len(e.Args) != 0 {
			return nil, nil, diag.Errorf(diag.InvalidCall, callLine(e, line), "%s() takes no arguments, got %d", e.Callee, len(e.Args))
		}
		if e.Callee != ast.InputFunc {
			return nil, nil, diag.Errorf(diag.InvalidCall, callLine(e, line), "invalid function %q called", e.Callee)
		}
		return nil, e, nil

	default:
		return nil, nil, diag.Unsupported("flatten", e)
	}
}

// atomize returns e itself when it is atomic, otherwise a temporary
// holding its value.
func (c *Context) atomize(e ast.Expr, line int) ([]ast.Stmt, ast.Expr, error) {
	if ast.IsAtomic(e) {
		return c.expr(e, line)
	}
	return c.spill(e, line)
}

// spill flattens tmp = e for a fresh temporary and returns a reference to it
func (c *Context) spill(e ast.Expr, line int) ([]ast.Stmt, ast.Expr, error) {
	name := c.newTemp()
	stmts, err := c.stmt(&ast.Assignment{Targets: []string{name}, Value: e, Line: line})
	if err != nil {
		return nil, nil, err
	}
	return stmts, ast.Var(name), nil
}

func (c *Context) newTemp() string {
	name := fmt.Sprintf("%s%d", TempPrefix, c.tempID)
	c.tempID++
	return name
}

func (c *Context) checkBound(v *ast.VariableRef, line int) error {
	if !c.bindings.IsBound(v.Name) {
		return diag.Errorf(diag.UnboundVariable, line, "variable %q used before assignment", v.Name)
	}
	return nil
}

func callLine(call *ast.Call, line int) int {
	if call.Line > 0 {
		return call.Line
	}
	return line
}

func stmtNodes(stmts []ast.Stmt) []ast.Node {
	nodes := make([]ast.Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}

// IsTemp reports whether name was introduced by the flattener
func IsTemp(name string) bool {
	return len(name) > len(TempPrefix) && name[:len(TempPrefix)] == TempPrefix
}
