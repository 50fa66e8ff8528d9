// Package ast - Constructors for hand-built trees
package ast

// NewProgram wraps stmts in a Program
func NewProgram(stmts ...Stmt) *Program {
	return &Program{Body: &Block{Stmts: stmts}}
}

func Print(e Expr) *PrintStatement {
	return &PrintStatement{Args: []Expr{e}}
}

func Assign(name string, e Expr) *Assignment {
	return &Assignment{Targets: []string{name}, Value: e}
}

func Discard(e Expr) *ExpressionStatement {
	return &ExpressionStatement{X: e}
}

func Int(v int32) *IntLiteral {
	return &IntLiteral{Value: v}
}

func Var(name string) *VariableRef {
	return &VariableRef{Name: name}
}

func Add(l, r Expr) *Addition {
	return &Addition{Left: l, Right: r}
}

func Neg(e Expr) *Negation {
	return &Negation{X: e}
}

// Input builds the input() call
func Input() *Call {
	return &Call{Callee: InputFunc}
}
