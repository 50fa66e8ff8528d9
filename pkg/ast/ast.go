// Package ast defines the P0 syntax tree.
//
// Design: Closed node set, sealed with unexported marker methods.
// Nodes are immutable once built, so passes share unchanged sub-trees
// by reference instead of copying them.
package ast

// Node is any P0 syntax tree node
type Node interface {
	node()
}

// Stmt is a node that may appear in a Block
type Stmt interface {
	Node
	stmt()
}

// Expr is a node that produces a value
type Expr interface {
	Node
	expr()
}

// Program is the root of a compilation unit
type Program struct {
	Body *Block
}

func (*Program) node() {}

// Block is an ordered statement sequence
type Block struct {
	Stmts []Stmt
}

func (*Block) node() {}

// Statements

// PrintStatement prints its operand followed by a newline.
// Args holds exactly one operand in a well-formed program.
type PrintStatement struct {
	Args []Expr
	Line int
}

func (*PrintStatement) node() {}
func (*PrintStatement) stmt() {}

// Assignment binds Value to the single name in Targets.
// Chained assignments (a = b = 1) parse to several targets and are rejected
// during flattening.
type Assignment struct {
	Targets []string
	Value   Expr
	Line    int
}

func (*Assignment) node() {}
func (*Assignment) stmt() {}

// Target returns the first assignment target, or "" if there is none.
func (a *Assignment) Target() string {
	if len(a.Targets) == 0 {
		return ""
	}
	return a.Targets[0]
}

// ExpressionStatement evaluates X for side effects and discards the result
type ExpressionStatement struct {
	X    Expr
	Line int
}

func (*ExpressionStatement) node() {}
func (*ExpressionStatement) stmt() {}

// Expressions

// IntLiteral is a 32-bit signed constant, the width of one stack slot
type IntLiteral struct {
	Value int32
}

func (*IntLiteral) node() {}
func (*IntLiteral) expr() {}

type VariableRef struct {
	Name string
}

func (*VariableRef) node() {}
func (*VariableRef) expr() {}

type Addition struct {
	Left  Expr
	Right Expr
}

func (*Addition) node() {}
func (*Addition) expr() {}

type Negation struct {
	X Expr
}

func (*Negation) node() {}
func (*Negation) expr() {}

// Call is a function call. P0 only accepts input() with no arguments.
type Call struct {
	Callee string
	Args   []Expr
	Line   int
}

func (*Call) node() {}
func (*Call) expr() {}

// InputFunc is the only callable builtin
const InputFunc = "input"

// IsAtomic reports whether e needs no further decomposition
func IsAtomic(e Expr) bool {
	switch e.(type) {
	case *IntLiteral, *VariableRef:
		return true
	}
	return false
}
