package ast

import (
	"bytes"
	"errors"
	"testing"

	"github.com/GriffinCanCode/p0c/pkg/diag"
)

type foreignExpr struct {
	IntLiteral
}

func TestIsAtomic(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"literal", Int(1), true},
		{"variable", Var("x"), true},
		{"addition", Add(Int(1), Int(2)), false},
		{"negation", Neg(Int(1)), false},
		{"call", Input(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAtomic(tt.expr); got != tt.want {
				t.Errorf("IsAtomic(%s) = %v, want %v", String(tt.expr), got, tt.want)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "print literal",
			node: NewProgram(Print(Int(3))),
			want: "print 3\n",
		},
		{
			name: "assignment and print",
			node: NewProgram(Assign("x", Add(Int(1), Var("y"))), Print(Var("x"))),
			want: "x = 1 + y\nprint x\n",
		},
		{
			name: "left nested addition",
			node: Add(Add(Int(1), Int(2)), Int(3)),
			want: "1 + 2 + 3",
		},
		{
			name: "right nested addition",
			node: Add(Int(1), Add(Int(2), Int(3))),
			want: "1 + (2 + 3)",
		},
		{
			name: "negated addition",
			node: Neg(Add(Var("a"), Int(1))),
			want: "-(a + 1)",
		},
		{
			name: "negative literal",
			node: Add(Int(1), Int(-2)),
			want: "1 + -2",
		},
		{
			name: "input call",
			node: Discard(Input()),
			want: "input()",
		},
		{
			name: "chained targets",
			node: &Assignment{Targets: []string{"a", "b"}, Value: Int(1)},
			want: "a = b = 1",
		},
		{
			name: "multi-argument print",
			node: &PrintStatement{Args: []Expr{Int(1), Int(2)}},
			want: "print 1, 2",
		},
		{
			name: "call with arguments",
			node: &Call{Callee: "f", Args: []Expr{Int(1), Var("x")}},
			want: "f(1, x)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(tt.node); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFprintForeignNode(t *testing.T) {
	var buf bytes.Buffer
	err := Fprint(&buf, Print(&foreignExpr{}))
	if !errors.Is(err, diag.ErrUnsupportedNode) {
		t.Fatalf("expected unsupported node error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no partial output, got %q", buf.String())
	}
}

func TestCountNodes(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want int
	}{
		{"literal", Int(1), 1},
		{"addition", Add(Int(1), Var("x")), 3},
		// Program, Block, Assignment, target, Call
		{"assign input", NewProgram(Assign("x", Input())), 5},
		// Program, Block, Print, Negation, Addition, 2 literals
		{"print expression", NewProgram(Print(Neg(Add(Int(1), Int(2))))), 7},
		{"discard", Discard(Var("x")), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountNodes(tt.node); got != tt.want {
				t.Errorf("CountNodes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAssignmentTarget(t *testing.T) {
	if got := Assign("x", Int(1)).Target(); got != "x" {
		t.Errorf("Target() = %q, want x", got)
	}
	if got := (&Assignment{Value: Int(1)}).Target(); got != "" {
		t.Errorf("Target() on empty targets = %q, want empty", got)
	}
}
