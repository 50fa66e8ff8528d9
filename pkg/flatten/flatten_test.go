package flatten

import (
	"errors"
	"testing"

	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/diag"
)

type foreignExpr struct {
	ast.IntLiteral
}

type foreignStmt struct {
	ast.PrintStatement
}

func mustFlatten(t *testing.T, p *ast.Program) *ast.Program {
	t.Helper()
	flat, err := Program(p)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	return flat
}

func TestFlattenScenarios(t *testing.T) {
	tests := []struct {
		name string
		prog *ast.Program
		want string
	}{
		{
			name: "print folded constant",
			prog: ast.NewProgram(ast.Print(ast.Add(ast.Int(1), ast.Int(2)))),
			want: "print 3\n",
		},
		{
			name: "assignment folds without temporary",
			prog: ast.NewProgram(
				ast.Assign("x", ast.Add(ast.Int(1), ast.Int(2))),
				ast.Print(ast.Var("x")),
			),
			want: "x = 3\nprint x\n",
		},
		{
			name: "negated literal operand",
			prog: ast.NewProgram(ast.Print(ast.Add(ast.Int(1), ast.Neg(ast.Int(2))))),
			want: "$tmp1 = -2\n$tmp0 = 1 + $tmp1\nprint $tmp0\n",
		},
		{
			name: "input stays atomic",
			prog: ast.NewProgram(
				ast.Assign("y", ast.Input()),
				ast.Print(ast.Var("y")),
			),
			want: "y = input()\nprint y\n",
		},
		{
			name: "nested additions spill left then right",
			prog: ast.NewProgram(
				ast.Assign("a", ast.Input()),
				ast.Assign("b", ast.Add(ast.Add(ast.Var("a"), ast.Int(1)), ast.Add(ast.Var("a"), ast.Int(2)))),
			),
			want: "a = input()\n$tmp0 = a + 1\n$tmp1 = a + 2\nb = $tmp0 + $tmp1\n",
		},
		{
			name: "negation of expression",
			prog: ast.NewProgram(
				ast.Assign("a", ast.Int(4)),
				ast.Print(ast.Neg(ast.Add(ast.Var("a"), ast.Input()))),
			),
			want: "a = 4\n$tmp2 = input()\n$tmp1 = a + $tmp2\n$tmp0 = -$tmp1\nprint $tmp0\n",
		},
		{
			name: "discarded call",
			prog: ast.NewProgram(ast.Discard(ast.Input())),
			want: "input()\n",
		},
		{
			name: "discarded expression keeps call for side effects",
			prog: ast.NewProgram(ast.Discard(ast.Add(ast.Input(), ast.Int(1)))),
			want: "$tmp0 = input()\n$tmp0 + 1\n",
		},
		{
			name: "folding only applies to literal operands",
			prog: ast.NewProgram(ast.Print(ast.Add(ast.Add(ast.Int(1), ast.Int(2)), ast.Int(3)))),
			want: "$tmp1 = 3\n$tmp0 = $tmp1 + 3\nprint $tmp0\n",
		},
		{
			name: "self reference after binding",
			prog: ast.NewProgram(
				ast.Assign("x", ast.Int(1)),
				ast.Assign("x", ast.Add(ast.Var("x"), ast.Var("x"))),
				ast.Print(ast.Var("x")),
			),
			want: "x = 1\nx = x + x\nprint x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat := mustFlatten(t, tt.prog)
			if got := ast.String(flat); got != tt.want {
				t.Errorf("flattened program mismatch\ngot:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestConstantFoldingIntroducesNoTemporaries(t *testing.T) {
	ctx := NewContext()
	nodes, err := ctx.Flatten(ast.Add(ast.Int(1), ast.Int(2)))
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected a single node, got %d", len(nodes))
	}
	lit, ok := nodes[0].(*ast.IntLiteral)
	if !ok || lit.Value != 3 {
		t.Fatalf("expected literal 3, got %s", ast.String(nodes[0]))
	}
	if ctx.Temps() != 0 {
		t.Errorf("expected no temporaries, got %d", ctx.Temps())
	}
}

func TestConstantFoldingWraps(t *testing.T) {
	flat := mustFlatten(t, ast.NewProgram(ast.Print(ast.Add(ast.Int(2147483647), ast.Int(1)))))
	if got := ast.String(flat); got != "print -2147483648\n" {
		t.Errorf("got %q", got)
	}
}

func TestFlattenExpressionSequence(t *testing.T) {
	ctx := NewContext()
	ctx.Bindings().Record("x")

	nodes, err := ctx.Flatten(ast.Add(ast.Neg(ast.Var("x")), ast.Int(5)))
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if got := ast.String(nodes[0]); got != "$tmp0 = -x" {
		t.Errorf("prefix = %q", got)
	}
	if got := ast.String(nodes[1]); got != "$tmp0 + 5" {
		t.Errorf("value = %q", got)
	}
}

func TestFlattenIdempotent(t *testing.T) {
	programs := []*ast.Program{
		ast.NewProgram(ast.Print(ast.Int(1))),
		ast.NewProgram(
			ast.Assign("x", ast.Input()),
			ast.Assign("y", ast.Add(ast.Var("x"), ast.Neg(ast.Add(ast.Var("x"), ast.Int(3))))),
			ast.Print(ast.Add(ast.Var("y"), ast.Input())),
			ast.Discard(ast.Input()),
		),
	}

	for _, p := range programs {
		once := mustFlatten(t, p)
		twice := mustFlatten(t, once)
		if ast.String(once) != ast.String(twice) {
			t.Errorf("flattening is not idempotent\nonce:\n%s\ntwice:\n%s", ast.String(once), ast.String(twice))
		}
		for i := range once.Body.Stmts {
			if once.Body.Stmts[i] != twice.Body.Stmts[i] {
				t.Errorf("statement %d was rebuilt instead of shared", i)
			}
		}
	}
}

func TestFlattenDoesNotMutateInput(t *testing.T) {
	sum := ast.Add(ast.Neg(ast.Int(1)), ast.Int(2))
	p := ast.NewProgram(ast.Print(sum))
	before := ast.String(p)

	mustFlatten(t, p)

	if after := ast.String(p); after != before {
		t.Errorf("input changed: %q -> %q", before, after)
	}
	if _, ok := sum.Left.(*ast.Negation); !ok {
		t.Errorf("left operand replaced in place")
	}
}

func TestFlattenSharesAtomicSubtrees(t *testing.T) {
	x := ast.Var("x")
	p := ast.NewProgram(ast.Assign("x", ast.Int(1)), ast.Print(ast.Add(x, ast.Neg(ast.Int(2)))))
	flat := mustFlatten(t, p)

	add := flat.Body.Stmts[2].(*ast.Assignment).Value.(*ast.Addition)
	if add.Left != x {
		t.Errorf("atomic operand was copied instead of shared")
	}
}

func TestTemporaryUniqueness(t *testing.T) {
	var e ast.Expr = ast.Var("t")
	for i := 0; i < 20; i++ {
		e = ast.Add(ast.Neg(e), ast.Add(ast.Var("t"), ast.Int(int32(i))))
	}
	p := ast.NewProgram(ast.Assign("t", ast.Input()), ast.Print(e))

	ctx := NewContext()
	flat, err := ctx.Program(p)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, s := range flat.Body.Stmts {
		a, ok := s.(*ast.Assignment)
		if !ok || !IsTemp(a.Target()) {
			continue
		}
		if seen[a.Target()] {
			t.Errorf("temporary %s assigned twice", a.Target())
		}
		if a.Target() == "t" {
			t.Errorf("temporary collides with user variable")
		}
		seen[a.Target()] = true
	}
	if len(seen) != ctx.Temps() {
		t.Errorf("saw %d temporaries, context counted %d", len(seen), ctx.Temps())
	}
}

func TestCounterResetsPerCompilation(t *testing.T) {
	p := ast.NewProgram(ast.Print(ast.Neg(ast.Neg(ast.Int(1)))))
	first := ast.String(mustFlatten(t, p))
	second := ast.String(mustFlatten(t, p))
	if first != second {
		t.Errorf("output differs between runs:\n%s\n%s", first, second)
	}
}

func TestFlattenErrors(t *testing.T) {
	tests := []struct {
		name string
		prog *ast.Program
		want error
	}{
		{
			name: "unbound print",
			prog: ast.NewProgram(ast.Print(ast.Var("y"))),
			want: diag.ErrUnboundVariable,
		},
		{
			name: "unbound addition operand",
			prog: ast.NewProgram(ast.Assign("x", ast.Add(ast.Int(1), ast.Var("y")))),
			want: diag.ErrUnboundVariable,
		},
		{
			name: "unbound negation",
			prog: ast.NewProgram(ast.Discard(ast.Neg(ast.Var("y")))),
			want: diag.ErrUnboundVariable,
		},
		{
			name: "self reference before binding",
			prog: ast.NewProgram(ast.Assign("x", ast.Add(ast.Var("x"), ast.Int(1)))),
			want: diag.ErrUnboundVariable,
		},
		{
			name: "use before later assignment",
			prog: ast.NewProgram(ast.Print(ast.Var("x")), ast.Assign("x", ast.Int(1))),
			want: diag.ErrUnboundVariable,
		},
		{
			name: "print without operands",
			prog: ast.NewProgram(&ast.PrintStatement{}),
			want: diag.ErrArity,
		},
		{
			name: "print with two operands",
			prog: ast.NewProgram(&ast.PrintStatement{Args: []ast.Expr{ast.Int(1), ast.Int(2)}}),
			want: diag.ErrArity,
		},
		{
			name: "chained assignment",
			prog: ast.NewProgram(&ast.Assignment{Targets: []string{"a", "b"}, Value: ast.Int(1)}),
			want: diag.ErrArity,
		},
		{
			name: "input with arguments",
			prog: ast.NewProgram(ast.Discard(&ast.Call{Callee: "input", Args: []ast.Expr{ast.Int(1)}})),
			want: diag.ErrInvalidCall,
		},
		{
			name: "unknown function",
			prog: ast.NewProgram(ast.Assign("x", &ast.Call{Callee: "raw_input"})),
			want: diag.ErrInvalidCall,
		},
		{
			name: "foreign expression",
			prog: ast.NewProgram(ast.Print(ast.Neg(&foreignExpr{}))),
			want: diag.ErrUnsupportedNode,
		},
		{
			name: "foreign statement",
			prog: ast.NewProgram(&foreignStmt{}),
			want: diag.ErrUnsupportedNode,
		},
		{
			name: "nil expression",
			prog: ast.NewProgram(ast.Assign("x", nil)),
			want: diag.ErrUnsupportedNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat, err := Program(tt.prog)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if flat != nil {
				t.Errorf("expected no partial result")
			}
		})
	}
}

func TestErrorCarriesLine(t *testing.T) {
	p := ast.NewProgram(&ast.PrintStatement{Args: []ast.Expr{ast.Var("ghost")}, Line: 7})
	_, err := Program(p)

	var de *diag.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *diag.Error, got %T", err)
	}
	if de.Line != 7 || de.Kind != diag.UnboundVariable {
		t.Errorf("got kind %v line %d", de.Kind, de.Line)
	}
}

func TestTargetBoundAfterRightHandSide(t *testing.T) {
	ctx := NewContext()
	if _, err := ctx.Flatten(ast.Assign("x", ast.Int(1))); err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if !ctx.Bindings().IsBound("x") {
		t.Errorf("x should be bound after its assignment")
	}
}

func TestFlattenNilProgram(t *testing.T) {
	if _, err := Program(nil); !errors.Is(err, diag.ErrUnsupportedNode) {
		t.Errorf("expected unsupported node, got %v", err)
	}
	flat := mustFlatten(t, &ast.Program{})
	if len(flat.Body.Stmts) != 0 {
		t.Errorf("expected empty program")
	}
}
