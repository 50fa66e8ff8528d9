// Package frontend - Recursive descent parser for P0
// Design: Predictive parsing, one error per statement, resynchronize at newline
package frontend

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/GriffinCanCode/p0c/pkg/ast"
	"github.com/GriffinCanCode/p0c/pkg/diag"
)

// Grammar:
//
//	program    := { statement }
//	statement  := "print" [ expression { "," expression } ] NEWLINE
//	            | expression { "=" expression } NEWLINE
//	expression := unary { "+" unary }
//	unary      := "-" unary | postfix
//	postfix    := primary [ "(" [ expression { "," expression } ] ")" ]
//	primary    := INT | NAME | "(" expression ")"
//
// print with several operands and chained assignment are accepted here so
// that the flattener reports them as arity errors.

type Parser struct {
	lexer   *Lexer
	current Token
	errors  []error
}

// errSync unwinds the current statement after an error has been recorded
var errSync = errors.New("sync")

func NewParser(source string) *Parser {
	lexer := NewLexer(source)
	return &Parser{
		lexer:   lexer,
		current: lexer.NextToken(),
	}
}

// Parse reads the whole source. All syntax errors are returned joined; each
// one is a *diag.Error of kind Syntax.
func (p *Parser) Parse() (*ast.Program, error) {
	var stmts []ast.Stmt

	for !p.check(EOF) {
		if p.match(NEWLINE) {
			p.advance()
			continue
		}
		stmt, err := p.statement()
		if err != nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}

	if len(p.errors) > 0 {
		return nil, errors.Join(p.errors...)
	}
	return ast.NewProgram(stmts...), nil
}

func (p *Parser) statement() (ast.Stmt, error) {
	line := p.current.Line

	if p.match(PRINT) {
		p.advance()
		var args []ast.Expr
		if !p.match(NEWLINE, EOF) {
			list, err := p.expressionList()
			if err != nil {
				return nil, err
			}
			args = list
		}
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		return &ast.PrintStatement{Args: args, Line: line}, nil
	}

	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.match(ASSIGN) {
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{X: first, Line: line}, nil
	}

	// a = b = value: every expression but the last must be a name
	exprs := []ast.Expr{first}
	for p.match(ASSIGN) {
		p.advance()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}

	targets := make([]string, 0, len(exprs)-1)
	for _, e := range exprs[:len(exprs)-1] {
		v, ok := e.(*ast.VariableRef)
		if !ok {
			return nil, p.errorAt(line, "cannot assign to %s", ast.String(e))
		}
		targets = append(targets, v.Name)
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &ast.Assignment{Targets: targets, Value: exprs[len(exprs)-1], Line: line}, nil
}

func (p *Parser) expressionList() ([]ast.Expr, error) {
	var list []ast.Expr
	for {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if !p.match(COMMA) {
			return list, nil
		}
		p.advance()
	}
}

func (p *Parser) expression() (ast.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	for p.match(PLUS) {
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = ast.Add(left, right)
	}

	if p.match(MINUS) {
		return nil, p.error("subtraction is not supported; write a + -b")
	}
	return left, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if !p.match(MINUS) {
		return p.postfix()
	}
	p.advance()

	// -2147483648 is representable even though 2147483648 is not
	if p.match(INT) && p.current.Lexeme == minInt32Magnitude {
		p.advance()
		return ast.Neg(ast.Int(math.MinInt32)), nil
	}

	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	return ast.Neg(x), nil
}

const minInt32Magnitude = "2147483648"

func (p *Parser) postfix() (ast.Expr, error) {
	tok := p.current
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	if !p.match(LPAREN) {
		return e, nil
	}

	v, ok := e.(*ast.VariableRef)
	if !ok || tok.Type != NAME {
		return nil, p.error("only named functions can be called")
	}
	p.advance()

	var args []ast.Expr
	if !p.match(RPAREN) {
		if args, err = p.expressionList(); err != nil {
			return nil, err
		}
	}
	if err := p.consume(RPAREN, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return &ast.Call{Callee: v.Name, Args: args, Line: tok.Line}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.current

	switch tok.Type {
	case INT:
		p.advance()
		n, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			return nil, p.errorAt(tok.Line, "integer literal %s out of range", tok.Lexeme)
		}
		return ast.Int(int32(n)), nil

	case NAME:
		p.advance()
		return ast.Var(tok.Lexeme), nil

	case LPAREN:
		p.advance()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.consume(RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return e, nil

	case ILLEGAL:
		return nil, p.error(tok.Lexeme)
	}

	return nil, p.error(fmt.Sprintf("unexpected %s", tok))
}

func (p *Parser) endOfStatement() error {
	if p.match(NEWLINE, EOF) {
		if p.match(NEWLINE) {
			p.advance()
		}
		return nil
	}
	if p.match(ILLEGAL) {
		return p.error(p.current.Lexeme)
	}
	return p.error(fmt.Sprintf("unexpected %s at end of statement", p.current))
}

// synchronize skips to the start of the next statement
func (p *Parser) synchronize() {
	for !p.match(NEWLINE, EOF) {
		p.advance()
	}
	if p.match(NEWLINE) {
		p.advance()
	}
}

func (p *Parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			return true
		}
	}
	return false
}

func (p *Parser) check(typ TokenType) bool {
	return p.current.Type == typ
}

func (p *Parser) advance() Token {
	prev := p.current
	p.current = p.lexer.NextToken()
	return prev
}

func (p *Parser) consume(typ TokenType, msg string) error {
	if p.check(typ) {
		p.advance()
		return nil
	}
	return p.error(msg)
}

func (p *Parser) error(msg string) error {
	return p.errorAt(p.current.Line, "col %d: %s", p.current.Col, msg)
}

func (p *Parser) errorAt(line int, format string, args ...any) error {
	p.errors = append(p.errors, diag.Errorf(diag.Syntax, line, format, args...))
	return errSync
}
