// Package ast - P0 pretty-printer
// Design: One statement per line, parentheses only where the tree needs them.
package ast

import (
	"io"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/p0c/pkg/diag"
)

// Fprint writes n as P0 source text
func Fprint(w io.Writer, n Node) error {
	var sb strings.Builder
	if err := write(&sb, n); err != nil {
		return err
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders n as P0 source text, or an error marker for foreign nodes
func String(n Node) string {
	var sb strings.Builder
	if err := write(&sb, n); err != nil {
		return "<" + err.Error() + ">"
	}
	return sb.String()
}

func write(sb *strings.Builder, n Node) error {
	switch n := n.(type) {
	case *Program:
		if n.Body == nil {
			return nil
		}
		return write(sb, n.Body)

	case *Block:
		for _, s := range n.Stmts {
			if err := write(sb, s); err != nil {
				return err
			}
			sb.WriteByte('\n')
		}

	case *PrintStatement:
		sb.WriteString("print")
		for i, arg := range n.Args {
			if i == 0 {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(", ")
			}
			if err := write(sb, arg); err != nil {
				return err
			}
		}

	case *Assignment:
		for _, t := range n.Targets {
			sb.WriteString(t)
			sb.WriteString(" = ")
		}
		return write(sb, n.Value)

	case *ExpressionStatement:
		return write(sb, n.X)

	case *IntLiteral:
		sb.WriteString(strconv.FormatInt(int64(n.Value), 10))

	case *VariableRef:
		sb.WriteString(n.Name)

	case *Addition:
		if err := write(sb, n.Left); err != nil {
			return err
		}
		sb.WriteString(" + ")
		// Addition is left-associative; a nested right operand needs parens.
		_, nested := n.Right.(*Addition)
		return writeGrouped(sb, n.Right, nested)

	case *Negation:
		sb.WriteByte('-')
		_, nested := n.X.(*Addition)
		return writeGrouped(sb, n.X, nested)

	case *Call:
		sb.WriteString(n.Callee)
		sb.WriteByte('(')
		for i, arg := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := write(sb, arg); err != nil {
				return err
			}
		}
		sb.WriteByte(')')

	default:
		return diag.Unsupported("print", n)
	}
	return nil
}

func writeGrouped(sb *strings.Builder, e Expr, group bool) error {
	if !group {
		return write(sb, e)
	}
	sb.WriteByte('(')
	if err := write(sb, e); err != nil {
		return err
	}
	sb.WriteByte(')')
	return nil
}
