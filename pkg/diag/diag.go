// Package diag defines the compiler's error taxonomy.
//
// Every failure the pipeline reports is fatal. A *Error carries its Kind,
// and errors.Is matches it against the per-kind sentinels below.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind classifies a compilation error
type Kind int

const (
	// Arity: print, assignment or call built with the wrong operand count
	Arity Kind = iota + 1
	// UnboundVariable: a variable read before any assignment to it
	UnboundVariable
	// InvalidCall: callee is not input, or input was given arguments
	InvalidCall
	// UnsupportedNode: a node outside the P0 grammar
	UnsupportedNode
	// Syntax: the frontend rejected the source text
	Syntax
)

func (k Kind) String() string {
	switch k {
	case Arity:
		return "arity"
	case UnboundVariable:
		return "unbound variable"
	case InvalidCall:
		return "invalid call"
	case UnsupportedNode:
		return "unsupported node"
	case Syntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is
var (
	ErrArity           = errors.New("arity error")
	ErrUnboundVariable = errors.New("unbound variable")
	ErrInvalidCall     = errors.New("invalid call")
	ErrUnsupportedNode = errors.New("unsupported node")
	ErrSyntax          = errors.New("syntax error")
)

func (k Kind) sentinel() error {
	switch k {
	case Arity:
		return ErrArity
	case UnboundVariable:
		return ErrUnboundVariable
	case InvalidCall:
		return ErrInvalidCall
	case UnsupportedNode:
		return ErrUnsupportedNode
	case Syntax:
		return ErrSyntax
	}
	return nil
}

// Error is a compilation error at an optional source line
type Error struct {
	Kind Kind
	Line int // 0 when the node has no source position
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("p0: line %d: %s", e.Line, e.Msg)
	}
	return "p0: " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

// Format renders the error for a terminal, optionally with ANSI color
func (e *Error) Format(useColor bool) string {
	var sb strings.Builder

	if useColor {
		sb.WriteString("\033[1;31m")
	}
	sb.WriteString("error[")
	sb.WriteString(e.Kind.String())
	sb.WriteString("]")
	if useColor {
		sb.WriteString("\033[0m")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	sb.WriteString("\n")

	if e.Line > 0 {
		if useColor {
			sb.WriteString("\033[1;34m")
		}
		fmt.Fprintf(&sb, "  --> line %d", e.Line)
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Errorf builds an *Error of the given kind
func Errorf(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Unsupported reports a node outside the grammar
func Unsupported(phase string, n any) *Error {
	return Errorf(UnsupportedNode, 0, "%s: unrecognized node %T", phase, n)
}

// KindOf returns the Kind of the first *Error in err's chain, or 0
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Report writes every error in err to w. Joined errors are reported one by
// one; errors outside the taxonomy get a plain "error:" prefix.
func Report(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			Report(w, e, useColor)
		}
		return
	}

	var de *Error
	if errors.As(err, &de) {
		io.WriteString(w, de.Format(useColor))
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
