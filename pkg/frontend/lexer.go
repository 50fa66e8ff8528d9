// Package frontend - Lexer for P0 source text
// Design: Hand-written scanner over runes, one token of lookahead in the parser
package frontend

import (
	"fmt"
	"unicode"
)

type TokenType int

const (
	EOF TokenType = iota
	NEWLINE
	ILLEGAL

	// Literals
	INT
	NAME

	// Keywords
	PRINT

	// Operators
	PLUS
	MINUS
	ASSIGN

	// Delimiters
	LPAREN
	RPAREN
	COMMA
)

var tokenNames = map[TokenType]string{
	EOF:     "end of file",
	NEWLINE: "newline",
	ILLEGAL: "illegal token",
	INT:     "integer",
	NAME:    "name",
	PRINT:   "'print'",
	PLUS:    "'+'",
	MINUS:   "'-'",
	ASSIGN:  "'='",
	LPAREN:  "'('",
	RPAREN:  "')'",
	COMMA:   "','",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Col    int
}

func (t Token) String() string {
	switch t.Type {
	case INT, NAME:
		return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
	}
	return t.Type.String()
}

// Lexer scans P0 source. P0 has no compound statements, so any indentation
// on a statement line is an error, as it is in Python.
type Lexer struct {
	source      []rune
	pos         int
	line        int
	col         int
	parens      int
	atLineStart bool
}

func NewLexer(source string) *Lexer {
	return &Lexer{
		source:      []rune(source),
		line:        1,
		col:         1,
		atLineStart: true,
	}
}

// NextToken returns the next token. Blank and comment-only lines produce no
// NEWLINE; newlines inside parentheses are ignored.
func (l *Lexer) NextToken() Token {
	if l.atLineStart {
		if tok, ok := l.lineStart(); ok {
			return tok
		}
	}

	l.skipSpaces()

	if l.pos >= len(l.source) {
		if !l.atLineStart {
			// Unterminated last line still ends its statement
			l.atLineStart = true
			return Token{Type: NEWLINE, Line: l.line, Col: l.col}
		}
		return Token{Type: EOF, Line: l.line, Col: l.col}
	}

	c := l.peek()

	switch {
	case c == '#':
		l.skipComment()
		return l.NextToken()
	case c == '\\' && l.peekNext() == '\n':
		l.advance()
		l.consumeNewline()
		return l.NextToken()
	case c == '\n' || c == '\r':
		line, col := l.line, l.col
		l.consumeNewline()
		if l.parens > 0 {
			return l.NextToken()
		}
		l.atLineStart = true
		return Token{Type: NEWLINE, Line: line, Col: col}
	case unicode.IsDigit(c):
		return l.scanNumber()
	case unicode.IsLetter(c) || c == '_':
		return l.scanIdentifier()
	}

	line, col := l.line, l.col
	l.advance()
	tok := Token{Lexeme: string(c), Line: line, Col: col}

	switch c {
	case '+':
		tok.Type = PLUS
	case '-':
		tok.Type = MINUS
	case '=':
		tok.Type = ASSIGN
	case '(':
		l.parens++
		tok.Type = LPAREN
	case ')':
		if l.parens > 0 {
			l.parens--
		}
		tok.Type = RPAREN
	case ',':
		tok.Type = COMMA
	default:
		tok.Type = ILLEGAL
		tok.Lexeme = fmt.Sprintf("unexpected character %q", c)
	}
	return tok
}

// lineStart skips blank lines and reports indentation before the first
// token of a statement.
func (l *Lexer) lineStart() (Token, bool) {
	for {
		start := l.pos
		l.skipSpaces()
		indented := l.pos > start

		if l.pos >= len(l.source) {
			return Token{}, false
		}
		switch c := l.peek(); c {
		case '\n', '\r':
			l.consumeNewline()
			continue
		case '#':
			l.skipComment()
			continue
		}

		l.atLineStart = false
		if indented {
			return Token{Type: ILLEGAL, Lexeme: "unexpected indent", Line: l.line, Col: 1}, true
		}
		return Token{}, false
	}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	startCol := l.col

	for l.pos < len(l.source) && unicode.IsDigit(l.source[l.pos]) {
		l.advance()
	}
	// 12abc is not a number followed by a name
	if l.pos < len(l.source) && (unicode.IsLetter(l.source[l.pos]) || l.source[l.pos] == '_') {
		for l.pos < len(l.source) && isIdentRune(l.source[l.pos]) {
			l.advance()
		}
		return Token{
			Type:   ILLEGAL,
			Lexeme: fmt.Sprintf("invalid number literal %q", string(l.source[start:l.pos])),
			Line:   l.line,
			Col:    startCol,
		}
	}

	return Token{
		Type:   INT,
		Lexeme: string(l.source[start:l.pos]),
		Line:   l.line,
		Col:    startCol,
	}
}

func (l *Lexer) scanIdentifier() Token {
	start := l.pos
	startCol := l.col

	for l.pos < len(l.source) && isIdentRune(l.source[l.pos]) {
		l.advance()
	}

	text := string(l.source[start:l.pos])
	typ := NAME
	if text == "print" {
		typ = PRINT
	}

	return Token{
		Type:   typ,
		Lexeme: text,
		Line:   l.line,
		Col:    startCol,
	}
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

func (l *Lexer) skipSpaces() {
	for l.pos < len(l.source) && (l.source[l.pos] == ' ' || l.source[l.pos] == '\t' || l.source[l.pos] == '\f') {
		l.advance()
	}
}

func (l *Lexer) skipComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' && l.source[l.pos] != '\r' {
		l.advance()
	}
}

// consumeNewline eats \n, \r or \r\n
func (l *Lexer) consumeNewline() {
	if l.peek() == '\r' {
		l.pos++
		if l.peek() == '\n' {
			l.pos++
		}
	} else {
		l.pos++
	}
	l.line++
	l.col = 1
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.source) {
		return '\x00'
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return '\x00'
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	c := l.source[l.pos]
	l.pos++
	l.col++
	return c
}
