package parser

import (
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/jsbox/internal/lexer"
	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// ParseError describes the first syntax error found in the input. Line and
// Column are 1-indexed. When the error originated in the lexer, Cause holds
// the *lexer.LexError.
type ParseError struct {
	Message string
	Line    int
	Column  int
	File    string
	Cause   error
}

// Kind returns "syntax error" for lexer failures and "parse error" for
// grammar failures.
func (e *ParseError) Kind() string {
	var lexErr *lexer.LexError
	if errors.As(e.Cause, &lexErr) {
		return "syntax error"
	}
	return "parse error"
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind(), e.Message)
}

// Detail returns the message without a category prefix.
func (e *ParseError) Detail() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Position returns the 1-indexed line and column of the error.
func (e *ParseError) Position() (int, int) {
	return e.Line, e.Column
}

func (p *Parser) errorAt(pos token.Position, format string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    pos.LineNumber(),
		Column:  pos.ColumnNumber(),
		File:    p.filename,
	}
}

// tokenError reports an error positioned at tok.
func (p *Parser) tokenError(tok token.Token, format string, args ...any) *ParseError {
	return p.errorAt(tok.StartPosition, format, args...)
}

// wrapLexError converts a lexer failure into a ParseError at the same
// position.
func (p *Parser) wrapLexError(err error) *ParseError {
	var lexErr *lexer.LexError
	if errors.As(err, &lexErr) {
		file := lexErr.File
		if file == "" {
			file = p.filename
		}
		return &ParseError{
			Message: lexErr.Message,
			Line:    lexErr.Line,
			Column:  lexErr.Column,
			File:    file,
			Cause:   err,
		}
	}
	return &ParseError{Message: err.Error(), File: p.filename, Cause: err}
}

// tokenDescription renders a token for use in error messages.
func tokenDescription(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of file"
	case token.IDENT:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case token.NUMBER:
		return fmt.Sprintf("number %s", tok.Literal)
	case token.STRING:
		return "string literal"
	case token.TEMPLATE_HEAD, token.TEMPLATE_MIDDLE, token.TEMPLATE_TAIL:
		return "template literal"
	case token.REGEXP:
		return "regular expression"
	}
	return fmt.Sprintf("%q", string(tok.Type))
}
