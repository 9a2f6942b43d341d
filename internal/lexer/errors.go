package lexer

import (
	"fmt"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// LexError describes malformed input found while scanning. Line and Column
// are 1-indexed.
type LexError struct {
	Message string
	Line    int
	Column  int
	File    string
}

func (e *LexError) Error() string {
	return e.Message
}

// Position returns the 1-indexed line and column of the error.
func (e *LexError) Position() (int, int) {
	return e.Line, e.Column
}

func (l *Lexer) errorf(pos token.Position, format string, args ...any) *LexError {
	return &LexError{
		Message: fmt.Sprintf(format, args...),
		Line:    pos.LineNumber(),
		Column:  pos.ColumnNumber(),
		File:    l.file,
	}
}

// errorHere reports an error at the current scanning position.
func (l *Lexer) errorHere(format string, args ...any) *LexError {
	return l.errorf(l.Position(), format, args...)
}

// Kind returns the diagnostic category of the error.
func (e *LexError) Kind() string { return "syntax error" }

// Detail returns the message without a category prefix.
func (e *LexError) Detail() string { return e.Message }
