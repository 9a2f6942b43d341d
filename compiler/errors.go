package compiler

import "fmt"

// CompileError reports a program the compiler cannot translate: an
// unsupported binding shape, an invalid assignment target, a misplaced
// break or continue, or a function that exceeds the operand limits.
type CompileError struct {
	Message string
	File    string
	Line    int // 1-based, 0 if unknown
	Column  int // 1-based, 0 if unknown
}

func (e *CompileError) Error() string {
	if e.Line == 0 {
		return "compile error: " + e.Message
	}
	file := e.File
	if file == "" {
		file = "unknown"
	}
	return fmt.Sprintf("compile error: %s\n\nlocation: %s:%d:%d (line %d, column %d)",
		e.Message, file, e.Line, e.Column, e.Line, e.Column)
}

// Position returns the 1-based line and column of the error.
func (e *CompileError) Position() (int, int) {
	return e.Line, e.Column
}

// Kind returns the diagnostic category of the error.
func (e *CompileError) Kind() string { return "compile error" }

// Detail returns the message without a category prefix.
func (e *CompileError) Detail() string { return e.Message }
