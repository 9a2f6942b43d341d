package vm

import (
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/value"
)

// ErrHalted is returned when an observer stops execution.
var ErrHalted = errors.New("execution halted by observer")

// VmError is a fatal runtime error. An exception that no try statement
// catches ends execution with a VmError carrying the thrown value.
type VmError struct {
	Message string

	// Value is the thrown value for uncaught exceptions, undefined
	// otherwise.
	Value value.Value

	// Function and Location identify the instruction that failed, if known.
	Function string
	Location bytecode.SourceLocation
}

func (e *VmError) Error() string {
	if e.Function == "" {
		return e.Message
	}
	if e.Location.IsZero() {
		return fmt.Sprintf("%s (in %s)", e.Message, e.Function)
	}
	return fmt.Sprintf("%s (in %s at %s)", e.Message, e.Function, e.Location)
}

// Position returns the 1-based line and column of the failing instruction,
// or zeros if unknown.
func (e *VmError) Position() (int, int) {
	return e.Location.Line, e.Location.Column
}

// Kind returns the diagnostic category of the error.
func (e *VmError) Kind() string {
	return "runtime error"
}

// Detail returns the message, naming the function that failed.
func (e *VmError) Detail() string {
	if e.Function == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (in %s)", e.Message, e.Function)
}

// Exception is returned by a native function to throw a value that script
// code may catch.
type Exception struct {
	Value value.Value
}

func (e *Exception) Error() string {
	return "exception thrown by native function"
}

// Throw returns an error that throws v when returned from a native.
func Throw(v value.Value) error {
	return &Exception{Value: v}
}
