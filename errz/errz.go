// Package errz turns positioned errors from every pipeline stage into
// readable diagnostics with a source snippet and a caret under the failing
// column.
package errz

import (
	"errors"
	"strings"
)

// Located is implemented by errors that know where in the source they
// occurred. Line and column are 1-based; zero means unknown.
type Located interface {
	error
	Position() (line, column int)
}

// Kinded is implemented by errors that name their category, such as
// "syntax error" or "runtime error", separately from their message.
type Kinded interface {
	error
	Kind() string
	Detail() string
}

// Diagnostic is an error ready for display.
type Diagnostic struct {
	Kind     string
	Message  string
	Filename string
	Line     int
	Column   int
	// Source holds the lines shown above the caret, the failing line last.
	Source []SourceLine
	Hint   string
	Note   string
}

// SourceLine is one numbered line of source text.
type SourceLine struct {
	Number int
	Text   string
}

// contextLines is the number of lines shown before the failing line.
const contextLines = 1

// NewDiagnostic extracts the kind, message and position of err and attaches
// the matching lines of source.
func NewDiagnostic(err error, filename, source string) *Diagnostic {
	d := &Diagnostic{Kind: "error", Message: err.Error(), Filename: filename}
	var kinded Kinded
	if errors.As(err, &kinded) {
		d.Kind = kinded.Kind()
		d.Message = kinded.Detail()
	}
	var located Located
	if errors.As(err, &located) {
		d.Line, d.Column = located.Position()
	}
	if d.Line > 0 && source != "" {
		lines := strings.Split(source, "\n")
		if d.Line <= len(lines) {
			for n := max(1, d.Line-contextLines); n <= d.Line; n++ {
				d.Source = append(d.Source, SourceLine{
					Number: n,
					Text:   strings.TrimRight(lines[n-1], "\r"),
				})
			}
		}
	}
	return d
}

// FormatDiagnostic renders err against the source it was produced from.
func FormatDiagnostic(err error, filename, source string, colorize bool) string {
	return NewFormatter(colorize).Format(NewDiagnostic(err, filename, source))
}
