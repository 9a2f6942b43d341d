package main

import (
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/jsbox"
	"github.com/deepnoodle-ai/jsbox/errz"
)

// sourceError ties a pipeline error to the text it came from so it can be
// rendered with a snippet.
type sourceError struct {
	err      error
	filename string
	source   string
}

func (e *sourceError) Error() string {
	return e.err.Error()
}

func (e *sourceError) Unwrap() error {
	return e.err
}

func withSource(err error, filename, source string) error {
	if err == nil {
		return nil
	}
	return &sourceError{err: err, filename: filename, source: source}
}

// hintError carries a suggestion shown under the message.
type hintError struct {
	msg  string
	hint string
}

func (e *hintError) Error() string {
	return e.msg
}

// renderError formats err for the terminal.
func (a *app) renderError(err error) string {
	colorize := a.stderrColor()
	f := errz.NewFormatter(colorize)

	var merr *multierror.Error
	if errors.As(err, &merr) {
		ds := make([]*errz.Diagnostic, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			ds = append(ds, diagnosticFor(e))
		}
		return f.FormatMultiple(ds)
	}
	return f.Format(diagnosticFor(err))
}

func diagnosticFor(err error) *errz.Diagnostic {
	var srcErr *sourceError
	var fileErr *jsbox.FileError
	var hint *hintError
	switch {
	case errors.As(err, &srcErr):
		return errz.NewDiagnostic(srcErr.err, srcErr.filename, srcErr.source)
	case errors.As(err, &fileErr):
		return errz.NewDiagnostic(fileErr.Err, fileErr.Path, fileErr.Source)
	case errors.As(err, &hint):
		d := errz.NewDiagnostic(err, "", "")
		d.Hint = hint.hint
		return d
	}
	return errz.NewDiagnostic(err, "", "")
}

// exitCode is 2 for programs that failed to build and 1 otherwise.
func exitCode(err error) int {
	var k errz.Kinded
	if errors.As(err, &k) {
		switch k.Kind() {
		case "syntax error", "parse error", "compile error":
			return 2
		}
	}
	return 1
}
