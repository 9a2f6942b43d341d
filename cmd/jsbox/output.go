package main

import (
	"io"

	"github.com/hokaccha/go-prettyjson"
)

// formatJSON renders v as indented JSON, colored when w is a terminal.
func (a *app) formatJSON(w io.Writer, v any) ([]byte, error) {
	f := prettyjson.NewFormatter()
	f.Indent = 2
	f.DisabledColor = !a.colorEnabled(w)
	return f.Marshal(v)
}
