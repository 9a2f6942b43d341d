package errz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders diagnostics in a compiler-style layout:
//
//	syntax error: unterminated string
//	  --> main.js:3:9
//	   |
//	 2 | let a = 1
//	 3 | let b = "oops
//	   |         ^
type Formatter struct {
	UseColor bool

	kind     *color.Color
	message  *color.Color
	location *color.Color
	gutter   *color.Color
	caret    *color.Color
	hint     *color.Color
	note     *color.Color
}

// NewFormatter returns a formatter. Color codes are written only when
// useColor is set, regardless of the terminal.
func NewFormatter(useColor bool) *Formatter {
	f := &Formatter{
		UseColor: useColor,
		kind:     color.New(color.FgHiRed, color.Bold),
		message:  color.New(color.Bold),
		location: color.New(color.FgCyan),
		gutter:   color.New(color.FgHiBlack),
		caret:    color.New(color.FgHiRed),
		hint:     color.New(color.FgHiYellow),
		note:     color.New(color.FgHiBlue),
	}
	for _, c := range []*color.Color{f.kind, f.message, f.location, f.gutter, f.caret, f.hint, f.note} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// Format renders a single diagnostic.
func (f *Formatter) Format(d *Diagnostic) string {
	return f.format(d, "")
}

func (f *Formatter) format(d *Diagnostic, prefix string) string {
	var b strings.Builder
	width := 2
	if d.Line >= 100 {
		width = len(strconv.Itoa(d.Line))
	}
	pad := strings.Repeat(" ", width)

	label := d.Kind
	if label == "" {
		label = "error"
	}
	if prefix != "" {
		label += "[" + prefix + "]"
	}
	b.WriteString(f.kind.Sprint(label))
	b.WriteString(f.message.Sprint(": " + d.Message))
	b.WriteString("\n")

	if loc := d.location(); loc != "" {
		b.WriteString(pad)
		b.WriteString(f.location.Sprint("-->"))
		b.WriteString(" ")
		b.WriteString(f.location.Sprint(loc))
		b.WriteString("\n")
	}

	if len(d.Source) > 0 {
		b.WriteString(pad)
		b.WriteString(f.gutter.Sprint(" |"))
		b.WriteString("\n")
		for _, line := range d.Source {
			b.WriteString(f.gutter.Sprint(fmt.Sprintf("%*d | ", width, line.Number)))
			b.WriteString(line.Text)
			b.WriteString("\n")
			if line.Number == d.Line && d.Column > 0 {
				b.WriteString(pad)
				b.WriteString(f.gutter.Sprint(" | "))
				b.WriteString(caretPadding(line.Text, d.Column))
				b.WriteString(f.caret.Sprint("^"))
				b.WriteString("\n")
			}
		}
	}

	if d.Hint != "" {
		b.WriteString(pad)
		b.WriteString(f.gutter.Sprint(" = "))
		b.WriteString(f.hint.Sprint("hint: "))
		b.WriteString(d.Hint)
		b.WriteString("\n")
	}
	if d.Note != "" {
		b.WriteString(pad)
		b.WriteString(f.gutter.Sprint(" = "))
		b.WriteString(f.note.Sprint("note: "))
		b.WriteString(d.Note)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatMultiple renders several diagnostics numbered "1/n", "2/n" and so
// on, followed by a count.
func (f *Formatter) FormatMultiple(ds []*Diagnostic) string {
	switch len(ds) {
	case 0:
		return ""
	case 1:
		return f.Format(ds[0])
	}
	var b strings.Builder
	for i, d := range ds {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.format(d, fmt.Sprintf("%d/%d", i+1, len(ds))))
	}
	b.WriteString("\n")
	b.WriteString(f.kind.Sprintf("found %d errors", len(ds)))
	b.WriteString("\n")
	return b.String()
}

func (d *Diagnostic) location() string {
	switch {
	case d.Filename != "" && d.Line > 0:
		return fmt.Sprintf("%s:%d:%d", d.Filename, d.Line, d.Column)
	case d.Filename != "":
		return d.Filename
	case d.Line > 0:
		return fmt.Sprintf("%d:%d", d.Line, d.Column)
	}
	return ""
}

// caretPadding returns the whitespace that places a caret under column,
// keeping tabs from the source line so the caret lines up.
func caretPadding(text string, column int) string {
	var b strings.Builder
	i := 1
	for _, r := range text {
		if i >= column {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		i++
	}
	if i < column {
		b.WriteString(strings.Repeat(" ", column-i))
	}
	return b.String()
}
