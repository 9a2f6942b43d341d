package errz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/jsbox/parser"
)

type positioned struct {
	msg          string
	line, column int
}

func (e *positioned) Error() string { return "boom: " + e.msg }
func (e *positioned) Position() (int, int) { return e.line, e.column }
func (e *positioned) Kind() string { return "test error" }
func (e *positioned) Detail() string { return e.msg }

func TestFormatDiagnostic(t *testing.T) {
	source := "let a = 1\nlet b = oops\nlet c = 3\n"
	err := &positioned{msg: "bad value", line: 2, column: 9}
	got := FormatDiagnostic(err, "main.js", source, false)
	expected := strings.Join([]string{
		"test error: bad value",
		"  --> main.js:2:9",
		"   |",
		" 1 | let a = 1",
		" 2 | let b = oops",
		"   |         ^",
		"",
	}, "\n")
	require.Equal(t, expected, got)
}

func TestFormatFirstLineHasNoContext(t *testing.T) {
	err := &positioned{msg: "x", line: 1, column: 1}
	got := FormatDiagnostic(err, "", "abc", false)
	require.Equal(t, "test error: x\n  --> 1:1\n   |\n 1 | abc\n   | ^\n", got)
}

func TestFormatPlainError(t *testing.T) {
	got := FormatDiagnostic(errors.New("disk full"), "", "", false)
	require.Equal(t, "error: disk full\n", got)
}

func TestWrappedErrorKeepsPosition(t *testing.T) {
	err := fmt.Errorf("loading: %w", &positioned{msg: "bad", line: 1, column: 2})
	d := NewDiagnostic(err, "f.js", "xyz")
	require.Equal(t, "test error", d.Kind)
	require.Equal(t, "bad", d.Message)
	require.Equal(t, 1, d.Line)
	require.Equal(t, 2, d.Column)
	require.Len(t, d.Source, 1)
}

func TestLineOutOfRangeOmitsSource(t *testing.T) {
	d := NewDiagnostic(&positioned{msg: "x", line: 9, column: 1}, "", "one line")
	require.Empty(t, d.Source)
}

func TestTabsAlignCaret(t *testing.T) {
	require.Equal(t, "\t  ", caretPadding("\tab(", 4))
	require.Equal(t, "     ", caretPadding("ab", 6))
}

func TestParseErrorDiagnostic(t *testing.T) {
	source := "let x = 1;\nlet y = (2;\n"
	_, err := parser.Parse(context.Background(), source)
	require.Error(t, err)
	got := FormatDiagnostic(err, "prog.js", source, false)
	require.True(t, strings.HasPrefix(got, "parse error: "), got)
	require.Contains(t, got, "  --> prog.js:2:11\n")
	require.Contains(t, got, " 2 | let y = (2;\n   |           ^\n")
}

func TestLexErrorDiagnostic(t *testing.T) {
	source := `let s = "abc`
	_, err := parser.Parse(context.Background(), source)
	require.Error(t, err)
	got := FormatDiagnostic(err, "", source, false)
	require.True(t, strings.HasPrefix(got, "syntax error: unterminated string literal\n"), got)
}

func TestColorOutput(t *testing.T) {
	err := &positioned{msg: "x", line: 1, column: 1}
	require.Contains(t, FormatDiagnostic(err, "a.js", "abc", true), "\x1b[")
	require.NotContains(t, FormatDiagnostic(err, "a.js", "abc", false), "\x1b[")
}

func TestFormatMultiple(t *testing.T) {
	f := NewFormatter(false)
	ds := []*Diagnostic{
		NewDiagnostic(errors.New("first"), "a.js", ""),
		NewDiagnostic(errors.New("second"), "b.js", ""),
	}
	got := f.FormatMultiple(ds)
	require.Contains(t, got, "error[1/2]: first\n  --> a.js\n")
	require.Contains(t, got, "error[2/2]: second\n  --> b.js\n")
	require.True(t, strings.HasSuffix(got, "found 2 errors\n"))
	require.Empty(t, f.FormatMultiple(nil))
}

func TestSuggestSimilar(t *testing.T) {
	candidates := []string{"Math.floor", "Math.ceil", "Math.round", "JSON.parse", "parseInt"}
	got := SuggestSimilar("Math.flor", candidates)
	require.NotEmpty(t, got)
	require.Equal(t, "Math.floor", got[0].Value)
	require.Equal(t, 1, got[0].Distance)

	// Math.log and Math.cos are within reach of "Math.flor" but farther
	// than Math.floor.
	got = SuggestSimilar("Math.flor", append(candidates, "Math.log", "Math.cos"))
	require.Equal(t, []Suggestion{{Value: "Math.floor", Distance: 1}}, got)

	got = SuggestSimilar("ab", []string{"ad", "xyz", "ac", "AB"})
	require.Equal(t, []Suggestion{{Value: "ac", Distance: 1}, {Value: "ad", Distance: 1}}, got)

	require.Empty(t, SuggestSimilar("zzzzzzzz", candidates))
	require.Empty(t, SuggestSimilar("", candidates))
	require.Empty(t, SuggestSimilar("parseInt", []string{"parseInt"}))
}

func TestFormatSuggestions(t *testing.T) {
	require.Equal(t, "", FormatSuggestions(nil))
	require.Equal(t, "did you mean 'log'?", FormatSuggestions([]Suggestion{{Value: "log"}}))
	require.Equal(t, "did you mean one of: 'a', 'b'?",
		FormatSuggestions([]Suggestion{{Value: "a"}, {Value: "b"}}))
}

func TestLevenshtein(t *testing.T) {
	require.Equal(t, 0, levenshtein("abc", "abc"))
	require.Equal(t, 3, levenshtein("", "abc"))
	require.Equal(t, 3, levenshtein("kitten", "sitting"))
	require.Equal(t, 3, levenshtein("sitting", "kitten"))
	require.Equal(t, 1, levenshtein("héllo", "hello"))
}
