package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/internal/lexer"
	"github.com/stretchr/testify/require"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := Parse(context.Background(), input)
	require.NoError(t, err)
	return program
}

func parseError(t *testing.T, input string) *ParseError {
	t.Helper()
	_, err := Parse(context.Background(), input)
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
	return pe
}

func TestTokenLineCol(t *testing.T) {
	program := parseProgram(t, `
let x = 5;
  let y = 10;
`)
	require.Len(t, program.Body, 2)
	require.Equal(t, 2, program.Body[0].Pos().LineNumber())
	require.Equal(t, 1, program.Body[0].Pos().ColumnNumber())
	require.Equal(t, 3, program.Body[1].Pos().LineNumber())
	require.Equal(t, 3, program.Body[1].Pos().ColumnNumber())
}

func TestEmptyProgram(t *testing.T) {
	program := parseProgram(t, "  // nothing here\n")
	require.Empty(t, program.Body)
}

func TestErrorPosition(t *testing.T) {
	pe := parseError(t, "let x = ;")
	require.Equal(t, 1, pe.Line)
	require.Equal(t, 9, pe.Column)
	require.Equal(t, "parse error", pe.Kind())
	require.Contains(t, pe.Error(), `unexpected ";"`)
}

func TestErrorOnLaterLine(t *testing.T) {
	pe := parseError(t, "let a = 1;\nlet b = (2;\n")
	require.Equal(t, 2, pe.Line)
	require.Equal(t, 11, pe.Column)
}

func TestLexErrorIsWrapped(t *testing.T) {
	pe := parseError(t, `let s = "abc`)
	require.Equal(t, "syntax error", pe.Kind())
	require.Equal(t, 1, pe.Line)
	require.Equal(t, 13, pe.Column)

	var lexErr *lexer.LexError
	require.True(t, errors.As(pe, &lexErr))
	require.Equal(t, "unterminated string literal", lexErr.Message)
}

func TestLexErrorInsideExpression(t *testing.T) {
	pe := parseError(t, "let x = 1 + 0x;")
	require.Equal(t, "syntax error", pe.Kind())
	require.Equal(t, 15, pe.Column)
}

func TestFilenameInErrors(t *testing.T) {
	_, err := Parse(context.Background(), "let = 1", WithFilename("main.js"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "main.js", pe.File)

	_, err = Parse(context.Background(), "@", WithFilename("early.js"))
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "early.js", pe.File)
}

func TestMaxDepth(t *testing.T) {
	nested := func(n int) string {
		return strings.Repeat("(", n) + "1" + strings.Repeat(")", n)
	}

	_, err := Parse(context.Background(), nested(100))
	require.NoError(t, err)

	_, err = Parse(context.Background(), nested(600))
	require.Error(t, err)
	require.Contains(t, err.Error(), "maximum nesting depth exceeded")

	_, err = Parse(context.Background(), nested(12), WithMaxDepth(10))
	require.Error(t, err)
	require.Contains(t, err.Error(), "maximum nesting depth exceeded")
}

func TestMaxDepthNestedBlocks(t *testing.T) {
	input := strings.Repeat("{", 50) + strings.Repeat("}", 50)
	_, err := Parse(context.Background(), input, WithMaxDepth(20))
	require.Error(t, err)
	require.Contains(t, err.Error(), "maximum nesting depth exceeded")
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, "let x = 1; let y = 2;")
	require.ErrorIs(t, err, context.Canceled)
}

func TestOnlyFirstErrorReported(t *testing.T) {
	pe := parseError(t, "let = 1;\nlet = 2;")
	require.Equal(t, 1, pe.Line)
}

func TestNewWithLexer(t *testing.T) {
	p := New(lexer.New("a + b"), WithFilename("x.js"))
	program, err := p.Parse(context.Background())
	require.NoError(t, err)
	require.Equal(t, "(a + b)", program.String())
}

func TestUnsupportedModules(t *testing.T) {
	pe := parseError(t, `import x from "y"`)
	require.Contains(t, pe.Message, "modules are not supported")
}
