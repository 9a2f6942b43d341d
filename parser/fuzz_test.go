package parser

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/deepnoodle-ai/jsbox/ast"
)

// FuzzParse checks that the parser never panics on arbitrary input. It
// should either return a program or an error.
func FuzzParse(f *testing.F) {
	seeds := []string{
		// Expressions
		"1 + 2 * 3",
		"a ?? b || c",
		"2 ** 3 ** 2",
		"x = y = z",
		"a?.b?.[c]?.(d)",
		"typeof x === 'string'",
		"new a.b.C(1)",
		"`a${b}c${`d${e}`}`",
		"tag`x${y}`",
		"/ab+c/gi.test(s)",
		"[1, , ...xs]",
		"({a, b: 2, [c]: 3, get d() { return 1 }, ...e})",

		// Functions
		"function f(a, b = 1, ...r) { return a }",
		"(a, {b, c = 2}, [d]) => a + b",
		"async x => await x",
		"function* g() { yield* h() }",
		"class A extends B { static x = 1; constructor() { super() } get y() {} }",

		// Statements
		"let [a, b] = c; const {d} = e",
		"for (let i = 0; i < 10; i++) { continue }",
		"for (const k in o) {}",
		"for (x of xs) {}",
		"outer: while (1) { break outer }",
		"try { a() } catch (e) { b() } finally { c() }",
		"switch (x) { case 1: a; default: b }",
		"do x++; while (x < 5)",

		// Invalid, but must not crash
		"(a + b) => 1",
		"let = ;",
		"`unterminated ${",
		"/unterminated",
		"0x",
		"{{{{",
		"a ? b",
		"class { constructor() {} constructor() {} }",
		"\"\\u{110000}\"",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if len(input) > 10000 || !utf8.ValidString(input) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("parser panicked on input %q: %v", truncate(input, 100), r)
			}
		}()

		program, err := Parse(ctx, input)
		if err == nil && program == nil {
			t.Errorf("Parse returned nil program without error for input %q", truncate(input, 100))
		}
		if program != nil {
			_ = program.String()
			ast.Inspect(program, func(ast.Node) bool { return true })
		}
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
