package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

type result struct {
	app    *app
	stdout string
	stderr string
	err    error
}

// execute runs the CLI with an empty configuration file so the user's own
// settings never leak into tests.
func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "jsbox.toml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o644))
	return executeWithConfig(t, cfgPath, stdin, args...)
}

func executeWithConfig(t *testing.T, cfgPath, stdin string, args ...string) result {
	t.Helper()
	a := newApp()
	root := a.rootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return result{app: a, stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeScript(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestRunCode(t *testing.T) {
	r := execute(t, "", "run", "-c", "console.log(1 + 1)")
	require.NoError(t, r.err)
	require.Equal(t, "2\n", r.stdout)
}

func TestRunFile(t *testing.T) {
	path := writeScript(t, "hello.js", `
function greet(name) { return "hello, " + name }
console.log(greet("world"))
`)
	r := execute(t, "", "run", path)
	require.NoError(t, r.err)
	require.Equal(t, "hello, world\n", r.stdout)
}

func TestRunStdin(t *testing.T) {
	r := execute(t, "print([1, 2].length)", "run", "--stdin")
	require.NoError(t, r.err)
	require.Equal(t, "2\n", r.stdout)
}

func TestRunMultipleSources(t *testing.T) {
	path := writeScript(t, "a.js", "1")
	r := execute(t, "", "run", "-c", "1", path)
	require.EqualError(t, r.err, "multiple input sources specified")
}

func TestRunNoSource(t *testing.T) {
	r := execute(t, "", "run")
	require.ErrorContains(t, r.err, "no input provided")
}

func TestRunSyntaxErrorDiagnostic(t *testing.T) {
	path := writeScript(t, "bad.js", "let a = 1\nlet b = (2;\n")
	r := execute(t, "", "run", path)
	require.Error(t, r.err)
	require.Equal(t, 2, exitCode(r.err))

	msg := r.app.renderError(r.err)
	require.True(t, strings.HasPrefix(msg, "parse error: "), msg)
	require.Contains(t, msg, path+":2:11")
	require.Contains(t, msg, " 2 | let b = (2;")
}

func TestRunUncaughtException(t *testing.T) {
	r := execute(t, "", "run", "-c", "function f() { throw new Error('boom') }\nf()")
	require.Error(t, r.err)
	require.Equal(t, 1, exitCode(r.err))
	msg := r.app.renderError(r.err)
	require.True(t, strings.HasPrefix(msg, "runtime error: uncaught exception: Error: boom (in f)"), msg)
	require.Contains(t, msg, "<code>:1:")
}

func TestMaxFrameDepthFlag(t *testing.T) {
	r := execute(t, "", "--max-frame-depth", "8", "run", "-c", "function f(n) { return n ? f(n - 1) : 0 }\nf(100)")
	require.ErrorContains(t, r.err, "stack overflow")
}

func TestConfigFile(t *testing.T) {
	cfgPath := writeScript(t, "jsbox.toml", "[vm]\nmax_frame_depth = 8\n")
	r := executeWithConfig(t, cfgPath, "", "run", "-c", "function f(n) { return n ? f(n - 1) : 0 }\nf(100)")
	require.ErrorContains(t, r.err, "stack overflow")
}

func TestInvalidConfigFile(t *testing.T) {
	cfgPath := writeScript(t, "jsbox.toml", "[vm]\nbogus = 1\n")
	r := executeWithConfig(t, cfgPath, "", "run", "-c", "1")
	require.ErrorContains(t, r.err, "unknown keys: vm.bogus")
}

func TestEval(t *testing.T) {
	r := execute(t, "", "eval", "'a' + 1")
	require.NoError(t, r.err)
	require.Equal(t, "a1\n", r.stdout)

	r = execute(t, "", "eval", "({ a: 1, b: 'x' })")
	require.NoError(t, r.err)
	require.Equal(t, "{ a: 1, b: 'x' }\n", r.stdout)

	r = execute(t, "", "eval", "undefined")
	require.NoError(t, r.err)
	require.Empty(t, r.stdout)
}

func TestEvalJSON(t *testing.T) {
	r := execute(t, "", "eval", "-o", "json", "({ a: [1, 'x', null], b: true })")
	require.NoError(t, r.err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
	require.Equal(t, map[string]any{"a": []any{1.0, "x", nil}, "b": true}, got)
}

func TestEvalUnknownFormat(t *testing.T) {
	r := execute(t, "", "eval", "-o", "yaml", "1")
	require.EqualError(t, r.err, "unknown output format: yaml")
}

func TestTokens(t *testing.T) {
	r := execute(t, "", "tokens", "-c", "let x = 1")
	require.NoError(t, r.err)
	require.Contains(t, r.stdout, "POSITION")
	require.Contains(t, r.stdout, "| 1:1      | let")
	require.Contains(t, r.stdout, `"x"`)
	require.Contains(t, r.stdout, "EOF")
}

func TestAST(t *testing.T) {
	r := execute(t, "", "ast", "-c", "1 + 2")
	require.NoError(t, r.err)
	require.Equal(t, "(1 + 2)\n", r.stdout)
}

func TestASTJSON(t *testing.T) {
	r := execute(t, "", "ast", "--json", "-c", "x = 1")
	require.NoError(t, r.err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
	require.Equal(t, "Program", got["type"])
	body, ok := got["body"].([]any)
	require.True(t, ok)
	require.Len(t, body, 1)
	stmt := body[0].(map[string]any)
	require.Equal(t, "ExprStmt", stmt["type"])
	require.Equal(t, 1.0, stmt["line"])
}

func TestDis(t *testing.T) {
	r := execute(t, "", "dis", "-c", "function f(a) { return a + 1 }\nf(2)")
	require.NoError(t, r.err)
	require.Contains(t, r.stdout, "function <main>")
	require.Contains(t, r.stdout, "function f (params: 1")
	require.Contains(t, r.stdout, "| OFFSET |")
	require.NotContains(t, r.stdout, "\x1b[")
}

func TestCompileAndExec(t *testing.T) {
	path := writeScript(t, "prog.js", "console.log('compiled', 6 * 7)")
	out := filepath.Join(filepath.Dir(path), "out.jsbc")

	r := execute(t, "", "compile", path, "-o", out)
	require.NoError(t, r.err)
	_, err := os.Stat(out)
	require.NoError(t, err)

	r = execute(t, "", "exec", out)
	require.NoError(t, r.err)
	require.Equal(t, "compiled 42\n", r.stdout)
}

func TestCompileDefaultOutput(t *testing.T) {
	path := writeScript(t, "prog.js", "1")
	r := execute(t, "", "compile", path)
	require.NoError(t, r.err)
	_, err := os.Stat(strings.TrimSuffix(path, ".js") + ".jsbc")
	require.NoError(t, err)
	require.Equal(t, "a/b.jsbc", defaultOutput("a/b.js"))
	require.Equal(t, "noext.jsbc", defaultOutput("noext"))
}

func TestExecRejectsGarbage(t *testing.T) {
	path := writeScript(t, "junk.jsbc", "not bytecode")
	r := execute(t, "", "exec", path)
	require.ErrorContains(t, r.err, path)
}

func TestCheck(t *testing.T) {
	good := writeScript(t, "good.js", "let a = 1")
	r := execute(t, "", "check", good)
	require.NoError(t, r.err)
	require.Equal(t, "ok: 1 file\n", r.stdout)

	bad1 := writeScript(t, "bad1.js", "let x = ;")
	bad2 := writeScript(t, "bad2.js", "let [a] = [1]")
	r = execute(t, "", "check", "-j", "2", good, bad1, bad2)
	var merr *multierror.Error
	require.True(t, errors.As(r.err, &merr))
	require.Len(t, merr.Errors, 2)

	msg := r.app.renderError(r.err)
	require.Contains(t, msg, "[1/2]")
	require.Contains(t, msg, bad1+":1:")
	require.Contains(t, msg, "compile error[2/2]")
	require.True(t, strings.HasSuffix(msg, "found 2 errors\n"), msg)
}

func TestDoc(t *testing.T) {
	r := execute(t, "", "doc")
	require.NoError(t, r.err)
	require.Contains(t, r.stdout, "Math.floor")
	require.Contains(t, r.stdout, "JSON.stringify")

	r = execute(t, "", "doc", "parseInt")
	require.NoError(t, r.err)
	require.True(t, strings.HasPrefix(r.stdout, "parseInt(string, radix?) → number"), r.stdout)
	require.Contains(t, r.stdout, "parseInt('ff', 16)")

	r = execute(t, "", "doc", "-o", "json", "Math.pow")
	require.NoError(t, r.err)
	var spec map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &spec))
	require.Equal(t, "Math.pow", spec["name"])
}

func TestDocSuggestion(t *testing.T) {
	r := execute(t, "", "doc", "Math.flor")
	require.EqualError(t, r.err, `no builtin named "Math.flor"`)
	msg := r.app.renderError(r.err)
	require.Contains(t, msg, "hint: did you mean 'Math.floor'?")
	require.NotContains(t, msg, "Math.log")
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, "cached.js", "console.log('cached')")
	for range 2 {
		r := execute(t, "", "--cache", "--cache-dir", dir, "run", path)
		require.NoError(t, r.err)
		require.Equal(t, "cached\n", r.stdout)
	}
	entries, err := filepath.Glob(filepath.Join(dir, "*", "*.jsbc"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	r := execute(t, "", "--cache-dir", dir, "cache", "clear")
	require.NoError(t, r.err)
	require.Equal(t, "cleared "+dir+"\n", r.stdout)
	entries, err = filepath.Glob(filepath.Join(dir, "*", "*.jsbc"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestVersion(t *testing.T) {
	r := execute(t, "", "version")
	require.NoError(t, r.err)
	require.True(t, strings.HasPrefix(r.stdout, "jsbox dev (commit unknown"), r.stdout)

	r = execute(t, "", "version", "-o", "json")
	require.NoError(t, r.err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &info))
	require.Equal(t, "dev", info["version"])
}

func TestLogLevelValidation(t *testing.T) {
	r := execute(t, "", "--log-level", "loud", "run", "-c", "1")
	require.ErrorContains(t, r.err, "log.level")
}
