package main

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/jsbox"
	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/dis"
	"github.com/deepnoodle-ai/jsbox/internal/lexer"
	"github.com/deepnoodle-ai/jsbox/internal/table"
	"github.com/deepnoodle-ai/jsbox/internal/token"
	"github.com/deepnoodle-ai/jsbox/parser"
)

func (a *app) tokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			t := table.NewTable(cmd.OutOrStdout())
			t.WithHeader([]string{"POSITION", "TYPE", "LITERAL"})
			l := lexer.New(source, lexer.WithFile(filename))
			for {
				tok, err := l.Next()
				if err != nil {
					return withSource(err, filename, source)
				}
				pos := tok.StartPosition
				t.Append([]string{
					fmt.Sprintf("%d:%d", pos.LineNumber(), pos.ColumnNumber()),
					string(tok.Type),
					strconv.Quote(tok.Literal),
				})
				if tok.Type == token.EOF {
					break
				}
			}
			return t.Render()
		},
	}
	sourceFlags(cmd)
	return cmd
}

func (a *app) astCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast [file]",
		Short: "Print the syntax tree of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			program, err := parser.Parse(cmd.Context(), source, parser.WithFilename(filename))
			if err != nil {
				return withSource(err, filename, source)
			}
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return a.printJSON(cmd, nodeJSON(reflect.ValueOf(program)))
			}
			_, err = fmt.Fprintln(out, program.String())
			return err
		},
	}
	sourceFlags(cmd)
	cmd.Flags().Bool("json", false, "print the tree as JSON")
	return cmd
}

var (
	positionType = reflect.TypeOf(token.Position{})
	nodeType     = reflect.TypeOf((*ast.Node)(nil)).Elem()
)

// nodeJSON converts a syntax tree into maps and slices. Each node becomes
// an object with its Go type name under "type", its 1-based position, and
// its exported fields under lower-cased names.
func nodeJSON(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Pointer && v.Type().Implements(nodeType) {
			node := v.Interface().(ast.Node)
			out := structJSON(v.Elem())
			out["type"] = v.Elem().Type().Name()
			pos := node.Pos()
			out["line"] = pos.LineNumber()
			out["column"] = pos.ColumnNumber()
			return out
		}
		return nodeJSON(v.Elem())
	case reflect.Slice:
		out := make([]any, v.Len())
		for i := range v.Len() {
			out[i] = nodeJSON(v.Index(i))
		}
		return out
	case reflect.Struct:
		return structJSON(v)
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	}
	return fmt.Sprint(v.Interface())
}

func structJSON(v reflect.Value) map[string]any {
	out := map[string]any{}
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() || field.Type == positionType {
			continue
		}
		out[lowerFirst(field.Name)] = nodeJSON(v.Field(i))
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

func (a *app) disCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble the bytecode compiled from a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			proto, err := jsbox.Compile(cmd.Context(), source, a.options(cmd, filename)...)
			if err != nil {
				return withSource(err, filename, source)
			}
			out := cmd.OutOrStdout()
			return dis.Fprint(out, proto, a.colorEnabled(out))
		},
	}
	sourceFlags(cmd)
	return cmd
}
