package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/jsbox/builtins"
	"github.com/deepnoodle-ai/jsbox/errz"
	"github.com/deepnoodle-ai/jsbox/internal/table"
)

func (a *app) docCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc [name]",
		Short: "Describe the builtin functions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("output")
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if format == "json" {
					return a.printJSON(cmd, builtins.Docs())
				}
				t := table.NewTable(out)
				t.WithHeader([]string{"NAME", "ARGS", "RETURNS", "DESCRIPTION"})
				for _, spec := range builtins.Docs() {
					t.Append([]string{spec.Name, strings.Join(spec.Args, ", "), spec.Returns, spec.Doc})
				}
				return t.Render()
			}

			spec, ok := builtins.Lookup(args[0])
			if !ok {
				names := make([]string, 0, len(builtins.Docs()))
				for _, s := range builtins.Docs() {
					names = append(names, s.Name)
				}
				return &hintError{
					msg:  fmt.Sprintf("no builtin named %q", args[0]),
					hint: errz.FormatSuggestions(errz.SuggestSimilar(args[0], names)),
				}
			}
			if format == "json" {
				return a.printJSON(cmd, spec)
			}
			fmt.Fprintf(out, "%s(%s) → %s\n\n%s\n", spec.Name, strings.Join(spec.Args, ", "), spec.Returns, spec.Doc)
			if spec.Example != "" {
				fmt.Fprintf(out, "\nExample:\n  %s\n", spec.Example)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "output format (text or json)")
	return cmd
}

func (a *app) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the compiled bytecode cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Cache.Enabled = true
			c, err := a.openCache()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", c.Dir())
			return err
		},
	})
	return cmd
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

func (a *app) versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{Version: version, Commit: commit, Date: date, Go: runtime.Version()}
			if format, _ := cmd.Flags().GetString("output"); format == "json" {
				return a.printJSON(cmd, info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "jsbox %s (commit %s, built %s, %s)\n",
				info.Version, info.Commit, info.Date, info.Go)
			return err
		},
	}
	cmd.Flags().StringP("output", "o", "text", "output format (text or json)")
	return cmd
}

func (a *app) printJSON(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()
	data, err := a.formatJSON(out, v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
