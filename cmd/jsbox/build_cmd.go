package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/jsbox"
	"github.com/deepnoodle-ai/jsbox/bytecode"
)

// defaultOutput replaces the extension of a source path with .jsbc.
func defaultOutput(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".jsbc"
}

func (a *app) compileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a script to a bytecode file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			source := string(data)
			proto, err := jsbox.Compile(cmd.Context(), source, a.options(cmd, path)...)
			if err != nil {
				return withSource(err, path, source)
			}
			encoded, err := bytecode.Marshal(proto)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = defaultOutput(path)
			}
			if err := os.WriteFile(output, encoded, 0o644); err != nil {
				return err
			}
			stats := proto.Stats()
			a.logger.Info().
				Str("output", output).
				Int("bytes", len(encoded)).
				Int("functions", stats.FunctionCount).
				Int("instructions", stats.InstructionCount).
				Msg("compiled")
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output path (default: the input with a .jsbc extension)")
	return cmd
}

func (a *app) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <files...>",
		Short: "Compile files concurrently and report every error",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, _ := cmd.Flags().GetInt("jobs")
			protos, err := jsbox.CompileFiles(cmd.Context(), args, jobs, a.options(cmd, "")...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d %s\n", len(protos), plural(len(protos), "file", "files"))
			return err
		},
	}
	cmd.Flags().IntP("jobs", "j", 0, "number of files compiled at once (default: GOMAXPROCS)")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
