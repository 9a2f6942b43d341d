package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// sourceFlags adds the flags that select where source code comes from.
func sourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "source code to use instead of a file")
	cmd.Flags().Bool("stdin", false, "read source code from stdin")
}

// readSource returns the program text and the name to report it under. The
// text comes from --code, --stdin or a single file argument.
func readSource(cmd *cobra.Command, args []string) (string, string, error) {
	codeSet := cmd.Flags().Changed("code")
	stdinSet, _ := cmd.Flags().GetBool("stdin")
	sources := 0
	for _, set := range []bool{codeSet, stdinSet, len(args) > 0} {
		if set {
			sources++
		}
	}
	switch {
	case sources > 1:
		return "", "", errors.New("multiple input sources specified")
	case codeSet:
		code, _ := cmd.Flags().GetString("code")
		return code, "<code>", nil
	case stdinSet:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", err
		}
		return string(data), "<stdin>", nil
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	}
	return "", "", errors.New("no input provided: pass a file, --code or --stdin")
}
