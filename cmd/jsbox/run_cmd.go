package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/jsbox"
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/internal/cache"
	"github.com/deepnoodle-ai/jsbox/value"
	"github.com/deepnoodle-ai/jsbox/vm"
)

// signalContext is cancelled on interrupt, stopping a running script at
// its next cancellation check.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func (a *app) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			start := time.Now()
			proto, err := a.compileCached(ctx, cmd, source, filename)
			if err != nil {
				return withSource(err, filename, source)
			}
			_, _, err = jsbox.Run(ctx, proto, a.options(cmd, filename)...)
			if timing, _ := cmd.Flags().GetBool("timing"); timing {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", time.Since(start).Round(time.Microsecond))
			}
			return withSource(err, filename, source)
		},
	}
	sourceFlags(cmd)
	cmd.Flags().Bool("timing", false, "print the total run time to stderr")
	return cmd
}

// compileCached compiles source, consulting the bytecode cache when it is
// enabled.
func (a *app) compileCached(ctx context.Context, cmd *cobra.Command, source, filename string) (*bytecode.FunctionProto, error) {
	c, err := a.openCache()
	if err != nil {
		return nil, err
	}
	key := cache.KeyFor(filename, source)
	proto, ok, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	if ok {
		return proto, nil
	}
	proto, err = jsbox.Compile(ctx, source, a.options(cmd, filename)...)
	if err != nil {
		return nil, err
	}
	if err := c.Put(key, filename, proto); err != nil {
		a.logger.Warn().Err(err).Str("filename", filename).Msg("failed to store compiled bytecode")
	}
	return proto, nil
}

func (a *app) evalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [expression]",
		Short: "Evaluate source and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source, filename string
			if len(args) == 1 && !cmd.Flags().Changed("code") {
				source, filename = args[0], "<eval>"
			} else {
				var err error
				if source, filename, err = readSource(cmd, args); err != nil {
					return err
				}
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			v, machine, err := jsbox.Eval(ctx, source, a.options(cmd, filename)...)
			if err != nil {
				return withSource(err, filename, source)
			}
			return a.printValue(cmd, machine, v)
		},
	}
	sourceFlags(cmd)
	cmd.Flags().StringP("output", "o", "text", "output format (text or json)")
	return cmd
}

func (a *app) execCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <file.jsbc>",
		Short: "Run a compiled bytecode file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			proto, err := bytecode.Unmarshal(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			_, _, err = jsbox.Run(ctx, proto, a.options(cmd, proto.Filename)...)
			return err
		},
	}
}

// printValue writes v as text or, with --output json, as JSON.
func (a *app) printValue(cmd *cobra.Command, machine *vm.VM, v value.Value) error {
	format, _ := cmd.Flags().GetString("output")
	out := cmd.OutOrStdout()
	switch format {
	case "", "text":
		if v.IsUndefined() {
			return nil
		}
		_, err := fmt.Fprintln(out, machine.ToDisplayString(v))
		return err
	case "json":
		return a.printJSON(cmd, machine.Export(v))
	}
	return fmt.Errorf("unknown output format: %s", format)
}
