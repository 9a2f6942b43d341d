package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/jsbox"
	"github.com/deepnoodle-ai/jsbox/internal/cache"
	"github.com/deepnoodle-ai/jsbox/internal/config"
	"github.com/deepnoodle-ai/jsbox/vm"
)

// app holds the state shared by every command of one invocation.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger zerolog.Logger
	stderr io.Writer
}

func newApp() *app {
	v := viper.New()
	v.SetEnvPrefix("JSBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &app{
		v:      v,
		cfg:    config.Default(),
		logger: zerolog.Nop(),
		stderr: os.Stderr,
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jsbox",
		Short:         "Run and inspect JavaScript on a bytecode VM",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", config.DefaultPath, "configuration file")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.Bool("no-color", false, "disable colored output")
	flags.Int("max-frame-depth", 0, "maximum call depth")
	flags.Int("gc-threshold", 0, "heap bytes that trigger a collection")
	flags.Int("context-check-interval", 0, "instructions between cancellation checks")
	flags.Bool("cache", false, "cache compiled bytecode")
	flags.String("cache-dir", "", "compiled bytecode cache directory")
	for _, name := range []string{
		"config", "log-level", "no-color", "max-frame-depth", "gc-threshold",
		"context-check-interval", "cache", "cache-dir",
	} {
		// Binding can only fail for a nil flag.
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		a.runCommand(),
		a.evalCommand(),
		a.execCommand(),
		a.tokensCommand(),
		a.astCommand(),
		a.disCommand(),
		a.compileCommand(),
		a.checkCommand(),
		a.docCommand(),
		a.cacheCommand(),
		a.versionCommand(),
	)
	return root
}

// configure loads the configuration file, then applies environment
// variables and flags on top of it.
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v.GetString("config"))
	if err != nil {
		return err
	}
	if a.v.IsSet("log-level") && a.v.GetString("log-level") != "" {
		cfg.Log.Level = a.v.GetString("log-level")
	}
	if a.v.IsSet("max-frame-depth") && a.v.GetInt("max-frame-depth") > 0 {
		cfg.VM.MaxFrameDepth = a.v.GetInt("max-frame-depth")
	}
	if a.v.IsSet("gc-threshold") {
		cfg.VM.GCThreshold = a.v.GetInt("gc-threshold")
	}
	if a.v.IsSet("context-check-interval") {
		cfg.VM.ContextCheckInterval = a.v.GetInt("context-check-interval")
	}
	if a.v.IsSet("cache") {
		cfg.Cache.Enabled = a.v.GetBool("cache")
	}
	if dir := a.v.GetString("cache-dir"); dir != "" {
		cfg.Cache.Dir = dir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.stderr = cmd.ErrOrStderr()
	a.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     a.stderr,
		NoColor: !a.stderrColor(),
	}).Level(level).With().Timestamp().Logger()
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) colorEnabled(w io.Writer) bool {
	return !a.v.GetBool("no-color") && isTerminal(w)
}

func (a *app) stderrColor() bool {
	return a.colorEnabled(a.stderr)
}

// options returns the pipeline options for the current configuration.
func (a *app) options(cmd *cobra.Command, filename string) []jsbox.Option {
	vmOpts := []vm.Option{
		vm.WithOutput(cmd.OutOrStdout()),
		vm.WithMaxFrameDepth(a.cfg.VM.MaxFrameDepth),
		vm.WithContextCheckInterval(a.cfg.VM.ContextCheckInterval),
	}
	if a.cfg.VM.GCThreshold > 0 {
		vmOpts = append(vmOpts, vm.WithGCThreshold(a.cfg.VM.GCThreshold))
	}
	compileLogger := a.logger
	if !a.cfg.Compiler.Trace {
		compileLogger = zerolog.Nop()
	}
	return []jsbox.Option{
		jsbox.WithFilename(filename),
		jsbox.WithVMOptions(append(vmOpts, vm.WithLogger(a.logger))...),
		jsbox.WithLogger(compileLogger),
	}
}

// openCache returns the configured cache, or nil when caching is off.
func (a *app) openCache() (*cache.Cache, error) {
	if !a.cfg.Cache.Enabled {
		return nil, nil
	}
	return cache.Open(a.cfg.Cache.Dir, a.logger)
}
