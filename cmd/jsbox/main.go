// Command jsbox runs, inspects and compiles JavaScript programs.
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	a := newApp()
	if err := a.rootCommand().Execute(); err != nil {
		fmt.Fprint(os.Stderr, a.renderError(err))
		os.Exit(exitCode(err))
	}
}
