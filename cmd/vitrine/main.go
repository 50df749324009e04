// Package main provides the vitrine command line interface.
package main

import (
	"os"

	"github.com/vitrine-labs/vitrine/internal/cli"
)

func main() {
	// Execute prints the error itself, main only sets the exit code.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
