// Package main is the entry point for the repeat command.
package main

import (
	"os"

	"github.com/quanmltya/repeat/internal/commands"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
