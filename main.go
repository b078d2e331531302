// Package main is the entry point for the vizpulse CLI.
package main

import (
	"github.com/vizpulse/vizpulse/cmd"
	"github.com/vizpulse/vizpulse/internal"
)

func main() {
	if err := cmd.Execute(); err != nil {
		internal.FatalError("command failed", err)
	}
}
