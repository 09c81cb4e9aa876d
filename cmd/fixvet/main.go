// Package main provides the entry point for the fixvet CLI tool.
package main

import (
	"github.com/releasetools/fixvet/cmd/fixvet/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
