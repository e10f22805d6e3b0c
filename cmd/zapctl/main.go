package main

import (
	"github.com/zapkit/zapctl/internal/cli"
)

// Injected through -ldflags at release time.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)
	cli.Execute()
}
