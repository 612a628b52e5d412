// Package main is the entry point for the wsconfig CLI: detect, recommend,
// catalog, and serve, run in-process against the recommendation pipeline.
package main

import (
	"os"

	"github.com/oremus-labs/wsconfig-core/internal/wsconfigcli"
)

func main() {
	// Command RunE handlers report failures via exitWithError before
	// returning, so main only needs to translate a non-nil error to a
	// process exit code.
	if err := wsconfigcli.Execute(); err != nil {
		os.Exit(1)
	}
}
