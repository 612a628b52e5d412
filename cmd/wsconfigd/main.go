// Package main is the entry point for the wsconfig workstation daemon: a
// local HTTP service the wizard UI and installer talk to, exposing hardware
// detection, catalog queries, and the recommendation pipeline.
package main

import (
	"context"
	"log"

	"github.com/oremus-labs/wsconfig-core/config"
	"github.com/oremus-labs/wsconfig-core/internal/daemon"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting wsconfigd v%s", version)

	cfg := config.Load()
	log.Printf("Configuration loaded - catalog: %s, datastore: %s (%s)", cfg.CatalogPath, cfg.DataStoreDSN, cfg.DataStoreDriver)

	if err := daemon.Run(context.Background(), cfg, version); err != nil {
		log.Fatalf("wsconfigd exited: %v", err)
	}
}
