// Package daemon bootstraps the wsconfigd HTTP service: catalog load,
// datastore, event bus, and the gin server. It is shared by the cmd/wsconfigd
// binary and the `wsconfig serve` CLI subcommand so both start the daemon
// identically.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oremus-labs/wsconfig-core/config"
	"github.com/oremus-labs/wsconfig-core/internal/api"
	"github.com/oremus-labs/wsconfig-core/internal/events"
	"github.com/oremus-labs/wsconfig-core/internal/handlers"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/redisx"
	"github.com/oremus-labs/wsconfig-core/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Run loads the catalog and datastore, wires the HTTP server, and blocks
// until an interrupt signal or ctx cancellation, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	stateStore, err := store.Open(cfg.DataStoreDSN, cfg.DataStoreDriver)
	if err != nil {
		return err
	}
	defer stateStore.Close()

	cat := modelcatalog.New()
	if err := cat.Load(cfg.CatalogPath); err != nil {
		snapshot, _, snapErr := stateStore.LoadCatalogSnapshot()
		if snapErr != nil || len(snapshot) == 0 {
			return err
		}
		log.Printf("Catalog file unavailable (%v); restoring %d entries from last known-good snapshot", err, len(snapshot))
		data, marshalErr := json.Marshal(snapshot)
		if marshalErr != nil {
			return marshalErr
		}
		if err := cat.LoadBytes(data); err != nil {
			return err
		}
	} else {
		log.Printf("Loaded %d models from catalog", cat.Count())
		if err := stateStore.SaveCatalogSnapshot(cat.All()); err != nil {
			log.Printf("Failed to persist catalog snapshot: %v", err)
		}
	}

	redisClient, err := redisx.NewClient(redisx.Config{
		Addr:        cfg.RedisAddr,
		Username:    cfg.RedisUsername,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		TLSEnabled:  cfg.RedisTLSEnabled,
		TLSInsecure: cfg.RedisTLSInsecure,
	})
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	eventBus := events.NewBus(events.Options{
		Client:  redisClient,
		Logger:  log.Default(),
		Channel: cfg.EventsChannel,
	})

	h := handlers.New(cat, stateStore, eventBus, handlers.Options{
		Version:       version,
		HistoryLimit:  cfg.HistoryLimit,
		ModelCacheDir: cfg.ModelCacheDir,
	})

	server := api.NewServer(h, api.Options{APIToken: cfg.APIToken})
	srv := server.Start(":" + cfg.ServerPort)
	log.Printf("wsconfigd listening on :%s", cfg.ServerPort)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	startRetentionSweep(runCtx, stateStore, cfg.CleanupRetention)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	cancel()
	log.Println("Shutting down wsconfigd...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("wsconfigd stopped")
	return nil
}

// startRetentionSweep periodically prunes recommendation-run history older
// than the configured retention window.
func startRetentionSweep(ctx context.Context, st *store.Store, retention time.Duration) {
	if retention <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := st.CleanupRunsBefore(time.Now().Add(-retention))
				if err != nil {
					log.Printf("Retention sweep failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("Retention sweep removed %d recommendation runs", n)
				}
			}
		}
	}()
}
