package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisclient "github.com/yungbote/geocatalog-backend/internal/clients/redis"
	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/jobs/embed"
	"github.com/yungbote/geocatalog-backend/internal/platform/envutil"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
	"github.com/yungbote/geocatalog-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Clients
	log.Info("Setting up clients from main...")
	blobs, err := redisclient.NewBlobStore(log)
	if err != nil {
		log.Warn("Blob store init failed, snapshots disabled", "error", err)
		blobs = nil
	}

	// Store
	log.Info("Opening catalog store from main...")
	cfg := services.StoreConfigFromEnv()
	store := services.SharedCatalogStore(ctx, cfg, blobs, log)
	if !store.Available() {
		log.Warn("Catalog store opened degraded", "error", store.Err())
	}

	// Services
	log.Info("Setting up services from main...")
	snapshotService := services.NewSnapshotService(store, log)
	ingestService := services.NewIngestService(store, snapshotService, log)
	hydrationService := services.NewHydrationService(store, log)
	searchService := services.NewSearchService(store, log)
	exportService := services.NewExportService(store, hydrationService, snapshotService, log)

	if store.Available() {
		if err := snapshotService.Bootstrap(ctx); err != nil {
			log.Warn("Snapshot bootstrap failed", "error", err)
		}
		res := searchService.Search(ctx, types.SearchRequest{})
		log.Info("Catalog store ready", "records", res.Total)
	}

	// Embed worker
	log.Info("Setting up embed dispatcher from main...")
	bus, err := redisclient.NewEmbedBus(log)
	if err != nil {
		log.Warn("Embed bus init failed, embedding updates disabled", "error", err)
	} else {
		dispatcher := embed.NewDispatcher(bus, ingestService, log)
		if err := dispatcher.Start(ctx); err != nil {
			log.Warn("Embed dispatcher failed to start", "error", err)
		}
	}

	// Snapshot loop
	flushInterval := envutil.Duration("CATALOG_SNAPSHOT_INTERVAL", 5*time.Minute)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	log.Info("Catalog daemon running", "flush_interval", flushInterval.String())
	for {
		select {
		case <-ticker.C:
			if !store.Available() {
				continue
			}
			if err := snapshotService.Flush(ctx); err != nil {
				log.Warn("Periodic snapshot flush failed", "error", err)
			}
		case <-ctx.Done():
			log.Info("Shutting down from main...")
			if store.Available() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := snapshotService.Flush(flushCtx); err != nil {
					log.Warn("Final snapshot flush failed", "error", err)
				}
				if path := os.Getenv("CATALOG_EXPORT_PATH"); path != "" {
					writeExit(flushCtx, exportService, path, log)
				}
				cancel()
			}
			if err := store.Close(); err != nil {
				log.Warn("Store close failed", "error", err)
			}
			return
		}
	}
}

// writeExit dumps the catalog as CSV to path on shutdown when
// CATALOG_EXPORT_PATH is set.
func writeExit(ctx context.Context, exporter services.ExportService, path string, log *logger.Logger) {
	f, err := os.Create(path)
	if err != nil {
		log.Warn("Export file create failed", "path", path, "error", err)
		return
	}
	defer f.Close()
	if err := exporter.WriteCSV(ctx, f); err != nil {
		log.Warn("Shutdown export failed", "path", path, "error", err)
		return
	}
	log.Info("Catalog exported on shutdown", "path", path)
}
