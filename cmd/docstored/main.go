// Command docstored runs the document content store as a long-lived
// process: it loads configuration, opens the filesystem attachment store
// and the object persistence backend, and keeps them available until
// terminated. Embedding applications normally construct the stores
// directly; this daemon exists for operating the store standalone.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docfold/docstore/internal/logger"
	"github.com/docfold/docstore/pkg/config"
	"github.com/docfold/docstore/pkg/objects"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docstored: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	archiver, err := config.CreateArchive(ctx, &cfg.Archive)
	if err != nil {
		return err
	}

	tools, err := config.CreateStoreTools(&cfg.Storage, archiver)
	if err != nil {
		return err
	}
	logger.Info("file store ready at %s", tools.Root())

	types := objects.NewTypeRegistry()
	backend, err := config.CreateBackend(&cfg.Objects, types)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("closing object backend: %v", err)
		}
	}()
	logger.Info("object backend ready (%s)", cfg.Objects.Type)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
