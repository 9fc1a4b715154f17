// cmd/seed/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crediflow/internal/common/config"
	"crediflow/internal/common/logger"
	"crediflow/internal/profilestore"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		return 1
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := profilestore.Open(ctx, cfg, log)
	defer store.Close()
	if err != nil {
		log.Error("Profile store unavailable, nothing seeded", map[string]interface{}{"error": err})
		return 1
	}

	n := store.Seed(ctx)
	if n == 0 {
		return 1
	}
	fmt.Printf("Successfully seeded %s with %d records.\n", cfg.Store.Collection, n)
	return 0
}
