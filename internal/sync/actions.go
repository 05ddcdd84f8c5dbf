package sync

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/recipesmd/recipesmd/internal/app"
	"github.com/recipesmd/recipesmd/internal/common"
	"github.com/recipesmd/recipesmd/pkg/api"
	"github.com/recipesmd/recipesmd/pkg/store"
)

// SyncAction pulls the full collection into the offline cache.
func SyncAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	client := common.NewClient(cfg)

	cache, err := store.Open(cfg.CachePath())
	if err != nil {
		logger.Error("failed to open offline cache", "error", err)
		os.Exit(2)
	}
	defer cache.Close()

	workers := cfg.SyncWorkers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}

	summary, err := Run(c.Context, logger, client, cache, workers)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			fmt.Println(app.MsgSessionExpired)
			os.Exit(1)
		}
		logger.Error("sync failed", "error", err)
		os.Exit(2)
	}

	fmt.Printf("Synced %d recipes (%d failed, %d pruned) in %s.\n",
		summary.Fetched, summary.Failed, summary.Pruned, summary.Took.Round(time.Millisecond))
	return nil
}
