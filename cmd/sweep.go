package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gitnotify/internal/config"
	"github.com/gitnotify/internal/database"
	"github.com/gitnotify/internal/mappingstore"
)

// SweepCommand returns the CLI command for a one-off expired-mapping sweep.
// The api server runs the same sweep periodically; this exists for manual
// maintenance and cron-style deployments without the job queue.
func SweepCommand() *cli.Command {
	return &cli.Command{
		Name:   "sweep",
		Usage:  "Remove expired entity mappings and exit",
		Action: runSweep,
	}
}

func runSweep(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewDB(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store := mappingstore.NewPostgresStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := store.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("Removed %d expired mapping(s)\n", removed)
	return nil
}

// sweepInterval converts the configured hours into a duration.
func sweepInterval(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Delivery.SweepIntervalHours) * time.Hour
}
