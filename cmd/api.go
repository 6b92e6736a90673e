package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/urfave/cli/v2"

	"github.com/gitnotify/internal/api"
	"github.com/gitnotify/internal/chat"
	"github.com/gitnotify/internal/config"
	"github.com/gitnotify/internal/database"
	"github.com/gitnotify/internal/delivery"
	"github.com/gitnotify/internal/jobqueue"
	"github.com/gitnotify/internal/mappingstore"
	"github.com/gitnotify/internal/router"
	"github.com/gitnotify/internal/subscriptions"
)

// APICommand returns the CLI command for starting the webhook server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the GitNotify webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the webhook server (overrides config)",
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	port := cfg.Server.Port
	if c.Int("port") != 0 {
		port = c.Int("port")
	}

	db, err := database.NewDB(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store := mappingstore.NewPostgresStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure mapping schema: %w", err)
	}

	directory := subscriptions.NewPostgresDirectory(db)
	boundary := chat.NewMattermost(cfg.Chat.ServerURL, cfg.Chat.Token)
	coordinator := delivery.NewCoordinator(store, boundary, cfg.Delivery.MappingLifetimeDays)
	eventRouter := router.New(directory, coordinator, cfg.Delivery.AnchorRefreshActions)

	queueCfg := jobqueue.GetQueueConfig()
	if cfg.Delivery.SweepIntervalHours > 0 {
		queueCfg.SweepInterval = sweepInterval(cfg)
	}

	queue, err := jobqueue.NewJobQueue(cfg.Database.URL, store, queueCfg)
	if err != nil {
		return fmt.Errorf("failed to create job queue: %w", err)
	}
	if err := queue.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start job queue: %w", err)
	}
	defer func() {
		if err := queue.Stop(context.Background()); err != nil {
			log.Printf("[WARN] Job queue shutdown error: %v", err)
		}
	}()

	fmt.Printf("Starting GitNotify webhook server on port %d...\n", port)

	server := api.NewServer(port, eventRouter)
	return server.Start()
}
