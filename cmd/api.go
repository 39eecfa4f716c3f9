package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/arbadev/sigilo/internal/api"
	"github.com/arbadev/sigilo/internal/config"
	"github.com/arbadev/sigilo/internal/database"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the sigilo API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server",
			},
		},
		Action: func(c *cli.Context) error {
			if _, err := os.Stat(".env"); err == nil {
				if err := LoadEnvFile(".env"); err != nil {
					return fmt.Errorf("failed to load .env: %w", err)
				}
			}

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if port := c.Int("port"); port != 0 {
				cfg.Server.Port = port
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			db, err := database.NewDB(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			fmt.Printf("Starting sigilo API server on port %d...\n", cfg.Server.Port)

			server := api.NewServer(cfg, db)
			return server.Start()
		},
	}
}
