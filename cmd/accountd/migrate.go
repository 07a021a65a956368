// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/config"
	"github.com/accountd/accountd/internal/store"
)

// migrateConfig holds the flags for the migrate subcommand.
type migrateConfig struct {
	down  bool
	steps int
	force int
}

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd() *cobra.Command {
	cfg := &migrateConfig{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply pending database migrations. With --down all migrations
are rolled back; with --steps only the given number is applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.down, "down", false, "roll back all migrations")
	cmd.Flags().IntVar(&cfg.steps, "steps", 0, "apply n migrations (negative rolls back)")
	cmd.Flags().IntVar(&cfg.force, "force", 0, "force schema version without running migrations")

	return cmd
}

// databaseURL resolves the database URL from the config file, falling
// back to the DATABASE_URL environment variable.
func databaseURL() (string, error) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return "", err
	}

	url := cfg.Database.URL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return "", oops.Code("CONFIG_INVALID").
			Errorf("database URL is required: set database.url in the config file or DATABASE_URL in the environment")
	}
	return url, nil
}

func runMigrate(cmd *cobra.Command, cfg *migrateConfig) error {
	url, err := databaseURL()
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(url)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	switch {
	case cmd.Flags().Changed("force"):
		if err := migrator.Force(cfg.force); err != nil {
			return err
		}
		cmd.Printf("forced schema version to %d\n", cfg.force)
	case cfg.down:
		if err := migrator.Down(); err != nil {
			return err
		}
		cmd.Println("rolled back all migrations")
	case cfg.steps != 0:
		if err := migrator.Steps(cfg.steps); err != nil {
			return err
		}
		cmd.Printf("applied %d migration step(s)\n", cfg.steps)
	default:
		if err := migrator.Up(); err != nil {
			return err
		}
		cmd.Println("migrations applied")
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("schema version: %d (dirty: %t)\n", version, dirty)
	return nil
}
