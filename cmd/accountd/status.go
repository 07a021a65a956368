// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/store"
)

// SchemaStatus holds the migration state of the database.
type SchemaStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// statusConfig holds the flags for the status subcommand.
type statusConfig struct {
	jsonOutput bool
}

// newStatusCmd creates the status subcommand.
func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database schema status",
		Long:  `Show the current migration version and dirty state of the database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	url, err := databaseURL()
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(url)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	status := SchemaStatus{Version: version, Dirty: dirty}

	if cfg.jsonOutput {
		raw, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(raw))
		return nil
	}

	cmd.Printf("schema version: %d\n", status.Version)
	cmd.Printf("dirty: %t\n", status.Dirty)
	return nil
}
