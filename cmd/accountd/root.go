// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the accountd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accountd",
		Short: "accountd - user account service",
		Long: `accountd is a user account service: registration, login,
session tokens, and email-based password resets over a JSON API.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
