// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Meshwork CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meshwork",
		Short: "Meshwork - a professional social networking backend",
		Long: `Meshwork is a social networking backend: accounts, posts, comments,
reactions, skills, and experience records, served over an authenticated
HTTP API and persisted to PostgreSQL.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
