// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/meshwork/meshwork/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return oops.Code("CONFIG_MISSING").Errorf("DATABASE_URL environment variable is required")
			}

			cmd.Println("Running migrations...")
			if err := runMigrations(databaseURL); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}

	cmd.AddCommand(newMigrateStatusCmd())
	return cmd
}

// newMigrateStatusCmd reports the current schema version and pending
// migrations.
func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return oops.Code("CONFIG_MISSING").Errorf("DATABASE_URL environment variable is required")
			}

			migrator, err := store.NewMigrator(databaseURL)
			if err != nil {
				return err
			}
			defer func() {
				_ = migrator.Close() //nolint:errcheck // status output already printed
			}()

			version, dirty, err := migrator.Version()
			if err != nil {
				return err
			}
			cmd.Printf("Current version: %d (dirty: %t)\n", version, dirty)

			pending, err := migrator.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("No pending migrations")
				return nil
			}
			for _, v := range pending {
				name, nameErr := store.MigrationName(v)
				if nameErr != nil {
					return nameErr
				}
				cmd.Printf("Pending: %s\n", name)
			}
			return nil
		},
	}
}

// runMigrations applies all pending migrations.
func runMigrations(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = migrator.Close() //nolint:errcheck // migration outcome already decided
	}()

	return migrator.Up()
}
