package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kieranklaassen/agentskills/pkg/db"
	"github.com/kieranklaassen/agentskills/pkg/db/migrations"
	"github.com/kieranklaassen/agentskills/pkg/presenter"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Skill store management commands",
	Long:  `Commands for managing the SQLite skill store (migrations, status, etc.)`,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show skill store migration status",
	Long:  `Shows the skill store path, WAL health and which schema migrations have been applied.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dbPath, err := databasePathFromFlags(cmd)
		if err != nil {
			return err
		}

		applied, err := db.GetMigrationStatus(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		appliedSet := make(map[int64]bool, len(applied))
		for _, v := range applied {
			appliedSet[v] = true
		}

		presenter.Section("Skill Store Status")
		presenter.Info(fmt.Sprintf("Database: %s", dbPath))
		if err := checkConfiguration(ctx, dbPath); err != nil {
			presenter.Warning(fmt.Sprintf("Configuration: %v", err))
		} else {
			presenter.Info("Configuration: WAL mode active")
		}
		presenter.Info("")

		all := migrations.All()
		appliedCount := 0
		for _, m := range all {
			mark := "[ ]"
			if appliedSet[m.Version] {
				mark = "[✓]"
				appliedCount++
			}
			presenter.Info(fmt.Sprintf("%s %d - %s", mark, m.Version, m.Description))
		}
		presenter.Info(fmt.Sprintf("\nApplied: %d/%d migrations", appliedCount, len(all)))

		return nil
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback the last skill store migration",
	Long:  `Rolls back the most recently applied skill store migration.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dbPath, err := databasePathFromFlags(cmd)
		if err != nil {
			return err
		}

		applied, err := db.GetMigrationStatus(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		if len(applied) == 0 {
			presenter.Warning("No migrations to rollback")
			return nil
		}

		last := applied[len(applied)-1]
		presenter.Info(fmt.Sprintf("Rolling back migration %d: %s", last, migrationDescription(last)))

		if err := db.RollbackMigration(ctx, dbPath, migrations.All()); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}

		presenter.Success(fmt.Sprintf("Rolled back migration %d", last))
		return nil
	},
}

// checkConfiguration opens the store and confirms the WAL pragmas took
// effect on this database file.
func checkConfiguration(ctx context.Context, dbPath string) error {
	sqlDB, err := db.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return db.VerifyConfiguration(sqlDB)
}

func migrationDescription(version int64) string {
	for _, m := range migrations.All() {
		if m.Version == version {
			return m.Description
		}
	}
	return "unknown migration"
}

func databasePathFromFlags(cmd *cobra.Command) (string, error) {
	if dbPath, err := cmd.Flags().GetString("db"); err == nil && dbPath != "" {
		return dbPath, nil
	}
	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return "", fmt.Errorf("failed to determine skill store path: %w", err)
	}
	return dbPath, nil
}

func init() {
	dbCmd.PersistentFlags().String("db", "", "SQLite skill store to inspect (defaults to ~/.agentskills/skills.db)")
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbRollbackCmd)
	rootCmd.AddCommand(dbCmd)
}
