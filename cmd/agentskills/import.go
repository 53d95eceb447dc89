package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kieranklaassen/agentskills/pkg/db"
	"github.com/kieranklaassen/agentskills/pkg/presenter"
	"github.com/kieranklaassen/agentskills/pkg/skillstore"
)

type ImportConfig struct {
	DBPath string
}

func NewImportConfig() *ImportConfig {
	return &ImportConfig{}
}

var importCmd = &cobra.Command{
	Use:   "import <zip-or-directory>",
	Short: "Import skills into the SQLite skill store",
	Long: `Import skills into the SQLite skill store. A directory imports each
skill as its own content record; a zip archive imports each packed skill
as its own binary record, unpacked at load time. The store defaults to
~/.agentskills/skills.db.

Examples:
  agentskills import ./skills
  agentskills import extra-skills.zip --db ./skills.db`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getImportConfigFromFlags(cmd)

		dbPath := config.DBPath
		if dbPath == "" {
			var err error
			dbPath, err = db.DefaultDBPath()
			if err != nil {
				presenter.Error(err, "Failed to determine skill store path")
				os.Exit(1)
			}
		}

		store, err := skillstore.Open(ctx, dbPath)
		if err != nil {
			presenter.Error(err, "Failed to open skill store")
			os.Exit(1)
		}
		defer store.Close()

		info, err := os.Stat(args[0])
		if err != nil {
			presenter.Error(err, "Failed to read import source")
			os.Exit(1)
		}

		var records []skillstore.SkillRecord
		if info.IsDir() {
			records, err = store.ImportDir(ctx, args[0])
			if err != nil {
				presenter.Error(err, "Failed to import skills directory")
				os.Exit(1)
			}
		} else {
			records, err = store.ImportZip(ctx, args[0])
			if err != nil {
				presenter.Error(err, "Failed to import skill archive")
				os.Exit(1)
			}
		}

		for _, rec := range records {
			presenter.Info(fmt.Sprintf("Imported skill '%s' (%s)", rec.Name, rec.ID))
		}
		presenter.Success(fmt.Sprintf("Imported %d skill(s) into %s", len(records), store.Path()))
	},
}

func init() {
	defaults := NewImportConfig()
	importCmd.Flags().String("db", defaults.DBPath, "SQLite skill store to import into (defaults to ~/.agentskills/skills.db)")
	rootCmd.AddCommand(importCmd)
}

func getImportConfigFromFlags(cmd *cobra.Command) *ImportConfig {
	config := NewImportConfig()
	if dbPath, err := cmd.Flags().GetString("db"); err == nil {
		config.DBPath = dbPath
	}
	return config
}
