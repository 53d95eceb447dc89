package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kieranklaassen/agentskills/pkg/agent"
	"github.com/kieranklaassen/agentskills/pkg/skills"
	"github.com/kieranklaassen/agentskills/pkg/skillstore"
)

// SourceConfig holds the skill source flags shared by the commands that
// read skills (list, show, serve).
type SourceConfig struct {
	Dirs     []string
	Archives []string
	DBPath   string
	Only     []string
}

func NewSourceConfig() *SourceConfig {
	return &SourceConfig{}
}

func addSourceFlags(cmd *cobra.Command) {
	defaults := NewSourceConfig()
	cmd.Flags().StringSliceP("skills-dir", "d", defaults.Dirs, "Skill directory to load (repeatable)")
	cmd.Flags().StringSlice("archive", defaults.Archives, "Skill zip archive to load (repeatable)")
	cmd.Flags().String("db", defaults.DBPath, "SQLite skill store to load")
	cmd.Flags().StringSlice("only", defaults.Only, "Limit the collection to skills matching these glob patterns")
}

func getSourceConfigFromFlags(cmd *cobra.Command) *SourceConfig {
	config := NewSourceConfig()
	if dirs, err := cmd.Flags().GetStringSlice("skills-dir"); err == nil {
		config.Dirs = dirs
	}
	if archives, err := cmd.Flags().GetStringSlice("archive"); err == nil {
		config.Archives = archives
	}
	if dbPath, err := cmd.Flags().GetString("db"); err == nil {
		config.DBPath = dbPath
	}
	if only, err := cmd.Flags().GetStringSlice("only"); err == nil {
		config.Only = only
	}
	return config
}

// resolveLoader builds a loader over the configured sources. Earlier
// sources shadow later ones when skill names collide. With no source flags
// set, the skills_dir config value (AGENTSKILLS_SKILLS_DIR) is searched
// instead. The returned cleanup closes any opened store and must be called
// once the loader is done with.
func (c *SourceConfig) resolveLoader(ctx context.Context) (skills.Loader, func() error, error) {
	cleanup := func() error { return nil }

	var sources []agent.Source
	for _, dir := range c.Dirs {
		sources = append(sources, agent.PathSource(dir))
	}
	for _, archive := range c.Archives {
		sources = append(sources, agent.ArchiveSource(archive))
	}
	if c.DBPath != "" {
		store, err := skillstore.Open(ctx, c.DBPath)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open skill store")
		}
		cleanup = store.Close
		sources = append(sources, agent.StoreSource(store))
	}

	defaultDir := viper.GetString("skills_dir")
	if len(sources) == 0 && defaultDir == "" {
		return nil, nil, errors.New("no skill sources configured: pass --skills-dir, --archive or --db, or set skills_dir")
	}

	loader, err := agent.Resolve(agent.Config{Sources: sources, DefaultDir: defaultDir, Only: c.Only})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return loader, cleanup, nil
}
