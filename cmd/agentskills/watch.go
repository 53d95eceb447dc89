package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kieranklaassen/agentskills/pkg/agent"
	"github.com/kieranklaassen/agentskills/pkg/logger"
	"github.com/kieranklaassen/agentskills/pkg/presenter"
	"github.com/kieranklaassen/agentskills/pkg/skills"
)

type WatchConfig struct {
	Dirs     []string
	Debounce int
}

func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Debounce: 500,
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch skill directories and reload on change",
	Long: `Watch skill directories and reload the collection whenever files under
them change. Bursts of changes collapse into a single reload. Useful
while authoring skills.

Examples:
  agentskills watch --skills-dir ./skills
  agentskills watch --skills-dir ./skills --debounce 200`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getWatchConfigFromFlags(cmd)
		runWatchCommand(ctx, config)
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().StringSliceP("skills-dir", "d", defaults.Dirs, "Skill directory to watch (repeatable)")
	watchCmd.Flags().Int("debounce", defaults.Debounce, "Debounce time in milliseconds for file change events")
	rootCmd.AddCommand(watchCmd)
}

func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()
	if dirs, err := cmd.Flags().GetStringSlice("skills-dir"); err == nil {
		config.Dirs = dirs
	}
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.Debounce = debounce
	}
	return config
}

func runWatchCommand(ctx context.Context, config *WatchConfig) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(config.Dirs) == 0 {
		presenter.Error(errors.New("no directories to watch: pass --skills-dir"), "Invalid configuration")
		os.Exit(1)
	}

	var sources []agent.Source
	for _, dir := range config.Dirs {
		sources = append(sources, agent.PathSource(dir))
	}
	loader, err := agent.Resolve(agent.Config{Sources: sources})
	if err != nil {
		presenter.Error(err, "Failed to configure skill sources")
		os.Exit(1)
	}

	collection, err := loader.List(ctx)
	if err != nil {
		presenter.Error(err, "Failed to load skills")
		os.Exit(1)
	}
	presenter.Info(fmt.Sprintf("Watching %d skill(s) in %s, Ctrl+C to stop", len(collection), strings.Join(config.Dirs, ", ")))

	watcher, err := skills.NewWatcher(loader, config.Dirs,
		skills.WithDebounce(time.Duration(config.Debounce)*time.Millisecond),
		skills.WithOnReload(func(ctx context.Context) {
			collection, err := loader.List(ctx)
			if err != nil {
				logger.G(ctx).WithError(err).Error("failed to reload skills")
				return
			}
			presenter.Info(fmt.Sprintf("Reloaded: %d skill(s)", len(collection)))
		}),
	)
	if err != nil {
		presenter.Error(err, "Failed to create watcher")
		os.Exit(1)
	}

	if err := watcher.Start(ctx); err != nil {
		presenter.Error(err, "Watcher failed")
		os.Exit(1)
	}

	presenter.Info("Watcher stopped")
}
