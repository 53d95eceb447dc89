package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kieranklaassen/agentskills/pkg/presenter"
	"github.com/kieranklaassen/agentskills/pkg/skills"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills from the configured sources",
	Long: `List every skill found in the configured sources with its name, origin
and description. When the same name appears in several sources, the first
source wins.

Examples:
  agentskills list --skills-dir ./skills
  agentskills list --skills-dir ./skills --archive extra-skills.zip
  agentskills list --db ~/.agentskills/skills.db --only 'pdf-*'`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getSourceConfigFromFlags(cmd)

		loader, cleanup, err := config.resolveLoader(ctx)
		if err != nil {
			presenter.Error(err, "Failed to configure skill sources")
			os.Exit(1)
		}
		defer cleanup()

		collection, err := loader.List(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skills")
			os.Exit(1)
		}

		if len(collection) == 0 {
			presenter.Info("No skills found")
			return
		}

		sorted := make([]*skills.Skill, len(collection))
		copy(sorted, collection)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSOURCE\tDESCRIPTION")
		fmt.Fprintln(tw, "----\t------\t-----------")

		for _, skill := range sorted {
			description := skill.Description
			if len(description) > 60 {
				description = description[:57] + "..."
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", skill.Name, skill.Path, description)
		}
		tw.Flush()
	},
}

func init() {
	addSourceFlags(listCmd)
	rootCmd.AddCommand(withTracing(listCmd))
}
