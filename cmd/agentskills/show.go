package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kieranklaassen/agentskills/pkg/presenter"
	"github.com/kieranklaassen/agentskills/pkg/tools"
)

type ShowConfig struct {
	Resource string
}

func NewShowConfig() *ShowConfig {
	return &ShowConfig{}
}

var showCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Show a skill exactly as the model receives it",
	Long: `Load a skill through the skill tool and print the rendered output: the
instruction body plus the listing of bundled scripts, references and
assets. With --resource, print a bundled file instead.

Examples:
  agentskills show pdf-processing --skills-dir ./skills
  agentskills show pdf-processing --resource scripts/extract.py --skills-dir ./skills`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getShowConfigFromFlags(cmd)
		sources := getSourceConfigFromFlags(cmd)

		loader, cleanup, err := sources.resolveLoader(ctx)
		if err != nil {
			presenter.Error(err, "Failed to configure skill sources")
			os.Exit(1)
		}
		defer cleanup()

		params, err := json.Marshal(tools.SkillInput{
			Command:  args[0],
			Resource: config.Resource,
		})
		if err != nil {
			presenter.Error(err, "Failed to encode tool input")
			os.Exit(1)
		}

		result := tools.NewSkillTool(loader).Execute(ctx, string(params))
		if result.IsError() {
			presenter.Error(errors.New(result.GetError()), "Failed to load skill")
			os.Exit(1)
		}
		fmt.Println(result.GetResult())
	},
}

func init() {
	defaults := NewShowConfig()
	showCmd.Flags().StringP("resource", "r", defaults.Resource, "Bundled file to print instead of the skill instructions")
	addSourceFlags(showCmd)
	rootCmd.AddCommand(withTracing(showCmd))
}

func getShowConfigFromFlags(cmd *cobra.Command) *ShowConfig {
	config := NewShowConfig()
	if resource, err := cmd.Flags().GetString("resource"); err == nil {
		config.Resource = resource
	}
	return config
}
