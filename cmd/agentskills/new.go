package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kieranklaassen/agentskills/pkg/presenter"
	"github.com/kieranklaassen/agentskills/pkg/skills"
)

type ScaffoldConfig struct {
	Dir         string
	Description string
	License     string
}

func NewScaffoldConfig() *ScaffoldConfig {
	return &ScaffoldConfig{
		Dir:         ".",
		Description: "Describe when the model should reach for this skill",
	}
}

// skillManifestHeader is the front matter written into scaffolded skills.
// Field order here is the order in the generated file.
type skillManifestHeader struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	License     string `yaml:"license,omitempty"`
}

var newCmd = &cobra.Command{
	Use:   "new <skill-name>",
	Short: "Scaffold a new skill directory",
	Long: `Create a skill directory with a SKILL.md manifest and empty scripts/,
references/ and assets/ directories. The name must be lowercase letters,
digits and single hyphens.

Examples:
  agentskills new pdf-processing
  agentskills new pdf-processing --dir ./skills -m "Extract text and tables from PDF files"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getScaffoldConfigFromFlags(cmd)

		skillDir, err := scaffoldSkill(args[0], config)
		if err != nil {
			presenter.Error(err, "Failed to scaffold skill")
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("Created skill '%s' at %s", args[0], skillDir))
	},
}

func init() {
	defaults := NewScaffoldConfig()
	newCmd.Flags().String("dir", defaults.Dir, "Parent directory for the new skill")
	newCmd.Flags().StringP("description", "m", defaults.Description, "Skill description shown to the model")
	newCmd.Flags().String("license", defaults.License, "Optional license identifier")
	rootCmd.AddCommand(newCmd)
}

func getScaffoldConfigFromFlags(cmd *cobra.Command) *ScaffoldConfig {
	config := NewScaffoldConfig()
	if dir, err := cmd.Flags().GetString("dir"); err == nil {
		config.Dir = dir
	}
	if description, err := cmd.Flags().GetString("description"); err == nil {
		config.Description = description
	}
	if license, err := cmd.Flags().GetString("license"); err == nil {
		config.License = license
	}
	return config
}

func scaffoldSkill(name string, config *ScaffoldConfig) (string, error) {
	skillDir := filepath.Join(config.Dir, name)
	if _, err := os.Stat(skillDir); err == nil {
		return "", errors.Errorf("skill directory already exists: %s", skillDir)
	}

	// Validate before touching the filesystem.
	meta := map[string]any{"name": name, "description": config.Description}
	if config.License != "" {
		meta["license"] = config.License
	}
	if _, err := skills.NewFromMetadata(skillDir, meta); err != nil {
		return "", err
	}

	front := skillManifestHeader{
		Name:        name,
		Description: config.Description,
		License:     config.License,
	}
	body := fmt.Sprintf("# %s\n\nDescribe the workflow the model should follow, and point it at the\nbundled files under scripts/, references/ and assets/.\n", name)
	manifest, err := renderSkillManifest(front, body)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create skill directory")
	}
	if err := os.WriteFile(filepath.Join(skillDir, skills.SkillFileName), manifest, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write skill manifest")
	}

	for _, sub := range []string{"scripts", "references", "assets"} {
		subDir := filepath.Join(skillDir, sub)
		if err := os.MkdirAll(subDir, 0o755); err != nil {
			return "", errors.Wrapf(err, "failed to create %s directory", sub)
		}
		if err := os.WriteFile(filepath.Join(subDir, ".keep"), nil, 0o644); err != nil {
			return "", errors.Wrapf(err, "failed to write %s placeholder", sub)
		}
	}

	return skillDir, nil
}
