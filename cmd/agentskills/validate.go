package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kieranklaassen/agentskills/pkg/presenter"
	"github.com/kieranklaassen/agentskills/pkg/skills"
)

var validateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Validate every skill in a directory",
	Long: `Check every skill in a directory against the naming and metadata rules.
Loaders silently skip invalid skills; this command reports them instead.
Exits non-zero when any skill fails.

Examples:
  agentskills validate ./skills`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		problems, checked, err := validateSkillsDir(args[0])
		if err != nil {
			presenter.Error(err, "Failed to read skills directory")
			os.Exit(1)
		}

		if checked == 0 {
			presenter.Warning(fmt.Sprintf("No skills found in %s", args[0]))
			return
		}

		if err := problems.ErrorOrNil(); err != nil {
			presenter.Error(err, "Validation failed")
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("%d skill(s) valid", checked))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateSkillsDir checks each skill candidate in dir: directories with a
// SKILL.md manifest and standalone markdown files. It returns every
// problem found and the number of candidates checked.
func validateSkillsDir(dir string) (*multierror.Error, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var problems *multierror.Error
	checked := 0

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		entryPath := filepath.Join(dir, name)

		info, err := os.Stat(entryPath)
		if err != nil {
			problems = multierror.Append(problems, errors.Wrapf(err, "failed to stat %s", entryPath))
			continue
		}

		switch {
		case info.IsDir():
			if _, err := os.Stat(filepath.Join(entryPath, skills.SkillFileName)); err != nil {
				continue
			}
			checked++
			if _, err := skills.New(entryPath); err != nil {
				problems = multierror.Append(problems, err)
			}
		case strings.HasSuffix(name, ".md") && name != skills.SkillFileName:
			checked++
			if _, err := skills.NewFromFile(entryPath); err != nil {
				problems = multierror.Append(problems, err)
			}
		}
	}

	return problems, checked, nil
}
