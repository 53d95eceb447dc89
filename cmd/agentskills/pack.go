package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kieranklaassen/agentskills/pkg/presenter"
	"github.com/kieranklaassen/agentskills/pkg/skills"
)

type PackConfig struct {
	Output string
}

func NewPackConfig() *PackConfig {
	return &PackConfig{
		Output: "skills.zip",
	}
}

var packCmd = &cobra.Command{
	Use:   "pack <dir>",
	Short: "Package a skills directory into a zip archive",
	Long: `Package every skill in a directory into a zip archive. Each skill
becomes a <name>/SKILL.md entry holding its front matter and instruction
body, plus entries for any bundled scripts, references and assets. The
resulting archive loads directly as an archive source and imports into
the skill database.

Examples:
  agentskills pack ./skills
  agentskills pack ./skills -o dist/skills.zip`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getPackConfigFromFlags(cmd)

		packed, err := packSkillsDir(ctx, args[0], config.Output)
		if err != nil {
			presenter.Error(err, "Failed to pack skills")
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("Packed %d skill(s) into %s", packed, config.Output))
	},
}

func init() {
	defaults := NewPackConfig()
	packCmd.Flags().StringP("output", "o", defaults.Output, "Path of the archive to write")
	rootCmd.AddCommand(packCmd)
}

func getPackConfigFromFlags(cmd *cobra.Command) *PackConfig {
	config := NewPackConfig()
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	return config
}

func packSkillsDir(ctx context.Context, dir, output string) (int, error) {
	collection, err := skills.NewFSLoader(dir).List(ctx)
	if err != nil {
		return 0, err
	}
	if len(collection) == 0 {
		return 0, errors.Errorf("no skills found in %s", dir)
	}

	f, err := os.Create(output)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create archive %s", output)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, skill := range collection {
		if err := packSkill(zw, skill); err != nil {
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		return 0, errors.Wrap(err, "failed to finalize archive")
	}

	return len(collection), nil
}

// packSkill writes one skill's manifest and resource files under its own
// top-level directory in the archive.
func packSkill(zw *zip.Writer, skill *skills.Skill) error {
	content, err := skill.Content()
	if err != nil {
		return errors.Wrapf(err, "failed to load content for skill %s", skill.Name)
	}

	manifest, err := renderSkillManifest(skill.Metadata, content)
	if err != nil {
		return errors.Wrapf(err, "failed to render skill %s", skill.Name)
	}
	if err := writeArchiveEntry(zw, skill.Name+"/"+skills.SkillFileName, manifest); err != nil {
		return errors.Wrapf(err, "failed to pack skill %s", skill.Name)
	}

	resources, err := skill.Resources()
	if err != nil {
		return errors.Wrapf(err, "failed to list resources for skill %s", skill.Name)
	}
	for _, r := range resources {
		data, err := skill.ReadResource(r.Rel)
		if err != nil {
			return errors.Wrapf(err, "failed to read resource %s of skill %s", r.Rel, skill.Name)
		}
		if err := writeArchiveEntry(zw, skill.Name+"/"+r.Rel, data); err != nil {
			return errors.Wrapf(err, "failed to pack resource %s of skill %s", r.Rel, skill.Name)
		}
	}
	return nil
}

func writeArchiveEntry(zw *zip.Writer, name string, data []byte) error {
	entry, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "failed to create archive entry %s", name)
	}
	_, err = entry.Write(data)
	return errors.Wrapf(err, "failed to write archive entry %s", name)
}

// renderSkillManifest renders a standalone skill document: YAML front
// matter followed by the instruction body.
func renderSkillManifest(front any, content string) ([]byte, error) {
	head, err := yaml.Marshal(front)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render front matter")
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimRight(content, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
