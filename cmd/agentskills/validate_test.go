package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kieranklaassen/agentskills/pkg/skills"
)

// writeTestSkill creates a directory-backed skill under parent and returns
// its path.
func writeTestSkill(t *testing.T, parent, name, description string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := "---\nname: " + name + "\ndescription: " + description + "\n---\n\n# " + name + "\n\nInstructions.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skills.SkillFileName), []byte(manifest), 0o644))
	return dir
}

func TestValidateSkillsDir(t *testing.T) {
	t.Run("all valid", func(t *testing.T) {
		dir := t.TempDir()
		writeTestSkill(t, dir, "alpha-skill", "First skill")
		writeTestSkill(t, dir, "beta-skill", "Second skill")

		problems, checked, err := validateSkillsDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 2, checked)
		assert.NoError(t, problems.ErrorOrNil())
	})

	t.Run("reports invalid skills", func(t *testing.T) {
		dir := t.TempDir()
		writeTestSkill(t, dir, "good-skill", "Fine")

		badDir := filepath.Join(dir, "bad-dir")
		require.NoError(t, os.MkdirAll(badDir, 0o755))
		manifest := "---\nname: other-name\ndescription: Name does not match directory\n---\nBody\n"
		require.NoError(t, os.WriteFile(filepath.Join(badDir, skills.SkillFileName), []byte(manifest), 0o644))

		problems, checked, err := validateSkillsDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 2, checked)
		require.Error(t, problems.ErrorOrNil())
		assert.Contains(t, problems.Error(), "must match directory name")
	})

	t.Run("reports malformed front matter", func(t *testing.T) {
		dir := t.TempDir()
		badDir := filepath.Join(dir, "broken-skill")
		require.NoError(t, os.MkdirAll(badDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(badDir, skills.SkillFileName), []byte("no front matter here"), 0o644))

		problems, checked, err := validateSkillsDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 1, checked)
		require.Error(t, problems.ErrorOrNil())
	})

	t.Run("checks single-file skills", func(t *testing.T) {
		dir := t.TempDir()
		doc := "---\nname: quick-notes\ndescription: Single file skill\n---\nBody\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "quick-notes.md"), []byte(doc), 0o644))

		problems, checked, err := validateSkillsDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 1, checked)
		assert.NoError(t, problems.ErrorOrNil())
	})

	t.Run("ignores unrelated entries", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "not-a-skill"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("hi"), 0o644))

		problems, checked, err := validateSkillsDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 0, checked)
		assert.NoError(t, problems.ErrorOrNil())
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, err := validateSkillsDir(filepath.Join(t.TempDir(), "absent"))
		assert.Error(t, err)
	})
}
