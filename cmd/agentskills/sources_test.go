package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceConfigFromFlags(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedConfig *SourceConfig
	}{
		{
			name:           "no flags",
			args:           []string{},
			expectedConfig: &SourceConfig{Dirs: []string{}, Archives: []string{}, Only: []string{}},
		},
		{
			name: "repeated skills-dir",
			args: []string{"-d", "./skills", "--skills-dir", "/opt/skills"},
			expectedConfig: &SourceConfig{
				Dirs:     []string{"./skills", "/opt/skills"},
				Archives: []string{},
				Only:     []string{},
			},
		},
		{
			name: "all source kinds",
			args: []string{"-d", "./skills", "--archive", "extra.zip", "--db", "skills.db", "--only", "pdf-*"},
			expectedConfig: &SourceConfig{
				Dirs:     []string{"./skills"},
				Archives: []string{"extra.zip"},
				DBPath:   "skills.db",
				Only:     []string{"pdf-*"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{
				Use: "test",
				Run: func(_ *cobra.Command, _ []string) {},
			}
			addSourceFlags(cmd)

			require.NoError(t, cmd.ParseFlags(tt.args))

			config := getSourceConfigFromFlags(cmd)
			assert.Equal(t, tt.expectedConfig.Dirs, config.Dirs)
			assert.Equal(t, tt.expectedConfig.Archives, config.Archives)
			assert.Equal(t, tt.expectedConfig.DBPath, config.DBPath)
			assert.Equal(t, tt.expectedConfig.Only, config.Only)
		})
	}
}

func TestResolveLoaderNoSources(t *testing.T) {
	viper.Reset()
	config := NewSourceConfig()

	_, _, err := config.resolveLoader(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no skill sources")
}

func TestResolveLoaderConfiguredDefaultDir(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	writeTestSkill(t, dir, "default-skill", "From the configured directory")
	viper.Set("skills_dir", dir)

	config := NewSourceConfig()
	loader, cleanup, err := config.resolveLoader(context.Background())
	require.NoError(t, err)
	defer cleanup()

	collection, err := loader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Equal(t, "default-skill", collection[0].Name)
}

func TestResolveLoaderFlagsBeatDefaultDir(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	fallback := t.TempDir()
	writeTestSkill(t, fallback, "fallback-skill", "Should stay unused")
	viper.Set("skills_dir", fallback)

	dir := t.TempDir()
	writeTestSkill(t, dir, "flag-skill", "From the flag")

	config := &SourceConfig{Dirs: []string{dir}}
	loader, cleanup, err := config.resolveLoader(context.Background())
	require.NoError(t, err)
	defer cleanup()

	collection, err := loader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Equal(t, "flag-skill", collection[0].Name)
}

func TestResolveLoaderFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestSkill(t, dir, "fs-skill", "From the filesystem")

	config := &SourceConfig{Dirs: []string{dir}}
	loader, cleanup, err := config.resolveLoader(context.Background())
	require.NoError(t, err)
	defer cleanup()

	collection, err := loader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Equal(t, "fs-skill", collection[0].Name)
}

func TestResolveLoaderOnlyFilter(t *testing.T) {
	dir := t.TempDir()
	writeTestSkill(t, dir, "data-export", "Matches the pattern")
	writeTestSkill(t, dir, "unrelated", "Filtered out")

	config := &SourceConfig{Dirs: []string{dir}, Only: []string{"data-*"}}
	loader, cleanup, err := config.resolveLoader(context.Background())
	require.NoError(t, err)
	defer cleanup()

	collection, err := loader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Equal(t, "data-export", collection[0].Name)
}

func TestResolveLoaderOpensStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "skills.db")

	config := &SourceConfig{DBPath: dbPath}
	loader, cleanup, err := config.resolveLoader(context.Background())
	require.NoError(t, err)

	collection, err := loader.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, collection)

	// The store was created on disk and closes cleanly.
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	assert.NoError(t, cleanup())
}

func TestResolveLoaderInvalidOnlyPattern(t *testing.T) {
	dir := t.TempDir()
	writeTestSkill(t, dir, "fs-skill", "From the filesystem")

	config := &SourceConfig{Dirs: []string{dir}, Only: []string{"["}}
	_, _, err := config.resolveLoader(context.Background())
	require.Error(t, err)
}
