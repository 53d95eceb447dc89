package skillstore

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kieranklaassen/agentskills/pkg/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "skills.db")
	store, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func skillManifest(name, description, body string) string {
	return "---\nname: " + name + "\ndescription: " + description + "\n---\n" + body
}

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpen_CreatesSchema(t *testing.T) {
	store := newTestStore(t)

	var hasSkills bool
	err := store.db.Get(&hasSkills, `
		SELECT COUNT(*) > 0 FROM sqlite_master
		WHERE type='table' AND name='skills'
	`)
	require.NoError(t, err)
	assert.True(t, hasSkills)
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := &SkillRecord{
		Name:          "pdf-processing",
		Description:   "Extract text from PDFs",
		License:       "MIT",
		Compatibility: "requires poppler",
		Content:       "# PDF Processing\n\nUse pdftotext.\n",
		Metadata:      map[string]any{"version": "2.0"},
	}
	require.NoError(t, store.Put(ctx, rec))
	assert.NotEmpty(t, rec.ID, "Put must assign an ID")
	assert.False(t, rec.CreatedAt.IsZero())

	loaded, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, "pdf-processing", loaded.Name)
	assert.Equal(t, "Extract text from PDFs", loaded.Description)
	assert.Equal(t, "MIT", loaded.License)
	assert.Equal(t, "requires poppler", loaded.Compatibility)
	assert.Equal(t, rec.Content, loaded.Content)
	assert.Equal(t, map[string]any{"version": "2.0"}, loaded.Metadata)
	assert.Empty(t, loaded.Data)

	_, err = store.Get(ctx, "non-existent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill record not found")

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, err = store.Get(ctx, rec.ID)
	assert.Error(t, err)
}

func TestStore_PutUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := &SkillRecord{ID: "fixed-id", Name: "first-name", Description: "First"}
	require.NoError(t, store.Put(ctx, rec))

	first, err := store.Get(ctx, "fixed-id")
	require.NoError(t, err)

	updated := &SkillRecord{ID: "fixed-id", Name: "second-name", Description: "Second"}
	require.NoError(t, store.Put(ctx, updated))

	loaded, err := store.Get(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "second-name", loaded.Name)
	assert.Equal(t, "Second", loaded.Description)
	assert.WithinDuration(t, first.CreatedAt, loaded.CreatedAt, time.Second)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, name := range []string{"zebra-skill", "alpha-skill", "middle-skill"} {
		rec := &SkillRecord{Name: name, Description: "Skill " + name}
		require.NoError(t, store.Put(ctx, rec))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alpha-skill", list[0].Name)
	assert.Equal(t, "middle-skill", list[1].Name)
	assert.Equal(t, "zebra-skill", list[2].Name)
}

func TestStore_Records(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	contentRec := &SkillRecord{
		Name:        "inline-skill",
		Description: "Stored inline",
		License:     "Apache-2.0",
		Content:     "Inline instructions.\n",
	}
	require.NoError(t, store.Put(ctx, contentRec))

	archive := buildArchive(t, map[string]string{
		"packed-skill/SKILL.md": skillManifest("packed-skill", "From an archive", "Packed instructions.\n"),
	})
	dataRec := &SkillRecord{
		Name:        "packed-skill",
		Description: "Stored description",
		Data:        archive,
	}
	require.NoError(t, store.Put(ctx, dataRec))

	loader := skills.NewDatabaseLoaderSource(store)
	list, err := loader.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	inline, err := loader.Find(ctx, "inline-skill")
	require.NoError(t, err)
	require.NotNil(t, inline)
	assert.Equal(t, "database:"+contentRec.ID, inline.Path)
	assert.True(t, inline.Virtual())
	assert.Equal(t, "Apache-2.0", inline.License)
	content, err := inline.Content()
	require.NoError(t, err)
	assert.Equal(t, "Inline instructions.\n", content)

	packed, err := loader.Find(ctx, "packed-skill")
	require.NoError(t, err)
	require.NotNil(t, packed)
	assert.Equal(t, "database:"+dataRec.ID, packed.Path)
	assert.Equal(t, "Stored description", packed.Description, "row fields beat packed front matter")
	packedContent, err := packed.Content()
	require.NoError(t, err)
	assert.Contains(t, packedContent, "Packed instructions.")
}

func TestStore_ImportZip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	archive := buildArchive(t, map[string]string{
		"tool-a/SKILL.md":     skillManifest("tool-a", "First tool", "Use tool a.\n"),
		"tool-a/scripts/a.sh": "#!/bin/sh\n",
		"tool-b/SKILL.md":     skillManifest("tool-b", "Second tool", "Use tool b.\n"),
	})
	archivePath := filepath.Join(t.TempDir(), "toolkit.zip")
	require.NoError(t, os.WriteFile(archivePath, archive, 0o644))

	imported, err := store.ImportZip(ctx, archivePath)
	require.NoError(t, err)
	require.Len(t, imported, 2, "one record per packed skill")

	byName := map[string]SkillRecord{}
	for _, rec := range imported {
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.Data)
		byName[rec.Name] = rec
	}
	assert.Equal(t, "First tool", byName["tool-a"].Description)
	assert.Equal(t, "Second tool", byName["tool-b"].Description)

	loader := skills.NewDatabaseLoaderSource(store)
	toolA, err := loader.Find(ctx, "tool-a")
	require.NoError(t, err)
	require.NotNil(t, toolA)
	assert.Equal(t, "database:"+byName["tool-a"].ID, toolA.Path)

	content, err := toolA.Content()
	require.NoError(t, err)
	assert.Contains(t, content, "Use tool a.")

	resources, err := toolA.Resources()
	require.NoError(t, err)
	require.Len(t, resources, 1, "bundled files survive the round trip")
	assert.Equal(t, "scripts/a.sh", resources[0].Rel)
}

func TestStore_ImportZipRejectsEmptyArchive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	archive := buildArchive(t, map[string]string{
		"notes.txt": "not a skill",
	})
	archivePath := filepath.Join(t.TempDir(), "empty.zip")
	require.NoError(t, os.WriteFile(archivePath, archive, 0o644))

	_, err := store.ImportZip(ctx, archivePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no skills found in archive")
}

func TestStore_ImportDir(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	root := t.TempDir()
	skillDir := filepath.Join(root, "git-workflow")
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	manifest := "---\nname: git-workflow\ndescription: Git conventions\nlicense: MIT\nversion: \"3.1\"\n---\nFollow the workflow.\n"
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, skills.SkillFileName), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "quick-notes.md"), []byte(skillManifest("quick-notes", "Single file skill", "Take notes.\n")), 0o644))

	imported, err := store.ImportDir(ctx, root)
	require.NoError(t, err)
	require.Len(t, imported, 2)

	byName := map[string]SkillRecord{}
	for _, rec := range imported {
		byName[rec.Name] = rec
	}

	git := byName["git-workflow"]
	assert.Equal(t, "Git conventions", git.Description)
	assert.Equal(t, "MIT", git.License)
	assert.Equal(t, "Follow the workflow.\n", git.Content)
	assert.Equal(t, map[string]any{"version": "3.1"}, git.Metadata)

	notes := byName["quick-notes"]
	assert.Equal(t, "Take notes.\n", notes.Content)

	loader := skills.NewDatabaseLoaderSource(store)
	sk, err := loader.Find(ctx, "git-workflow")
	require.NoError(t, err)
	require.NotNil(t, sk)
	assert.True(t, sk.Virtual())
	content, err := sk.Content()
	require.NoError(t, err)
	assert.Equal(t, "Follow the workflow.\n", content)
}
