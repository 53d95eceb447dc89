package frontmatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytes(t *testing.T) {
	t.Run("valid front matter and body", func(t *testing.T) {
		content := `---
name: test-skill
description: A test skill
---

# Test Skill

Instructions here.
`
		doc, err := ParseBytes([]byte(content))
		require.NoError(t, err)
		assert.Equal(t, "test-skill", doc.Meta["name"])
		assert.Equal(t, "A test skill", doc.Meta["description"])
		assert.Equal(t, "# Test Skill\n\nInstructions here.", doc.Body)
	})

	t.Run("empty front matter block yields empty map", func(t *testing.T) {
		content := `---
---

Body only.
`
		doc, err := ParseBytes([]byte(content))
		require.NoError(t, err)
		assert.NotNil(t, doc.Meta)
		assert.Empty(t, doc.Meta)
		assert.Equal(t, "Body only.", doc.Body)
	})

	t.Run("whitespace-only block yields empty map", func(t *testing.T) {
		doc, err := ParseBytes([]byte("---\n   \n---\nbody"))
		require.NoError(t, err)
		assert.Empty(t, doc.Meta)
		assert.Equal(t, "body", doc.Body)
	})

	t.Run("missing front matter", func(t *testing.T) {
		_, err := ParseBytes([]byte("# Just markdown\n\nNo front matter here.\n"))
		assert.ErrorIs(t, err, ErrMissingFrontMatter)
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := ParseBytes([]byte(""))
		assert.ErrorIs(t, err, ErrMissingFrontMatter)
	})

	t.Run("unterminated front matter", func(t *testing.T) {
		_, err := ParseBytes([]byte("---\nname: test\ndescription: never closed\n"))
		assert.ErrorIs(t, err, ErrUnterminatedFrontMatter)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		content := `---
name: [unclosed
---
body
`
		_, err := ParseBytes([]byte(content))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMissingFrontMatter)
	})

	t.Run("non-mapping front matter", func(t *testing.T) {
		content := `---
- just
- a
- list
---
body
`
		_, err := ParseBytes([]byte(content))
		assert.Error(t, err)
	})

	t.Run("nested mappings are normalized to string keys", func(t *testing.T) {
		content := `---
name: nested-skill
description: Nested metadata
metadata:
  author: alice
  tags:
    - pdf
    - forms
  extra:
    level: 2
---
body
`
		doc, err := ParseBytes([]byte(content))
		require.NoError(t, err)

		nested, ok := doc.Meta["metadata"].(map[string]any)
		require.True(t, ok, "nested mapping should be map[string]any, got %T", doc.Meta["metadata"])
		assert.Equal(t, "alice", nested["author"])

		tags, ok := nested["tags"].([]any)
		require.True(t, ok)
		assert.Equal(t, []any{"pdf", "forms"}, tags)

		extra, ok := nested["extra"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 2, extra["level"])
	})

	t.Run("crlf line endings", func(t *testing.T) {
		content := "---\r\nname: crlf-skill\r\ndescription: Windows line endings\r\n---\r\nbody\r\n"
		doc, err := ParseBytes([]byte(content))
		require.NoError(t, err)
		assert.Equal(t, "crlf-skill", doc.Meta["name"])
	})

	t.Run("body surrounding whitespace trimmed", func(t *testing.T) {
		content := "---\nname: x\ndescription: y\n---\n\n\n\nactual body\n\n"
		doc, err := ParseBytes([]byte(content))
		require.NoError(t, err)
		assert.Equal(t, "actual body", doc.Body)
	})

	t.Run("front matter only, no body", func(t *testing.T) {
		doc, err := ParseBytes([]byte("---\nname: x\ndescription: y\n---"))
		require.NoError(t, err)
		assert.Equal(t, "x", doc.Meta["name"])
		assert.Equal(t, "", doc.Body)
	})

	t.Run("delimiter inside body is not a terminator", func(t *testing.T) {
		content := `---
name: x
description: y
---
Some text.

---

A thematic break above, part of the body.
`
		doc, err := ParseBytes([]byte(content))
		require.NoError(t, err)
		assert.Contains(t, doc.Body, "---")
		assert.Contains(t, doc.Body, "thematic break")
	})
}

func TestParseFile(t *testing.T) {
	t.Run("reads and parses a file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "SKILL.md")
		content := `---
name: file-skill
description: Loaded from disk
---

Do the thing.
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		doc, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, "file-skill", doc.Meta["name"])
		assert.Equal(t, "Do the thing.", doc.Body)
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(t.TempDir(), "absent.md"))
		require.Error(t, err)
		assert.True(t, os.IsNotExist(errors.Cause(err)))
	})

	t.Run("error message names the file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "SKILL.md")
		require.NoError(t, os.WriteFile(path, []byte("no front matter"), 0o644))

		_, err := ParseFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SKILL.md")
	})
}

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader("---\nname: reader-skill\ndescription: via io.Reader\n---\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "reader-skill", doc.Meta["name"])
	assert.Equal(t, "body", doc.Body)
}

func TestExtractBody(t *testing.T) {
	t.Run("returns the trimmed body", func(t *testing.T) {
		content := "---\nname: x\ndescription: y\n---\n\n# Title\n\nBody text.\n\n"
		assert.Equal(t, "# Title\n\nBody text.", ExtractBody([]byte(content)))
	})

	t.Run("round-trips a concatenated document", func(t *testing.T) {
		body := "# Guide\n\nStep one.\nStep two."
		doc := "---\nname: guide\ndescription: d\n---\n" + body + "\n"
		assert.Equal(t, body, ExtractBody([]byte(doc)))
	})

	t.Run("missing front matter yields empty string", func(t *testing.T) {
		assert.Equal(t, "", ExtractBody([]byte("# No front matter\n\nJust markdown.\n")))
	})

	t.Run("unterminated front matter yields empty string", func(t *testing.T) {
		assert.Equal(t, "", ExtractBody([]byte("---\nname: x\nnever closed\n")))
	})

	t.Run("empty document yields empty string", func(t *testing.T) {
		assert.Equal(t, "", ExtractBody(nil))
	})

	t.Run("invalid yaml still yields the body", func(t *testing.T) {
		// splitting does not decode the block, so broken YAML is fine here
		assert.Equal(t, "body", ExtractBody([]byte("---\nname: [unclosed\n---\nbody\n")))
	})
}
