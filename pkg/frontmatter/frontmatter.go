// Package frontmatter parses YAML front matter from SKILL.md documents.
// Front matter is delimited by "---" lines at the very start of the file;
// the remainder of the document is the markdown body.
package frontmatter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

var (
	// ErrMissingFrontMatter indicates the document does not start with a "---" line.
	ErrMissingFrontMatter = errors.New("missing front matter")
	// ErrUnterminatedFrontMatter indicates an opening "---" with no closing delimiter.
	ErrUnterminatedFrontMatter = errors.New("unterminated front matter")
)

// Document is a parsed SKILL.md: the decoded front-matter mapping and the
// markdown body that follows the closing delimiter.
type Document struct {
	Meta map[string]any
	Body string
}

// Parse reads the full document from r and parses it.
func Parse(r io.Reader) (*Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read document")
	}
	return ParseBytes(content)
}

// ParseFile parses the document at path.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	doc, err := ParseBytes(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return doc, nil
}

// splitDocument separates a document into its front-matter block and the
// body after the closing delimiter, trimmed of surrounding whitespace. The
// opening "---" must be the first line of the document.
func splitDocument(content []byte) (block, body string, err error) {
	lines := strings.Split(string(content), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", "", ErrMissingFrontMatter
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closing = i
			break
		}
	}
	if closing == -1 {
		return "", "", ErrUnterminatedFrontMatter
	}

	block = strings.TrimSpace(strings.Join(lines[1:closing], "\n"))
	body = strings.TrimSpace(strings.Join(lines[closing+1:], "\n"))
	return block, body, nil
}

// ParseBytes parses a document held in memory.
//
// An empty block ("---" immediately followed by "---") is valid and yields
// an empty map. Invalid YAML between the delimiters is an error, as is a
// top-level YAML value that is not a mapping.
func ParseBytes(content []byte) (*Document, error) {
	block, body, err := splitDocument(content)
	if err != nil {
		return nil, err
	}

	if block == "" {
		return &Document{Meta: map[string]any{}, Body: body}, nil
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid front matter")
	}
	if metaData == nil {
		return nil, errors.New("front matter is not a mapping")
	}

	return &Document{Meta: normalizeMap(metaData), Body: body}, nil
}

// ExtractBody returns the body of a document using the same splitting
// rules as ParseBytes, but tolerantly: a document without a complete
// front-matter block yields the empty string rather than an error.
func ExtractBody(content []byte) string {
	_, body, err := splitDocument(content)
	if err != nil {
		return ""
	}
	return body
}

// normalizeMap converts the yaml.v2 shapes goldmark-meta produces
// (map[interface{}]interface{} for nested mappings) into map[string]any
// throughout the tree.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprintf("%v", k)
			}
			out[key] = normalizeValue(inner)
		}
		return out
	case map[string]any:
		return normalizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	default:
		return v
	}
}
