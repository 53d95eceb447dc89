package skills

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/kieranklaassen/agentskills/pkg/frontmatter"
	"github.com/kieranklaassen/agentskills/pkg/logger"
	"github.com/pkg/errors"
)

// maxZipEntrySize caps how much of a single archive entry is read into
// memory, guarding against forged size headers.
const maxZipEntrySize = 64 << 20

// ErrEntryNotFound reports a ReadFile miss on a zip archive.
var ErrEntryNotFound = errors.New("entry not found in archive")

// ZipLoader loads skills from a zip archive laid out like a skills
// directory: each skill is a top-level <name>/SKILL.md entry with optional
// scripts/, references/ and assets/ entries beside it. Skills are virtual;
// content and resource listings are extracted at list time so the archive
// handle is never held open between calls.
type ZipLoader struct {
	cachingLoader
	path string
	data []byte
}

// NewZipLoader creates a loader over the archive at path. A missing archive
// is reported immediately as a LoadError; corruption surfaces later, from
// List.
func NewZipLoader(path string) (*ZipLoader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	l := &ZipLoader{path: path}
	l.fill = l.scan
	return l, nil
}

// NewZipLoaderFromBytes creates a loader over an in-memory archive. The
// name stands in for the archive path in skill paths and error messages.
func NewZipLoaderFromBytes(name string, data []byte) *ZipLoader {
	l := &ZipLoader{path: name, data: data}
	l.fill = l.scan
	return l
}

// Path returns the archive path or in-memory archive name.
func (l *ZipLoader) Path() string {
	return l.path
}

func (l *ZipLoader) open() (*zip.Reader, io.Closer, error) {
	if l.data != nil {
		r, err := zip.NewReader(bytes.NewReader(l.data), int64(len(l.data)))
		if err != nil {
			return nil, nil, err
		}
		return r, nil, nil
	}
	rc, err := zip.OpenReader(l.path)
	if err != nil {
		return nil, nil, err
	}
	return &rc.Reader, rc, nil
}

func (l *ZipLoader) scan(ctx context.Context) ([]*Skill, error) {
	r, closer, err := l.open()
	if err != nil {
		return nil, &LoadError{Source: l.path, Err: err}
	}
	if closer != nil {
		defer closer.Close()
	}

	// One pass over the archive: pick out top-level skill manifests and
	// group resource entries by their skill directory. Nested SKILL.md
	// entries are not skills.
	manifests := map[string]*zip.File{}
	resources := map[string][]Resource{}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dir, rest, ok := strings.Cut(f.Name, "/")
		if !ok || dir == "" || rest == "" {
			continue
		}
		if rest == SkillFileName {
			if _, dup := manifests[dir]; !dup {
				manifests[dir] = f
			}
			continue
		}
		base := path.Base(rest)
		if base == ".keep" || base == ".gitkeep" {
			continue
		}
		kind, ok := resourceKindFor(rest)
		if !ok {
			continue
		}
		resources[dir] = append(resources[dir], Resource{
			Rel:  rest,
			Kind: kind,
			Size: int64(f.UncompressedSize64),
		})
	}

	dirs := make([]string, 0, len(manifests))
	for dir := range manifests {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	log := logger.G(ctx)
	found := []*Skill{}
	seen := make(map[string]bool)

	for _, dir := range dirs {
		f := manifests[dir]

		content, err := readZipEntry(f)
		if err != nil {
			log.WithError(err).WithField("entry", f.Name).Warn("skipping unreadable archive entry")
			continue
		}

		doc, err := frontmatter.ParseBytes(content)
		if err != nil {
			log.WithError(err).WithField("entry", f.Name).Warn("skipping archive entry without valid front matter")
			continue
		}

		skillPath := fmt.Sprintf("%s%s:%s", zipPathPrefix, l.path, f.Name)
		skill, err := NewFromMetadata(skillPath, doc.Meta,
			WithContent(doc.Body), WithResources(resources[dir]))
		if err != nil {
			log.WithError(err).WithField("entry", f.Name).Warn("skipping invalid archive skill")
			continue
		}

		if seen[skill.Name] {
			continue
		}
		seen[skill.Name] = true
		found = append(found, skill)
	}

	return found, nil
}

// ReadFile reads the raw bytes of a file bundled with a named skill. The
// slash-separated relative path resolves against the skill's directory
// inside the archive; a miss is reported with ErrEntryNotFound.
func (l *ZipLoader) ReadFile(skillName, rel string) ([]byte, error) {
	if err := CheckResourcePath(rel); err != nil {
		return nil, err
	}

	r, closer, err := l.open()
	if err != nil {
		return nil, &LoadError{Source: l.path, Err: err}
	}
	if closer != nil {
		defer closer.Close()
	}

	entry := skillName + "/" + path.Clean(rel)
	for _, f := range r.File {
		if f.Name == entry && !f.FileInfo().IsDir() {
			return readZipEntry(f)
		}
	}
	return nil, errors.Wrapf(ErrEntryNotFound, "%s", entry)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxZipEntrySize {
		return nil, errors.Errorf("entry %s exceeds %d bytes", f.Name, int64(maxZipEntrySize))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open entry %s", f.Name)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxZipEntrySize+1))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read entry %s", f.Name)
	}
	if len(data) > maxZipEntrySize {
		return nil, errors.Errorf("entry %s exceeds %d bytes", f.Name, int64(maxZipEntrySize))
	}
	return data, nil
}
