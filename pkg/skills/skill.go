// Package skills implements progressive disclosure of agent skills. A skill
// is a named bundle of instructions and supporting files described by YAML
// front matter in a SKILL.md document. Metadata is always available, full
// instructions load on demand, and bundled resources load on further demand.
//
// Skills come from filesystem directories, zip archives, or database-style
// records; loaders share a common interface and compose.
package skills

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kieranklaassen/agentskills/pkg/frontmatter"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// SkillFileName is the manifest file that defines a directory-backed skill.
const SkillFileName = "SKILL.md"

// ContentKey is the reserved metadata key that carries an inline instruction
// body. It is consumed at construction and never appears in Skill.Metadata.
const ContentKey = "__content__"

const (
	databasePathPrefix = "database:"
	zipPathPrefix      = "zip:"
)

// Skill is a single loaded skill. Name, Description and the optional fields
// come from front matter; Path records where the skill came from: a
// directory, "database:<id>", or "zip:<archive>:<entry>".
//
// Instruction content and the resource listing are cached after first
// access. A Skill is safe for concurrent use.
type Skill struct {
	Name          string
	Description   string
	License       string
	Compatibility string
	AllowedTools  []string
	Metadata      map[string]any
	Path          string

	virtual bool

	mu        sync.Mutex
	content   *string
	resources []Resource
	scanned   bool
}

// Option configures a Skill during construction.
type Option func(*Skill) error

// WithContent supplies the instruction body up front, taking precedence over
// the ContentKey metadata entry and lazy file loading.
func WithContent(content string) Option {
	return func(s *Skill) error {
		s.content = &content
		return nil
	}
}

// WithVirtual marks the skill as having no skill directory behind it.
// Virtual skills return empty resource listings and reject resource reads.
func WithVirtual() Option {
	return func(s *Skill) error {
		s.virtual = true
		return nil
	}
}

// WithResources supplies a pre-extracted resource listing, used by loaders
// whose skills carry files somewhere other than a directory on disk. The
// listing is sorted and cached as if a scan had already run.
func WithResources(resources []Resource) Option {
	return func(s *Skill) error {
		rs := make([]Resource, len(resources))
		copy(rs, resources)
		sort.Slice(rs, func(i, j int) bool { return rs[i].Rel < rs[j].Rel })
		s.resources = rs
		s.scanned = true
		return nil
	}
}

type header struct {
	Name          string `mapstructure:"name"`
	Description   string `mapstructure:"description"`
	License       string `mapstructure:"license"`
	Compatibility string `mapstructure:"compatibility"`
}

func decodeHeader(meta map[string]any) (header, error) {
	var h header
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &h,
	})
	if err != nil {
		return h, errors.Wrap(err, "failed to build metadata decoder")
	}
	if err := dec.Decode(meta); err != nil {
		return h, errors.Wrap(err, "failed to decode skill metadata")
	}
	return h, nil
}

// New loads a skill from a directory containing SKILL.md. Only front matter
// is read here; the instruction body loads lazily on first Content call.
// A directory without a SKILL.md is a LoadError; a manifest that cannot be
// parsed is a ParseError.
func New(dir string, opts ...Option) (*Skill, error) {
	doc, err := frontmatter.ParseFile(filepath.Join(dir, SkillFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Source: dir, Err: err}
		}
		return nil, &ParseError{Path: dir, Err: err}
	}
	return NewFromMetadata(dir, doc.Meta, opts...)
}

// NewFromFile loads a single-file skill from a standalone markdown document.
// The whole file is read eagerly and the skill is virtual: it carries no
// resource directory. Its name must match the file stem.
func NewFromFile(path string, opts ...Option) (*Skill, error) {
	doc, err := frontmatter.ParseFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Source: path, Err: err}
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	opts = append([]Option{WithContent(doc.Body), WithVirtual()}, opts...)
	return NewFromMetadata(path, doc.Meta, opts...)
}

// NewFromMetadata constructs a skill from an already-parsed metadata map
// without touching the filesystem. A ContentKey entry becomes the cached
// instruction body and is stripped from the public metadata. The skill is
// validated; failures return an InvalidSkillError.
func NewFromMetadata(skillPath string, meta map[string]any, opts ...Option) (*Skill, error) {
	h, err := decodeHeader(meta)
	if err != nil {
		return nil, &ParseError{Path: skillPath, Err: err}
	}

	public := make(map[string]any, len(meta))
	for k, v := range meta {
		if k != ContentKey {
			public[k] = v
		}
	}

	s := &Skill{
		Name:          h.Name,
		Description:   h.Description,
		License:       h.License,
		Compatibility: h.Compatibility,
		AllowedTools:  parseAllowedTools(meta["allowed-tools"]),
		Metadata:      public,
		Path:          skillPath,
		virtual:       pathIsVirtual(skillPath),
	}

	if c, ok := meta[ContentKey].(string); ok {
		s.content = &c
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if problems := Validate(s); len(problems) > 0 {
		return nil, &InvalidSkillError{Name: s.Name, Problems: problems}
	}

	return s, nil
}

func pathIsVirtual(p string) bool {
	return strings.HasPrefix(p, databasePathPrefix) || strings.HasPrefix(p, zipPathPrefix)
}

// parseAllowedTools accepts the two front-matter shapes for allowed-tools:
// a space-separated string or a YAML list.
func parseAllowedTools(v any) []string {
	switch t := v.(type) {
	case string:
		return strings.Fields(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return nil
	}
}

// Virtual reports whether the skill has no skill directory backing it.
// Database records, zip entries and single-file skills are virtual.
func (s *Skill) Virtual() bool {
	return s.virtual
}

// CustomMetadata returns the free-form map stored under the "metadata"
// front-matter key, or nil when the skill has none.
func (s *Skill) CustomMetadata() map[string]any {
	m, _ := s.Metadata["metadata"].(map[string]any)
	return m
}

// Content returns the full instruction body. Resolution order: content
// supplied at construction, then the ContentKey metadata entry, then a lazy
// read of SKILL.md under Path. Virtual skills with no supplied content
// return the empty string.
func (s *Skill) Content() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.content != nil {
		return *s.content, nil
	}
	if s.virtual {
		empty := ""
		s.content = &empty
		return "", nil
	}

	doc, err := frontmatter.ParseFile(filepath.Join(s.Path, SkillFileName))
	if err != nil {
		return "", errors.Wrapf(err, "failed to load content for skill %s", s.Name)
	}
	s.content = &doc.Body
	return doc.Body, nil
}

// ResourceKind classifies a bundled file by its top-level directory.
type ResourceKind string

const (
	KindScript    ResourceKind = "script"
	KindReference ResourceKind = "reference"
	KindAsset     ResourceKind = "asset"
)

// Resource is a supporting file bundled with a skill, addressed by its
// slash-separated path relative to the skill directory.
type Resource struct {
	Rel  string
	Kind ResourceKind
	Size int64
}

var resourceDirs = []struct {
	dir  string
	kind ResourceKind
}{
	{"scripts", KindScript},
	{"references", KindReference},
	{"assets", KindAsset},
}

// resourceKindFor classifies a relative path by its leading directory. Paths
// outside the three resource directories report false.
func resourceKindFor(rel string) (ResourceKind, bool) {
	top, rest, ok := strings.Cut(rel, "/")
	if !ok || rest == "" {
		return "", false
	}
	for _, rd := range resourceDirs {
		if rd.dir == top {
			return rd.kind, true
		}
	}
	return "", false
}

// Resources lists the files under the scripts/, references/ and assets/
// subdirectories, sorted by relative path. Placeholder files (.keep,
// .gitkeep) are excluded. Virtual skills return an empty listing. The
// result is cached until Reload.
func (s *Skill) Resources() ([]Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanned {
		return s.resources, nil
	}
	if s.virtual {
		s.resources = []Resource{}
		s.scanned = true
		return s.resources, nil
	}

	var found []Resource
	for _, rd := range resourceDirs {
		root := filepath.Join(s.Path, rd.dir)
		entries, err := collectFiles(root, rd.dir, rd.kind)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s for skill %s", rd.dir, s.Name)
		}
		found = append(found, entries...)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Rel < found[j].Rel })

	if found == nil {
		found = []Resource{}
	}
	s.resources = found
	s.scanned = true
	return s.resources, nil
}

func collectFiles(root, rel string, kind ResourceKind) ([]Resource, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var out []Resource
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".keep" || name == ".gitkeep" {
			return nil
		}
		sub, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Resource{
			Rel:  path.Join(rel, filepath.ToSlash(sub)),
			Kind: kind,
			Size: fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ErrInvalidResourcePath rejects resource paths that are absolute or escape
// the skill directory.
var ErrInvalidResourcePath = errors.New("invalid resource path")

// CheckResourcePath validates a relative resource path before any
// filesystem access. Absolute paths and paths whose cleaned form climbs out
// of the skill directory are rejected.
func CheckResourcePath(rel string) error {
	if rel == "" {
		return ErrInvalidResourcePath
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return ErrInvalidResourcePath
	}
	clean := path.Clean(filepath.ToSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return ErrInvalidResourcePath
	}
	return nil
}

// ReadResource reads a bundled file by its path relative to the skill
// directory. The path is validated before any filesystem access. Virtual
// skills have no directory to read from and always fail.
func (s *Skill) ReadResource(rel string) ([]byte, error) {
	if err := CheckResourcePath(rel); err != nil {
		return nil, err
	}
	if s.virtual {
		return nil, errors.Errorf("cannot load resources from virtual skill %q", s.Name)
	}

	full := filepath.Join(s.Path, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read resource %s of skill %s", rel, s.Name)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Wrapf(os.ErrNotExist, "resource %s of skill %s is not a regular file", rel, s.Name)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read resource %s of skill %s", rel, s.Name)
	}
	return data, nil
}

// Reload drops the cached content and resource listing so the next access
// re-reads from disk. Virtual skills keep their injected content and
// listing since there is nothing behind them to re-read.
func (s *Skill) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.virtual {
		return
	}
	s.content = nil
	s.resources = nil
	s.scanned = false
}

// Valid reports whether the skill passes validation.
func (s *Skill) Valid() bool {
	return len(Validate(s)) == 0
}
