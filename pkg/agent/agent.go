// Package agent wires skill sources into a loader and a model-facing
// skill tool. Callers describe where skills come from with Source values;
// a configured default directory stands in when no sources are named.
// There is no hidden global state.
package agent

import (
	"github.com/pkg/errors"

	"github.com/kieranklaassen/agentskills/pkg/skills"
	"github.com/kieranklaassen/agentskills/pkg/tools"
)

type sourceKind int

const (
	sourceInvalid sourceKind = iota
	sourcePaths
	sourceArchive
	sourceRecords
	sourceRecordSource
	sourceLoader
)

// Source names one place skills are loaded from. Build values with the
// constructors below; the zero value is invalid.
type Source struct {
	kind    sourceKind
	paths   []string
	archive string
	records []skills.Record
	source  skills.RecordSource
	loader  skills.Loader
}

// PathSource loads skills from a single directory.
func PathSource(dir string) Source {
	return Source{kind: sourcePaths, paths: []string{dir}}
}

// PathsSource loads skills from several directories. Earlier directories
// win on duplicate skill names.
func PathsSource(dirs ...string) Source {
	return Source{kind: sourcePaths, paths: dirs}
}

// ArchiveSource loads skills from a zip archive.
func ArchiveSource(zipPath string) Source {
	return Source{kind: sourceArchive, archive: zipPath}
}

// RecordsSource loads skills from a fixed set of database records.
func RecordsSource(recs []skills.Record) Source {
	return Source{kind: sourceRecords, records: recs}
}

// StoreSource loads skills from a live record source such as the
// skill store.
func StoreSource(src skills.RecordSource) Source {
	return Source{kind: sourceRecordSource, source: src}
}

// LoaderSource adopts an already-constructed loader.
func LoaderSource(l skills.Loader) Source {
	return Source{kind: sourceLoader, loader: l}
}

// Config describes the skill collection an agent exposes.
type Config struct {
	// Sources are combined first-wins: on duplicate skill names the
	// earliest source provides the skill.
	Sources []Source

	// DefaultDir is the directory searched when Sources is empty. It is
	// ignored as soon as any explicit source is present.
	DefaultDir string

	// Only restricts the collection to skills matching these names or
	// glob patterns. Empty means no restriction.
	Only []string
}

// Validate checks that the config names at least one usable source.
func (c Config) Validate() error {
	if len(c.Sources) == 0 && c.DefaultDir == "" {
		return errors.New("at least one skill source or a default directory is required")
	}
	for i, src := range c.Sources {
		if err := src.validate(); err != nil {
			return errors.Wrapf(err, "source %d", i)
		}
	}
	return nil
}

func (s Source) validate() error {
	switch s.kind {
	case sourcePaths:
		if len(s.paths) == 0 {
			return errors.New("no directories given")
		}
		for _, dir := range s.paths {
			if dir == "" {
				return errors.New("empty directory path")
			}
		}
	case sourceArchive:
		if s.archive == "" {
			return errors.New("empty archive path")
		}
	case sourceRecords:
		// A fixed record set may be empty.
	case sourceRecordSource:
		if s.source == nil {
			return errors.New("nil record source")
		}
	case sourceLoader:
		if s.loader == nil {
			return errors.New("nil loader")
		}
	default:
		return errors.New("empty source")
	}
	return nil
}

func (s Source) loaders() ([]skills.Loader, error) {
	switch s.kind {
	case sourcePaths:
		out := make([]skills.Loader, 0, len(s.paths))
		for _, dir := range s.paths {
			out = append(out, skills.NewFSLoader(dir))
		}
		return out, nil
	case sourceArchive:
		zl, err := skills.NewZipLoader(s.archive)
		if err != nil {
			return nil, err
		}
		return []skills.Loader{zl}, nil
	case sourceRecords:
		return []skills.Loader{skills.NewDatabaseLoader(s.records)}, nil
	case sourceRecordSource:
		return []skills.Loader{skills.NewDatabaseLoaderSource(s.source)}, nil
	case sourceLoader:
		return []skills.Loader{s.loader}, nil
	}
	return nil, errors.New("empty source")
}

// Resolve builds the loader described by the config: all sources combined
// first-wins, then filtered by the Only allow-list when one is set.
func Resolve(c Config) (skills.Loader, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sources := c.Sources
	if len(sources) == 0 {
		sources = []Source{PathSource(c.DefaultDir)}
	}

	var children []skills.Loader
	for _, src := range sources {
		ls, err := src.loaders()
		if err != nil {
			return nil, err
		}
		children = append(children, ls...)
	}

	var loader skills.Loader
	if len(children) == 1 {
		loader = children[0]
	} else {
		loader = skills.NewCompositeLoader(children...)
	}

	if len(c.Only) > 0 {
		filtered, err := skills.NewFilteredLoader(loader, c.Only)
		if err != nil {
			return nil, err
		}
		loader = filtered
	}

	return loader, nil
}

// NewSkillTool resolves the config and wraps the loader in a skill tool.
func NewSkillTool(c Config) (*tools.SkillTool, error) {
	loader, err := Resolve(c)
	if err != nil {
		return nil, err
	}
	return tools.NewSkillTool(loader), nil
}
