package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/kieranklaassen/agentskills/pkg/logger"
	"github.com/pkg/errors"
)

// FSLoader discovers skills in a directory. Each subdirectory containing a
// SKILL.md becomes a skill, and each standalone top-level *.md file becomes
// a single-file virtual skill. Scanning does not recurse past one level.
type FSLoader struct {
	cachingLoader
	dir string
}

// NewFSLoader creates a loader over dir. A nonexistent directory is not an
// error; it lists no skills.
func NewFSLoader(dir string) *FSLoader {
	l := &FSLoader{dir: dir}
	l.fill = l.scan
	return l
}

// Dir returns the directory this loader scans.
func (l *FSLoader) Dir() string {
	return l.dir
}

func (l *FSLoader) scan(ctx context.Context) ([]*Skill, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Skill{}, nil
		}
		return nil, errors.Wrapf(err, "failed to read skills directory %s", l.dir)
	}

	log := logger.G(ctx)
	found := make([]*Skill, 0, len(entries))
	seen := make(map[string]bool)

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		entryPath := filepath.Join(l.dir, name)

		// stat rather than DirEntry type so symlinked skill directories work
		info, err := os.Stat(entryPath)
		if err != nil {
			log.WithError(err).WithField("path", entryPath).Warn("skipping unreadable entry")
			continue
		}

		var skill *Skill
		switch {
		case info.IsDir():
			if _, err := os.Stat(filepath.Join(entryPath, SkillFileName)); err != nil {
				continue
			}
			skill, err = New(entryPath)
			if err != nil {
				log.WithError(err).WithField("path", entryPath).Warn("skipping invalid skill")
				continue
			}
		case strings.HasSuffix(name, ".md") && name != SkillFileName:
			skill, err = NewFromFile(entryPath)
			if err != nil {
				log.WithError(err).WithField("path", entryPath).Warn("skipping invalid skill file")
				continue
			}
		default:
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
