package skills

import (
	"context"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// FilteredLoader restricts an inner loader to an allow-list of names.
// Entries may be exact names or glob patterns ("data-*"). An empty
// allow-list denies everything.
type FilteredLoader struct {
	cachingLoader
	inner    Loader
	allow    []string
	patterns []glob.Glob
}

// NewFilteredLoader compiles the allow-list and wraps inner. An entry that
// is not a valid glob pattern is an error.
func NewFilteredLoader(inner Loader, allow []string) (*FilteredLoader, error) {
	patterns := make([]glob.Glob, 0, len(allow))
	for _, entry := range allow {
		g, err := glob.Compile(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid allow-list pattern %q", entry)
		}
		patterns = append(patterns, g)
	}

	l := &FilteredLoader{inner: inner, allow: allow, patterns: patterns}
	l.fill = l.scan
	return l, nil
}

func (l *FilteredLoader) scan(ctx context.Context) ([]*Skill, error) {
	list, err := l.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	found := []*Skill{}
	for _, s := range list {
		if l.allowed(s.Name) {
			found = append(found, s)
		}
	}
	return found, nil
}

func (l *FilteredLoader) allowed(name string) bool {
	for _, g := range l.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Reload reloads the inner loader, then clears the filtered cache.
func (l *FilteredLoader) Reload() {
	l.inner.Reload()
	l.cachingLoader.Reload()
}
