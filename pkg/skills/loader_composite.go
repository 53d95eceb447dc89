package skills

import (
	"context"
)

// CompositeLoader concatenates the listings of its children in order. The
// first loader to provide a name wins; later duplicates are dropped. A
// failing child fails the whole listing.
type CompositeLoader struct {
	cachingLoader
	loaders []Loader
}

// NewCompositeLoader creates a loader over children in precedence order.
func NewCompositeLoader(loaders ...Loader) *CompositeLoader {
	l := &CompositeLoader{loaders: loaders}
	l.fill = l.scan
	return l
}

// Loaders returns the child loaders in precedence order.
func (l *CompositeLoader) Loaders() []Loader {
	return l.loaders
}

func (l *CompositeLoader) scan(ctx context.Context) ([]*Skill, error) {
	found := []*Skill{}
	seen := make(map[string]bool)

	for _, child := range l.loaders {
		list, err := child.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			found = append(found, s)
		}
	}

	return found, nil
}

// Reload reloads every child, then clears the composite's own cache.
func (l *CompositeLoader) Reload() {
	for _, child := range l.loaders {
		child.Reload()
	}
	l.cachingLoader.Reload()
}
