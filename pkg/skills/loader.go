package skills

import (
	"context"
	"sync"
)

// Loader lists skills from a backing source. Implementations cache their
// listing: List returns the same collection on every call until Reload.
// Skills that fail validation are skipped with a warning, never aborting
// the whole listing. Loaders are safe for concurrent use.
type Loader interface {
	// List returns the cached skill collection, building it on first call.
	List(ctx context.Context) ([]*Skill, error)
	// Find returns the named skill, or nil with no error when absent.
	Find(ctx context.Context, name string) (*Skill, error)
	// Get returns the named skill, or a NotFoundError when absent.
	Get(ctx context.Context, name string) (*Skill, error)
	// Exists reports whether the named skill is present.
	Exists(ctx context.Context, name string) (bool, error)
	// Reload drops the cached collection so the next List rebuilds it.
	Reload()
}

// cachingLoader implements the shared caching contract. Concrete loaders
// embed it and supply a fill function that builds the collection.
type cachingLoader struct {
	mu     sync.Mutex
	cached []*Skill
	fill   func(ctx context.Context) ([]*Skill, error)
}

func (c *cachingLoader) List(ctx context.Context) ([]*Skill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached, nil
	}
	skills, err := c.fill(ctx)
	if err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []*Skill{}
	}
	c.cached = skills
	return c.cached, nil
}

func (c *cachingLoader) Find(ctx context.Context, name string) (*Skill, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, nil
}

func (c *cachingLoader) Get(ctx context.Context, name string) (*Skill, error) {
	s, err := c.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &NotFoundError{Name: name}
	}
	return s, nil
}

func (c *cachingLoader) Exists(ctx context.Context, name string) (bool, error) {
	s, err := c.Find(ctx, name)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

func (c *cachingLoader) Reload() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
