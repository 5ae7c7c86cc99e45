package catalog

import (
	"context"
	"fmt"
)

// Multi aggregates several sources into one catalog, fetching them
// concurrently and merging the results.
type Multi struct {
	name    string
	sources []Source
}

// NewMulti creates an aggregate source
func NewMulti(name string, sources ...Source) *Multi {
	return &Multi{name: name, sources: sources}
}

// Name returns the aggregate name
func (m *Multi) Name() string {
	return m.name
}

// Type returns "multi"
func (m *Multi) Type() string {
	return "multi"
}

// Fetch retrieves items from all sources concurrently. It succeeds as
// long as at least one source does; it fails only when every source
// fails, since a partial catalog is still postable.
func (m *Multi) Fetch(ctx context.Context) ([]Item, error) {
	type result struct {
		items []Item
		err   error
	}

	results := make(chan result, len(m.sources))
	for _, src := range m.sources {
		go func(s Source) {
			items, err := s.Fetch(ctx)
			results <- result{items: items, err: err}
		}(src)
	}

	var all []Item
	var errs []error
	for range m.sources {
		r := <-results
		if r.err != nil {
			errs = append(errs, r.err)
		} else {
			all = append(all, r.items...)
		}
	}

	if len(all) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("all sources failed: %v", errs)
	}
	return all, nil
}

// HealthCheck verifies every underlying source
func (m *Multi) HealthCheck(ctx context.Context) error {
	for _, s := range m.sources {
		if err := s.HealthCheck(ctx); err != nil {
			return fmt.Errorf("source %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Ensure Multi implements Source
var _ Source = (*Multi)(nil)
