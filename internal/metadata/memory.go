package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRegistry keeps datasets in process
type MemoryRegistry struct {
	mu       sync.RWMutex
	datasets map[string][]byte
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{datasets: make(map[string][]byte)}
}

// entries are stored encoded so callers never share state with the registry
func decode(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}
	return &ds, nil
}

func (r *MemoryRegistry) Register(_ context.Context, ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[ds.Name]; ok {
		return fmt.Errorf("%w: %s", ErrExists, ds.Name)
	}
	now := time.Now().UTC()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now

	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	r.datasets[ds.Name] = data
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, name string) (*Dataset, error) {
	r.mu.RLock()
	data, ok := r.datasets[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return decode(data)
}

// List returns datasets ordered by name
func (r *MemoryRegistry) List(_ context.Context) ([]*Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Dataset, 0, len(r.datasets))
	for _, data := range r.datasets {
		ds, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRegistry) Update(_ context.Context, ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[ds.Name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, ds.Name)
	}
	ds.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	r.datasets[ds.Name] = data
	return nil
}

func (r *MemoryRegistry) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.datasets, name)
	return nil
}

func (r *MemoryRegistry) Close() error {
	return nil
}
