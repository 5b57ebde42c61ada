// Package metadata keeps the registry of named datasets: where each one is
// read from, how it is split, and the last summary computed for it.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/soltixdb/dbstats/internal/config"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/stats"
)

var (
	ErrNotFound    = errors.New("dataset not found")
	ErrExists      = errors.New("dataset already exists")
	ErrInvalidName = errors.New("invalid dataset name")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// Dataset is a registered source
type Dataset struct {
	Name        string            `json:"name"`
	Source      string            `json:"source"`
	Separator   string            `json:"separator,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Set after the first successful analysis
	LastSummary  *stats.Summary `json:"last_summary,omitempty"`
	SummarizedAt *time.Time     `json:"summarized_at,omitempty"`
}

// Validate checks the name and source
func (d *Dataset) Validate() error {
	if !namePattern.MatchString(d.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, d.Name)
	}
	if d.Source == "" {
		return fmt.Errorf("dataset %s: source is required", d.Name)
	}
	return nil
}

// Registry stores datasets by name
type Registry interface {
	Register(ctx context.Context, ds *Dataset) error
	Get(ctx context.Context, name string) (*Dataset, error)
	List(ctx context.Context) ([]*Dataset, error)
	Update(ctx context.Context, ds *Dataset) error
	Delete(ctx context.Context, name string) error
	Close() error
}

// New creates the registry backend named by cfg.Type
func New(cfg config.RegistryConfig, logger *logging.Logger) (Registry, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryRegistry(), nil
	case "etcd":
		return NewEtcdRegistry(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported registry type: %s (supported: memory, etcd)", cfg.Type)
	}
}
