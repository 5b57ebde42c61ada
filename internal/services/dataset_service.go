package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/dbstats/internal/metadata"
	"github.com/soltixdb/dbstats/internal/models"
	"github.com/soltixdb/dbstats/internal/stats"
)

// RegisterDataset stores a named source. The source must pass the source
// policy at registration time.
func (s *StatsService) RegisterDataset(ctx context.Context, req *models.RegisterDatasetRequest) (*metadata.Dataset, error) {
	if req.Source != "" {
		if _, err := s.policy().Resolve(req.Source); err != nil {
			return nil, wrapError(err)
		}
	}
	ds := &metadata.Dataset{
		Name:        req.Name,
		Source:      req.Source,
		Separator:   req.Separator,
		Description: req.Description,
		Labels:      req.Labels,
	}
	if err := s.registry.Register(ctx, ds); err != nil {
		return nil, wrapError(err)
	}
	s.logger.Info("Dataset registered", "dataset", ds.Name, "source", ds.Source)
	return ds, nil
}

// GetDataset returns a registered dataset
func (s *StatsService) GetDataset(ctx context.Context, name string) (*metadata.Dataset, error) {
	ds, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, wrapError(err)
	}
	return ds, nil
}

// ListDatasets returns every registered dataset
func (s *StatsService) ListDatasets(ctx context.Context) ([]*metadata.Dataset, error) {
	list, err := s.registry.List(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return list, nil
}

// DeleteDataset removes a registered dataset
func (s *StatsService) DeleteDataset(ctx context.Context, name string) error {
	if err := s.registry.Delete(ctx, name); err != nil {
		return wrapError(err)
	}
	s.logger.Info("Dataset deleted", "dataset", name)
	return nil
}

// SummarizeDataset analyses a registered dataset, records the summary in the
// registry and publishes it. The returned message is the published one.
func (s *StatsService) SummarizeDataset(ctx context.Context, name string) (*models.SummaryMessage, error) {
	sum, ds, err := s.summarizeDataset(ctx, name)
	if err != nil {
		return nil, err
	}

	msg := &models.SummaryMessage{
		ID:          uuid.New().String(),
		Source:      ds.Source,
		Dataset:     ds.Name,
		Summary:     sum,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.PublishSummary(ctx, *msg); err != nil {
		s.logger.Warn("Failed to publish summary", "dataset", name, "error", err)
	}
	return msg, nil
}

// summarizeDataset analyses and records without publishing
func (s *StatsService) summarizeDataset(ctx context.Context, name string) (*stats.Summary, *metadata.Dataset, error) {
	ds, err := s.GetDataset(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	sum, err := s.Summarize(ctx, ds.Source, ds.Separator)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	ds.LastSummary = sum
	ds.SummarizedAt = &now
	if err := s.registry.Update(ctx, ds); err != nil {
		// the summary is still valid; the dataset may have been deleted meanwhile
		s.logger.Warn("Failed to record summary", "dataset", name, "error", err)
	}
	return sum, ds, nil
}
