package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/dbstats/internal/config"
	"github.com/soltixdb/dbstats/internal/dataset"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/metadata"
	"github.com/soltixdb/dbstats/internal/models"
	"github.com/soltixdb/dbstats/internal/queue"
	"github.com/soltixdb/dbstats/internal/report"
	"github.com/soltixdb/dbstats/internal/stats"
)

// loadedTTL bounds how long a parsed source is reused between requests
const loadedTTL = 2 * time.Minute

// StatsService loads datasets and answers statistics queries. Parsed
// sources are kept briefly so a summary followed by distribution queries
// reads the source once.
type StatsService struct {
	logger    *logging.Logger
	registry  metadata.Registry
	publisher queue.Publisher
	cfg       *config.Config
	loaded    *metadata.Cache[*stats.Stats]
}

// NewStatsService creates a StatsService. publisher may be nil.
func NewStatsService(
	logger *logging.Logger,
	registry metadata.Registry,
	publisher queue.Publisher,
	cfg *config.Config,
) *StatsService {
	return &StatsService{
		logger:    logger,
		registry:  registry,
		publisher: publisher,
		cfg:       cfg,
		loaded:    metadata.NewCache[*stats.Stats](loadedTTL),
	}
}

// Close releases the load cache
func (s *StatsService) Close() {
	s.loaded.Stop()
}

func (s *StatsService) separator(sep string) string {
	if sep != "" {
		return sep
	}
	return s.cfg.Dataset.Separator
}

// Load reads source (path or URL) under the dataset source policy. A Stats
// value is not safe for concurrent use, so callers must not share the
// returned value across goroutines. A deadline on ctx bounds a URL fetch.
func (s *StatsService) Load(ctx context.Context, source, sep string) (*stats.Stats, error) {
	if source == "" {
		return nil, NewServiceError(CodeInvalidRequest, "source is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved, err := s.policy().Resolve(source)
	if err != nil {
		return nil, wrapError(err)
	}

	sep = s.separator(sep)
	key := loadKey(resolved, sep)
	if cached, ok := s.loaded.Get(key); ok {
		return s.newStats(cached.Database()), nil
	}

	st, err := stats.FromSource(resolved, dataset.LoadOptions{
		Separator:    sep,
		FetchTimeout: fetchTimeout(ctx, s.cfg.Dataset.FetchTimeout),
	}, logging.FromContext(ctx))
	if err != nil {
		s.logger.Warn("Failed to load dataset", "source", source, "error", err)
		return nil, wrapError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st.WithMaxTimestampSpan(s.cfg.Dataset.MaxTimestampSpan)
	s.loaded.Set(key, st)
	return st, nil
}

func (s *StatsService) policy() dataset.SourcePolicy {
	return dataset.SourcePolicy{
		Root:      s.cfg.Dataset.Root,
		AllowURLs: s.cfg.Dataset.AllowURLs,
	}
}

func (s *StatsService) newStats(db *dataset.Database) *stats.Stats {
	return stats.New(db).WithMaxTimestampSpan(s.cfg.Dataset.MaxTimestampSpan)
}

// loadKey identifies a parsed source. Local files add their modification
// time and size so a rewritten file is read again.
func loadKey(source, sep string) string {
	key := sep + "\x00" + source
	if dataset.IsURL(source) {
		return key
	}
	if info, err := os.Stat(source); err == nil {
		key += fmt.Sprintf("\x00%d\x00%d", info.ModTime().UnixNano(), info.Size())
	}
	return key
}

// fetchTimeout narrows configured to the time left before the ctx deadline
func fetchTimeout(ctx context.Context, configured time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return configured
	}
	left := time.Until(deadline)
	if left <= 0 {
		left = time.Millisecond
	}
	if configured > 0 && configured < left {
		return configured
	}
	return left
}

// Parse builds Stats from an uploaded body
func (s *StatsService) Parse(ctx context.Context, body []byte, sep string) (*stats.Stats, error) {
	db, err := dataset.NewParser(s.separator(sep), logging.FromContext(ctx)).ParseLines(bytes.NewReader(body))
	if err != nil {
		return nil, wrapError(err)
	}
	return s.newStats(db), nil
}

// Summarize loads source and computes its summary
func (s *StatsService) Summarize(ctx context.Context, source, sep string) (*stats.Summary, error) {
	start := time.Now()
	st, err := s.Load(ctx, source, sep)
	if err != nil {
		return nil, err
	}

	sum := st.Summarize()
	s.logger.Info("Dataset summarized",
		"source", source,
		"transactions", sum.DatabaseSize,
		"items", sum.ItemCount,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return &sum, nil
}

// Distribution loads source and returns the named mapping
func (s *StatsService) Distribution(ctx context.Context, source, sep, name string) ([]report.Entry, error) {
	st, err := s.Load(ctx, source, sep)
	if err != nil {
		return nil, err
	}
	entries, err := report.Distribution(st, name)
	if err != nil {
		return nil, wrapError(err)
	}
	return entries, nil
}

// PublishSummary sends msg to the summary subject when a publisher is set
func (s *StatsService) PublishSummary(ctx context.Context, msg models.SummaryMessage) error {
	if s.publisher == nil {
		return nil
	}
	return report.Publish(ctx, s.publisher, s.cfg.Queue.SummarySubject(), msg)
}

// Enqueue publishes req on the request subject for the worker and returns
// its job id
func (s *StatsService) Enqueue(ctx context.Context, req *models.AnalysisRequest) (string, error) {
	if s.publisher == nil {
		return "", NewServiceError(CodeQueueDisabled, "analysis queue is not configured")
	}
	if req.Source == "" && req.Dataset == "" {
		return "", NewServiceError(CodeInvalidRequest, "source or dataset is required")
	}
	if req.Source != "" {
		if _, err := s.policy().Resolve(req.Source); err != nil {
			return "", wrapError(err)
		}
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if err := report.Publish(ctx, s.publisher, s.cfg.Queue.RequestSubject(), req); err != nil {
		return "", wrapError(err)
	}
	s.logger.Info("Analysis request queued", "job_id", req.ID, "source", req.Source, "dataset", req.Dataset)
	return req.ID, nil
}

// healthTimeout bounds the registry check of Health
const healthTimeout = 2 * time.Second

// Health checks the dependencies. It returns one status per component and
// whether all of them are usable.
func (s *StatsService) Health(ctx context.Context) (map[string]string, bool) {
	components := map[string]string{"queue": "disabled"}
	if s.publisher != nil {
		components["queue"] = "ok"
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if _, err := s.registry.List(ctx); err != nil {
		components["registry"] = err.Error()
		return components, false
	}
	components["registry"] = "ok"
	return components, true
}
