package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/models"
	"github.com/soltixdb/dbstats/internal/queue"
	"github.com/soltixdb/dbstats/internal/report"
	"github.com/soltixdb/dbstats/internal/stats"
)

// Worker consumes AnalysisRequests and publishes a SummaryMessage for each
type Worker struct {
	svc     *StatsService
	q       queue.Queue
	logger  *logging.Logger
	subject string
	reply   string
	timeout time.Duration
}

// NewWorker creates a worker bound to the request and summary subjects of cfg
func NewWorker(svc *StatsService, q queue.Queue, logger *logging.Logger) *Worker {
	return &Worker{
		svc:     svc,
		q:       q,
		logger:  logger,
		subject: svc.cfg.Queue.RequestSubject(),
		reply:   svc.cfg.Queue.SummarySubject(),
		timeout: 10 * time.Minute,
	}
}

// Start subscribes to the request subject
func (w *Worker) Start() error {
	if err := w.q.Subscribe(w.subject, w.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.subject, err)
	}
	w.logger.Info("Analysis worker started", "requests", w.subject, "summaries", w.reply)
	return nil
}

// Stop unsubscribes
func (w *Worker) Stop() error {
	return w.q.Unsubscribe(w.subject)
}

// Handle processes one request. Analysis failures are reported in the
// published message and are not returned, so the request is not redelivered.
// Malformed payloads and publish failures are returned.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	var req models.AnalysisRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		w.logger.Warn("Dropping malformed analysis request", "subject", msg.Subject, "error", err)
		return fmt.Errorf("malformed analysis request: %w", err)
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(logging.WithJobID(ctx, req.ID), w.timeout)
	defer cancel()

	out := models.SummaryMessage{ID: req.ID, Source: req.Source, Dataset: req.Dataset}

	var (
		sum *stats.Summary
		err error
	)
	switch {
	case req.Dataset != "":
		sum, _, err = w.svc.summarizeDataset(ctx, req.Dataset)
	case req.Source != "":
		sum, err = w.svc.Summarize(ctx, req.Source, req.Separator)
	default:
		err = NewServiceError(CodeInvalidRequest, "source or dataset is required")
	}

	if err != nil {
		svcErr := wrapError(err)
		out.Error = &models.ErrorDetail{Code: svcErr.Code, Message: svcErr.Message, Details: svcErr.Details}
		w.logger.Warn("Analysis request failed", "job_id", req.ID, "code", svcErr.Code, "error", err)
	} else {
		out.Summary = sum
	}
	out.CompletedAt = time.Now().UTC()

	return report.Publish(ctx, w.q, w.reply, out)
}
