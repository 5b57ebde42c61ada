package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/models"
	"github.com/soltixdb/dbstats/internal/report"
	"github.com/soltixdb/dbstats/internal/services"
)

// StatsServiceHandler implements StatsServiceServer on top of StatsService
type StatsServiceHandler struct {
	svc    *services.StatsService
	logger *logging.Logger
}

// NewStatsServiceHandler creates a new handler
func NewStatsServiceHandler(svc *services.StatsService, logger *logging.Logger) *StatsServiceHandler {
	return &StatsServiceHandler{svc: svc, logger: logger}
}

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// Summarize computes the summary of req.source
func (h *StatsServiceHandler) Summarize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source := stringField(req, "source")
	sep := stringField(req, "sep")
	h.logger.Debug("Summarize request received", "source", source)

	if source == "" {
		return nil, status.Error(codes.InvalidArgument, "source is required")
	}

	start := time.Now()
	sum, err := h.svc.Summarize(ctx, source, sep)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := report.ToStruct(*sum)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode summary: %v", err)
	}
	h.logger.Debug("Summarize completed", "source", source, "latency_ms", time.Since(start).Milliseconds())
	return out, nil
}

// Distribution returns the mapping named by req.name
func (h *StatsServiceHandler) Distribution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source := stringField(req, "source")
	sep := stringField(req, "sep")
	name := stringField(req, "name")
	h.logger.Debug("Distribution request received", "source", source, "name", name)

	if source == "" || name == "" {
		return nil, status.Error(codes.InvalidArgument, "source and name are required")
	}

	entries, err := h.svc.Distribution(ctx, source, sep, name)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := report.StructOf(models.NewDistributionResponse(name, source, entries))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode distribution: %v", err)
	}
	return out, nil
}

// toStatus maps service error codes to gRPC codes
func toStatus(err error) error {
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	svcErr := services.AsServiceError(err)
	code := codes.Internal
	switch svcErr.Code {
	case services.CodeInvalidRequest, services.CodeParseError, services.CodeUnknownDistribution:
		code = codes.InvalidArgument
	case services.CodeSourceUnavailable, services.CodeQueueDisabled:
		code = codes.Unavailable
	case services.CodeEmptyDataset, services.CodeSpanTooLarge:
		code = codes.FailedPrecondition
	case services.CodeDatasetNotFound:
		code = codes.NotFound
	case services.CodeDatasetExists:
		code = codes.AlreadyExists
	}
	return status.Error(code, svcErr.Message)
}
