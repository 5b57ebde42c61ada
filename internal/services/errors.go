// Package services holds the analysis logic shared by the HTTP handlers, the
// gRPC server and the queue worker.
package services

import (
	"errors"

	"github.com/soltixdb/dbstats/internal/analytics"
	"github.com/soltixdb/dbstats/internal/analytics/distribution"
	"github.com/soltixdb/dbstats/internal/dataset"
	"github.com/soltixdb/dbstats/internal/metadata"
	"github.com/soltixdb/dbstats/internal/report"
)

// Error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeSourceUnavailable   = "SOURCE_UNAVAILABLE"
	CodeParseError          = "PARSE_ERROR"
	CodeEmptyDataset        = "EMPTY_DATASET"
	CodeSpanTooLarge        = "TIMESTAMP_SPAN_TOO_LARGE"
	CodeUnknownDistribution = "UNKNOWN_DISTRIBUTION"
	CodeDatasetNotFound     = "DATASET_NOT_FOUND"
	CodeDatasetExists       = "DATASET_EXISTS"
	CodeQueueDisabled       = "QUEUE_DISABLED"
	CodeInternal            = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	cause   error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// AsServiceError classifies err for transport layers. It returns nil for a
// nil error.
func AsServiceError(err error) *ServiceError {
	return wrapError(err)
}

// wrapError classifies err into a ServiceError, keeping it as the cause
func wrapError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	e := &ServiceError{Code: CodeInternal, Message: err.Error(), cause: err}

	var (
		parseErr *dataset.ParseError
		spanErr  *distribution.SpanError
	)
	switch {
	case errors.As(err, &parseErr):
		e.Code = CodeParseError
		e.Details = map[string]interface{}{"line": parseErr.Line, "field": parseErr.Field}
	case errors.Is(err, dataset.ErrSourceUnavailable):
		e.Code = CodeSourceUnavailable
	case errors.Is(err, dataset.ErrUnknownColumns), errors.Is(err, dataset.ErrSourceNotAllowed):
		e.Code = CodeInvalidRequest
	case errors.Is(err, analytics.ErrEmptyDataset), errors.Is(err, analytics.ErrInsufficientData):
		e.Code = CodeEmptyDataset
	case errors.As(err, &spanErr):
		e.Code = CodeSpanTooLarge
		e.Details = map[string]interface{}{"max_timestamp": int64(spanErr.Max), "limit": spanErr.Limit}
	case errors.Is(err, report.ErrUnknownDistribution):
		e.Code = CodeUnknownDistribution
		e.Details = map[string]interface{}{"supported": report.DistributionNames}
	case errors.Is(err, metadata.ErrNotFound):
		e.Code = CodeDatasetNotFound
	case errors.Is(err, metadata.ErrExists):
		e.Code = CodeDatasetExists
	case errors.Is(err, metadata.ErrInvalidName):
		e.Code = CodeInvalidRequest
	}
	return e
}
