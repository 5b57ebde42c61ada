package models

import (
	"time"

	"github.com/soltixdb/dbstats/internal/report"
	"github.com/soltixdb/dbstats/internal/stats"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// DatasetResponse represents a registered dataset
type DatasetResponse struct {
	Name         string            `json:"name"`
	Source       string            `json:"source"`
	Separator    string            `json:"sep,omitempty"`
	Description  string            `json:"description,omitempty"`
	Labels       map[string]string `json:"labels,omitempty"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	SummarizedAt *string           `json:"summarized_at,omitempty"`
	LastSummary  *stats.Summary    `json:"last_summary,omitempty"`
}

// DatasetListResponse represents list datasets response
type DatasetListResponse struct {
	Datasets []DatasetResponse `json:"datasets"`
	Count    int               `json:"count"`
}

// SummaryResponse wraps a summary with the source it was computed from
type SummaryResponse struct {
	Source     string        `json:"source,omitempty"`
	Dataset    string        `json:"dataset,omitempty"`
	Summary    stats.Summary `json:"summary"`
	DurationMs int64         `json:"duration_ms"`
}

// DistributionEntry is one key/value pair of a mapping
type DistributionEntry struct {
	Key   interface{} `json:"key"`
	Value interface{} `json:"value"`
}

// DistributionResponse represents a named mapping in insertion order
type DistributionResponse struct {
	Name    string              `json:"name"`
	Source  string              `json:"source,omitempty"`
	Entries []DistributionEntry `json:"entries"`
	Count   int                 `json:"count"`
}

// NewDistributionResponse copies entries into a response
func NewDistributionResponse(name, source string, entries []report.Entry) DistributionResponse {
	resp := DistributionResponse{
		Name:    name,
		Source:  source,
		Entries: make([]DistributionEntry, len(entries)),
		Count:   len(entries),
	}
	for i, e := range entries {
		resp.Entries[i] = DistributionEntry{Key: e.Key, Value: e.Value}
	}
	return resp
}

// SummaryMessage is published for every processed AnalysisRequest
type SummaryMessage struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Dataset     string         `json:"dataset,omitempty"`
	Summary     *stats.Summary `json:"summary,omitempty"`
	Error       *ErrorDetail   `json:"error,omitempty"`
	CompletedAt time.Time      `json:"completed_at"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
