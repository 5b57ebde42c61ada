package models

// RegisterDatasetRequest represents a register dataset request
type RegisterDatasetRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=128"`
	Source      string            `json:"source" validate:"required"`
	Separator   string            `json:"sep,omitempty"`
	Description string            `json:"description,omitempty" validate:"max=256"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// AnalysisRequest asks a worker to summarize a source. Either Source or
// Dataset (a registered name) must be set.
type AnalysisRequest struct {
	ID        string `json:"id"`
	Source    string `json:"source,omitempty"`
	Dataset   string `json:"dataset,omitempty"`
	Separator string `json:"sep,omitempty"`
}
