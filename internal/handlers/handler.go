package handlers

import (
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger *logging.Logger
	svc    *services.StatsService
}

// New creates a new handler instance
func New(logger *logging.Logger, svc *services.StatsService) *Handler {
	return &Handler{
		logger: logger,
		svc:    svc,
	}
}
