package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/dbstats/internal/metadata"
	"github.com/soltixdb/dbstats/internal/models"
	"github.com/soltixdb/dbstats/internal/services"
)

func toDatasetResponse(ds *metadata.Dataset) models.DatasetResponse {
	resp := models.DatasetResponse{
		Name:        ds.Name,
		Source:      ds.Source,
		Separator:   ds.Separator,
		Description: ds.Description,
		Labels:      ds.Labels,
		CreatedAt:   ds.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   ds.UpdatedAt.Format(time.RFC3339),
		LastSummary: ds.LastSummary,
	}
	if ds.SummarizedAt != nil {
		at := ds.SummarizedAt.Format(time.RFC3339)
		resp.SummarizedAt = &at
	}
	return resp
}

// RegisterDataset registers a named source
func (h *Handler) RegisterDataset(c *fiber.Ctx) error {
	var req models.RegisterDatasetRequest
	if err := c.BodyParser(&req); err != nil {
		return services.NewServiceError(services.CodeInvalidRequest, "Invalid request body: "+err.Error())
	}
	if req.Source == "" {
		return services.NewServiceError(services.CodeInvalidRequest, "source is required")
	}

	ds, err := h.svc.RegisterDataset(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toDatasetResponse(ds))
}

// ListDatasets lists all registered datasets
func (h *Handler) ListDatasets(c *fiber.Ctx) error {
	list, err := h.svc.ListDatasets(c.UserContext())
	if err != nil {
		return err
	}

	resp := models.DatasetListResponse{
		Datasets: make([]models.DatasetResponse, len(list)),
		Count:    len(list),
	}
	for i, ds := range list {
		resp.Datasets[i] = toDatasetResponse(ds)
	}
	return c.JSON(resp)
}

// GetDataset returns one dataset
func (h *Handler) GetDataset(c *fiber.Ctx) error {
	ds, err := h.svc.GetDataset(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(toDatasetResponse(ds))
}

// DeleteDataset removes a dataset
func (h *Handler) DeleteDataset(c *fiber.Ctx) error {
	if err := h.svc.DeleteDataset(c.UserContext(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SummarizeDataset analyses a registered dataset and records the result
func (h *Handler) SummarizeDataset(c *fiber.Ctx) error {
	start := time.Now()
	name := c.Params("name")
	ctx := c.UserContext()

	msg, err := h.svc.SummarizeDataset(ctx, name)
	if err != nil {
		return err
	}

	return h.sendSummary(c, models.SummaryResponse{
		Source:     msg.Source,
		Dataset:    msg.Dataset,
		Summary:    *msg.Summary,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// DatasetDistribution returns a mapping of a registered dataset
func (h *Handler) DatasetDistribution(c *fiber.Ctx) error {
	ctx := c.UserContext()

	ds, err := h.svc.GetDataset(ctx, c.Params("name"))
	if err != nil {
		return err
	}

	entries, err := h.svc.Distribution(ctx, ds.Source, ds.Separator, c.Params("dist"))
	if err != nil {
		return err
	}
	return c.JSON(models.NewDistributionResponse(c.Params("dist"), ds.Source, entries))
}
