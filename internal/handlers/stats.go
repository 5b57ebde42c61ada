package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/dbstats/internal/models"
	"github.com/soltixdb/dbstats/internal/report"
	"github.com/soltixdb/dbstats/internal/services"
)

// sendSummary writes sum as a SummaryResponse, or as the encoded summary
// alone when ?format= selects protobuf.
func (h *Handler) sendSummary(c *fiber.Ctx, resp models.SummaryResponse) error {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		return services.NewServiceError(services.CodeInvalidRequest, err.Error())
	}
	if format == report.FormatProtobuf {
		data, err := report.Encode(resp.Summary, format)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, format.ContentType())
		return c.Send(data)
	}
	return c.JSON(resp)
}

// SummarizeUpload summarizes the dataset sent as the request body
func (h *Handler) SummarizeUpload(c *fiber.Ctx) error {
	start := time.Now()
	ctx := c.UserContext()

	body := c.Body()
	if len(body) == 0 {
		return services.NewServiceError(services.CodeInvalidRequest, "request body is empty")
	}

	st, err := h.svc.Parse(ctx, body, c.Query("sep"))
	if err != nil {
		return err
	}
	sum := st.Summarize()

	h.logger.Info("Uploaded dataset summarized",
		"bytes", len(body),
		"transactions", sum.DatabaseSize,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return h.sendSummary(c, models.SummaryResponse{
		Summary:    sum,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// Summarize summarizes ?source=
func (h *Handler) Summarize(c *fiber.Ctx) error {
	start := time.Now()
	ctx := c.UserContext()

	source := c.Query("source")
	if source == "" {
		return services.NewServiceError(services.CodeInvalidRequest, "source query parameter is required")
	}

	sum, err := h.svc.Summarize(ctx, source, c.Query("sep"))
	if err != nil {
		return err
	}

	return h.sendSummary(c, models.SummaryResponse{
		Source:     source,
		Summary:    *sum,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// Distribution returns the mapping named by :name for ?source=
func (h *Handler) Distribution(c *fiber.Ctx) error {
	ctx := c.UserContext()

	source := c.Query("source")
	if source == "" {
		return services.NewServiceError(services.CodeInvalidRequest, "source query parameter is required")
	}
	name := c.Params("name")

	entries, err := h.svc.Distribution(ctx, source, c.Query("sep"), name)
	if err != nil {
		return err
	}

	return c.JSON(models.NewDistributionResponse(name, source, entries))
}

// Distributions lists the mapping names accepted by Distribution
func (h *Handler) Distributions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"distributions": report.DistributionNames,
		"count":         len(report.DistributionNames),
	})
}

// Enqueue queues an AnalysisRequest for the worker
func (h *Handler) Enqueue(c *fiber.Ctx) error {
	var req models.AnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return services.NewServiceError(services.CodeInvalidRequest, "Invalid request body: "+err.Error())
	}

	id, err := h.svc.Enqueue(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     id,
		"status": "queued",
	})
}
