package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/models"
	"github.com/soltixdb/dbstats/internal/services"
)

// StatusCode maps a service error code to an HTTP status
func StatusCode(code string) int {
	switch code {
	case services.CodeInvalidRequest, services.CodeParseError, services.CodeUnknownDistribution:
		return fiber.StatusBadRequest
	case services.CodeDatasetNotFound:
		return fiber.StatusNotFound
	case services.CodeDatasetExists:
		return fiber.StatusConflict
	case services.CodeEmptyDataset, services.CodeSpanTooLarge:
		return fiber.StatusUnprocessableEntity
	case services.CodeSourceUnavailable:
		return fiber.StatusBadGateway
	case services.CodeQueueDisabled:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fiberCode turns "Not Found" into NOT_FOUND
func fiberCode(status int) string {
	msg := utils.StatusMessage(status)
	if msg == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "'", "", "-", "_").Replace(msg))
}

// ErrorHandler renders handler errors as ErrorResponse. Service errors keep
// their code and details, fiber errors keep their status.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		detail := models.ErrorDetail{
			Code:    services.CodeInternal,
			Message: "Internal Server Error",
			Path:    c.Path(),
		}
		status := fiber.StatusInternalServerError

		var (
			fiberErr *fiber.Error
			svcErr   *services.ServiceError
		)
		switch {
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			detail.Code = fiberCode(status)
			detail.Message = fiberErr.Message
		case errors.As(err, &svcErr):
			status = StatusCode(svcErr.Code)
			detail.Code = svcErr.Code
			detail.Message = svcErr.Message
			detail.Details = svcErr.Details
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("Request error",
				"path", c.Path(),
				"method", c.Method(),
				"status", status,
				"error", err,
			)
		} else {
			logger.Debug("Request rejected",
				"path", c.Path(),
				"method", c.Method(),
				"status", status,
				"error", err,
			)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}
