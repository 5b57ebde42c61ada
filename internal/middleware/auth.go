package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/models"
)

// MinAPIKeyLength is the minimum required length for API keys
const MinAPIKeyLength = 32

// CodeUnauthorized is returned for a missing or unknown key
const CodeUnauthorized = "UNAUTHORIZED"

// ValidateAPIKey reports whether key is long enough and not blank
func ValidateAPIKey(key string) bool {
	return len(key) >= MinAPIKeyLength && strings.TrimSpace(key) != ""
}

// extractAPIKey reads X-API-Key, then Authorization with or without the
// Bearer scheme.
func extractAPIKey(c *fiber.Ctx) string {
	if key := c.Get("X-API-Key"); key != "" {
		return key
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

// keySet holds the accepted keys and compares in constant time
type keySet [][]byte

func (k keySet) contains(key string) bool {
	candidate := []byte(key)
	found := 0
	for _, valid := range k {
		found |= subtle.ConstantTimeCompare(valid, candidate)
	}
	return found == 1
}

// APIKeyAuth rejects requests without one of apiKeys. Keys shorter than
// MinAPIKeyLength are ignored. When enabled is false every request passes.
func APIKeyAuth(logger *logging.Logger, apiKeys []string, enabled bool) fiber.Handler {
	if !enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	keys := make(keySet, 0, len(apiKeys))
	for _, key := range apiKeys {
		if key == "" {
			continue
		}
		if !ValidateAPIKey(key) {
			logger.Warn("Ignoring API key below minimum length",
				"key_prefix", maskAPIKey(key),
				"min_required", MinAPIKeyLength,
			)
			continue
		}
		keys = append(keys, []byte(key))
	}
	if len(keys) == 0 {
		logger.Error("Authentication enabled without any valid API key", "configured", len(apiKeys))
	}

	unauthorized := func(c *fiber.Ctx, message string) error {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    CodeUnauthorized,
				Message: message,
				Path:    c.Path(),
			},
		})
	}

	return func(c *fiber.Ctx) error {
		key := extractAPIKey(c)
		if key == "" {
			logger.Warn("API key missing", "path", c.Path(), "ip", c.IP())
			return unauthorized(c, "API key is required in X-API-Key or Authorization header")
		}
		if !keys.contains(key) {
			logger.Warn("Invalid API key", "path", c.Path(), "ip", c.IP(), "key_prefix", maskAPIKey(key))
			return unauthorized(c, "Invalid API key")
		}
		return c.Next()
	}
}

// maskAPIKey keeps the first four characters
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
