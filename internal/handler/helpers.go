package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/middleware"
	"github.com/noah-isme/placement-go-api/internal/service"
	"github.com/noah-isme/placement-go-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || parsed == 0 {
		return 0, apperrors.Validation("invalid " + key)
	}
	return uint(parsed), nil
}

func localUint(c *fiber.Ctx, key string) uint {
	if v := c.Locals(key); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok && id >= 0 {
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func userIDStringFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		switch id := v.(type) {
		case uint:
			return strconv.FormatUint(uint64(id), 10)
		case int:
			if id < 0 {
				return ""
			}
			return strconv.Itoa(id)
		case string:
			return strings.TrimSpace(id)
		}
	}
	return ""
}

// scopeFromContext builds the tenant scope from the JWT claims the middleware
// stashed in Locals.
func scopeFromContext(c *fiber.Ctx) service.AccountScope {
	return service.AccountScope{
		AccountID: localUint(c, "account_id"),
		ActorID:   localUint(c, "user_id"),
		Role:      userRoleFromContext(c),
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// handleError maps service errors onto the response envelope. Typed errors
// keep their status and code; anything else becomes an opaque 500.
func handleError(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	if appErr, ok := apperrors.As(err); ok {
		var details interface{}
		if len(appErr.Reasons) > 0 {
			details = appErr.Reasons
		}
		if appErr.Status >= fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("code", appErr.Code).Msg("request failed")
		}
		return utils.SendErrorCode(c, appErr.Status, appErr.Code, appErr.Message, details)
	}

	logger.Error().Err(err).Msg("unhandled service error")
	return utils.SendErrorCode(c, fiber.StatusInternalServerError, apperrors.CodeInternal, "internal server error", nil)
}
