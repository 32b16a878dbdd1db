package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/placement-go-api/internal/service"
	"github.com/noah-isme/placement-go-api/internal/utils"
)

// DashboardHandler exposes the placement statistics endpoint.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register wires the dashboard route.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/placement", h.summary)
}

func (h *DashboardHandler) summary(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	summary, err := h.service.GetSummary(requestContext(c), scopeFromContext(c))
	if err != nil {
		return handleError(c, logger, err)
	}

	c.Set("X-Cache", cacheHeader(summary.CacheHit))
	return utils.SendSuccess(c, "placement statistics", summary)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
