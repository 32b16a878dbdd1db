package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/service"
	"github.com/noah-isme/placement-go-api/internal/utils"
)

// ResultHandler exposes drive result endpoints.
type ResultHandler struct {
	service service.ResultService
	logger  zerolog.Logger
}

// NewResultHandler constructs a result handler.
func NewResultHandler(service service.ResultService, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		service: service,
		logger:  logger.With().Str("component", "result_handler").Logger(),
	}
}

// Register wires result routes onto the drive router.
func (h *ResultHandler) Register(router fiber.Router, staffOnly fiber.Handler) {
	router.Post("/:id/results", staffOnly, h.submit)
	router.Put("/:id/results", staffOnly, h.updateOne)
	router.Get("/:id/results", h.list)
}

func (h *ResultHandler) submit(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	driveID, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	var req dto.SubmitResultsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	summary, err := h.service.Submit(requestContext(c), scopeFromContext(c), driveID, req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "results published", summary)
}

func (h *ResultHandler) updateOne(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	driveID, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	var req dto.ResultUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.UpdateOne(requestContext(c), scopeFromContext(c), driveID, req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "result updated", result)
}

func (h *ResultHandler) list(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	driveID, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	results, err := h.service.GetForDrive(requestContext(c), scopeFromContext(c), driveID)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "drive results", results)
}
