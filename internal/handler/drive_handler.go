package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/service"
	"github.com/noah-isme/placement-go-api/internal/utils"
)

// DriveHandler exposes placement drive endpoints.
type DriveHandler struct {
	service service.DriveService
	logger  zerolog.Logger
}

// NewDriveHandler constructs a drive handler.
func NewDriveHandler(service service.DriveService, logger zerolog.Logger) *DriveHandler {
	return &DriveHandler{
		service: service,
		logger:  logger.With().Str("component", "drive_handler").Logger(),
	}
}

// Register wires drive routes. Mutations are additionally guarded by role
// middleware in the router.
func (h *DriveHandler) Register(router fiber.Router, staffOnly fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/eligible-students", staffOnly, h.eligibleStudents)
	router.Post("/", staffOnly, h.create)
	router.Put("/:id", staffOnly, h.update)
	router.Post("/:id/transition", staffOnly, h.transition)
	router.Delete("/:id", staffOnly, h.delete)
}

func (h *DriveHandler) create(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var req dto.DriveCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	drive, err := h.service.Create(requestContext(c), scopeFromContext(c), req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "drive created", drive)
}

func (h *DriveHandler) get(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	drive, err := h.service.Get(requestContext(c), scopeFromContext(c), id)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "drive", drive)
}

func (h *DriveHandler) list(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var req dto.DriveListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.List(requestContext(c), scopeFromContext(c), req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "drives", result)
}

func (h *DriveHandler) update(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	var req dto.DriveUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	drive, err := h.service.Update(requestContext(c), scopeFromContext(c), id, req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "drive updated", drive)
}

func (h *DriveHandler) transition(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	var req dto.DriveTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	drive, err := h.service.Transition(requestContext(c), scopeFromContext(c), id, req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "drive status updated", drive)
}

func (h *DriveHandler) delete(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	if err := h.service.Delete(requestContext(c), scopeFromContext(c), id); err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "drive deleted", nil)
}

func (h *DriveHandler) eligibleStudents(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	var req dto.EligibleStudentsRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.EligibleStudents(requestContext(c), scopeFromContext(c), id, req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "eligible students", result)
}
