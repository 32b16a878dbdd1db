package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/service"
	"github.com/noah-isme/placement-go-api/internal/utils"
)

// StudentHandler exposes student administration endpoints.
type StudentHandler struct {
	service       service.StudentService
	registrations service.RegistrationService
	logger        zerolog.Logger
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(service service.StudentService, registrations service.RegistrationService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service:       service,
		registrations: registrations,
		logger:        logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register wires student routes.
func (h *StudentHandler) Register(router fiber.Router, staffOnly fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/drives", h.drives)
	router.Post("/", staffOnly, h.create)
	router.Put("/:id", staffOnly, h.update)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var req dto.StudentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.service.Create(requestContext(c), scopeFromContext(c), req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	student, err := h.service.Get(requestContext(c), scopeFromContext(c), id)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "student", student)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var req dto.StudentListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if placed := strings.TrimSpace(c.Query("placed")); placed != "" {
		value := placed == "true" || placed == "1"
		req.Placed = &value
	}

	result, err := h.service.List(requestContext(c), scopeFromContext(c), req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "students", result)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	var req dto.StudentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.service.Update(requestContext(c), scopeFromContext(c), id, req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) drives(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	drives, err := h.registrations.StudentDrives(requestContext(c), scopeFromContext(c), id)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "registered drives", drives)
}
