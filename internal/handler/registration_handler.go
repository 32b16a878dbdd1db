package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/service"
	"github.com/noah-isme/placement-go-api/internal/utils"
)

// RegistrationHandler exposes drive registration endpoints.
type RegistrationHandler struct {
	service service.RegistrationService
	logger  zerolog.Logger
}

// NewRegistrationHandler constructs a registration handler.
func NewRegistrationHandler(service service.RegistrationService, logger zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		logger:  logger.With().Str("component", "registration_handler").Logger(),
	}
}

// Register wires registration routes onto the drive router.
func (h *RegistrationHandler) Register(router fiber.Router, rateLimit fiber.Handler) {
	router.Post("/:id/register", rateLimit, h.register)
	router.Delete("/:id/register/:studentId", h.unregister)
	router.Get("/:id/registrations", h.roster)
}

func (h *RegistrationHandler) register(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	driveID, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	var req dto.RegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	registration, err := h.service.Register(requestContext(c), scopeFromContext(c), driveID, req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "registered", registration)
}

func (h *RegistrationHandler) unregister(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	driveID, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}
	studentID, err := parseIDParam(c, "studentId")
	if err != nil {
		return handleError(c, logger, err)
	}

	if err := h.service.Unregister(requestContext(c), scopeFromContext(c), driveID, studentID); err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "registration withdrawn", nil)
}

func (h *RegistrationHandler) roster(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	driveID, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	students, err := h.service.Roster(requestContext(c), scopeFromContext(c), driveID)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "registered students", students)
}
