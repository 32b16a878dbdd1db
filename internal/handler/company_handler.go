package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/service"
	"github.com/noah-isme/placement-go-api/internal/utils"
)

// CompanyHandler exposes company administration endpoints.
type CompanyHandler struct {
	service service.CompanyService
	logger  zerolog.Logger
}

// NewCompanyHandler constructs a company handler.
func NewCompanyHandler(service service.CompanyService, logger zerolog.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		logger:  logger.With().Str("component", "company_handler").Logger(),
	}
}

// Register wires company routes.
func (h *CompanyHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/", adminOnly, h.create)
	router.Post("/:id/approve", adminOnly, h.approve)
	router.Post("/:id/reject", adminOnly, h.reject)
}

func (h *CompanyHandler) create(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var req dto.CompanyCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	company, err := h.service.Create(requestContext(c), scopeFromContext(c), req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "company created", company)
}

func (h *CompanyHandler) get(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	company, err := h.service.Get(requestContext(c), scopeFromContext(c), id)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "company", company)
}

func (h *CompanyHandler) list(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var req dto.CompanyListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.List(requestContext(c), scopeFromContext(c), req)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "companies", result)
}

func (h *CompanyHandler) approve(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	company, err := h.service.Approve(requestContext(c), scopeFromContext(c), id)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "company approved", company)
}

func (h *CompanyHandler) reject(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, logger, err)
	}

	company, err := h.service.Reject(requestContext(c), scopeFromContext(c), id)
	if err != nil {
		return handleError(c, logger, err)
	}

	return utils.SendSuccess(c, "company rejected", company)
}
