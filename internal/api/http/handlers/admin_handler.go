package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/api/dto"
	"github.com/moodshelf/recs-gateway/internal/auth"
	"github.com/moodshelf/recs-gateway/internal/config"
	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/gatekeeper"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// AdminHandler serves the ticket issuance API behind the admin token.
type AdminHandler struct {
	keeper *gatekeeper.Gatekeeper
	tokens *auth.TokenManager
	admin  config.AdminConfig
	logger *zap.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(keeper *gatekeeper.Gatekeeper, tokens *auth.TokenManager, admin config.AdminConfig, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{keeper: keeper, tokens: tokens, admin: admin, logger: logger}
}

// Login exchanges the shared admin secret for a session token.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var body dto.LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	if err := auth.VerifySecret(body.Secret, h.admin); err != nil {
		h.logger.Warn("admin login rejected")
		return apperrors.NewUnauthorized("invalid admin secret")
	}

	token, expiresAt, err := h.tokens.GenerateToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(dto.LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// IssueTicket creates a new access ticket.
func (h *AdminHandler) IssueTicket(c *fiber.Ctx) error {
	var body dto.IssueTicketRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	limits := make(map[domain.Category]int, len(body.Limits))
	for raw, limit := range body.Limits {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			return apperrors.NewValidationError("unknown category", map[string]any{"category": raw})
		}
		limits[category] = limit
	}

	key, err := h.keeper.Issue(c.UserContext(), limits, body.Days)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(dto.IssueTicketResponse{
		Key:     key,
		Message: fmt.Sprintf("Ticket %s issued. Share this key with the customer.", key),
	})
}

// UpdateStatus blocks or reactivates a ticket by key.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return apperrors.NewValidationError("ticket key required", nil)
	}

	var body dto.UpdateStatusRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	status := domain.TicketStatus(body.Status)
	if err := h.keeper.SetStatus(c.UserContext(), key, status); err != nil {
		return err
	}
	return c.JSON(dto.StatusResponse{Key: key, Status: string(status)})
}
