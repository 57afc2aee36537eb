package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/api/dto"
	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/gatekeeper"
	"github.com/moodshelf/recs-gateway/internal/repository"
	"github.com/moodshelf/recs-gateway/internal/service"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// RecommendHandler serves the category recommendation endpoints and the
// read-only quota status endpoint.
type RecommendHandler struct {
	recommender *service.RecommendService
	keeper      *gatekeeper.Gatekeeper
	logger      *zap.Logger
}

// NewRecommendHandler constructs the handler.
func NewRecommendHandler(recommender *service.RecommendService, keeper *gatekeeper.Gatekeeper, logger *zap.Logger) *RecommendHandler {
	return &RecommendHandler{recommender: recommender, keeper: keeper, logger: logger}
}

// Recommend returns the quota-charged handler for one category.
func (h *RecommendHandler) Recommend(category domain.Category) gatekeeper.QuotaHandler {
	return func(c *fiber.Ctx, _ gatekeeper.Grant) (gatekeeper.Annotated, error) {
		var body dto.RecommendRequest
		if err := c.BodyParser(&body); err != nil {
			return nil, apperrors.NewValidationError("invalid request body", nil)
		}

		req, err := body.Validate()
		if err != nil {
			return nil, err
		}

		rec, err := h.recommender.Recommend(c.UserContext(), category, req)
		if err != nil {
			return nil, err
		}
		return dto.NewRecommendResponse(rec), nil
	}
}

// QuotaStatus reports remaining quota for one category without charging.
func (h *RecommendHandler) QuotaStatus(c *fiber.Ctx) error {
	category, err := domain.ParseCategory(c.Params("category"))
	if err != nil {
		return apperrors.NewValidationError("unknown category", map[string]any{"category": c.Params("category")})
	}

	key := c.Get(gatekeeper.HeaderAccessKey)
	if key == "" {
		return apperrors.NewUnauthorized("access key missing")
	}

	ticket, err := h.keeper.Store().Find(c.UserContext(), key)
	if err != nil && !errors.Is(err, repository.ErrTicketNotFound) {
		return apperrors.NewStoreUnavailable(err)
	}

	decision := gatekeeper.CheckAccess(ticket, category)
	if !decision.Allowed && decision.Reason != gatekeeper.ReasonExhausted {
		return apperrors.NewForbidden(decision.Reason)
	}

	return c.JSON(dto.QuotaStatusResponse{
		Category:  string(category),
		Remaining: decision.Remaining,
	})
}
