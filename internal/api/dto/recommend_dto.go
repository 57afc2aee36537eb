package dto

import (
	"strings"

	"github.com/moodshelf/recs-gateway/internal/domain"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// RecommendRequest is the transport shape for a recommendation call.
type RecommendRequest struct {
	Coffee   string `json:"coffee"`
	Mood     string `json:"mood"`
	UserType string `json:"user_type"`
	Lang     string `json:"lang"`
}

const maxFieldLen = 200

// Validate normalizes the request and maps it to the domain shape.
func (r RecommendRequest) Validate() (domain.RecommendationRequest, error) {
	mood := strings.TrimSpace(r.Mood)
	if mood == "" {
		return domain.RecommendationRequest{}, apperrors.NewValidationError("mood is required", nil)
	}
	if len(mood) > maxFieldLen || len(r.Coffee) > maxFieldLen {
		return domain.RecommendationRequest{}, apperrors.NewValidationError("field too long", nil)
	}

	return domain.RecommendationRequest{
		Coffee:   strings.TrimSpace(r.Coffee),
		Mood:     mood,
		Audience: domain.ParseAudience(r.UserType),
		Lang:     strings.ToLower(strings.TrimSpace(r.Lang)),
	}, nil
}

// RecommendMeta carries response metadata alongside catalog items.
type RecommendMeta struct {
	VibeLogic string `json:"vibe_logic"`
	Remaining int    `json:"remaining"`
}

// RecommendResponse is the response body for every recommendation
// category. Only the slice matching the requested category is populated.
type RecommendResponse struct {
	Books  []domain.Book  `json:"books,omitempty"`
	Movies []domain.Movie `json:"movies,omitempty"`
	Tracks []domain.Track `json:"tracks,omitempty"`
	Meta   RecommendMeta  `json:"meta"`
}

// NewRecommendResponse shapes a domain recommendation for transport.
func NewRecommendResponse(rec *domain.Recommendation) *RecommendResponse {
	return &RecommendResponse{
		Books:  rec.Books,
		Movies: rec.Movies,
		Tracks: rec.Tracks,
		Meta:   RecommendMeta{VibeLogic: rec.VibeLogic},
	}
}

// Annotate records the post-consumption remaining count.
func (r *RecommendResponse) Annotate(remaining int) {
	r.Meta.Remaining = remaining
}

// QuotaStatusResponse reports remaining quota without consuming any.
type QuotaStatusResponse struct {
	Category  string `json:"category"`
	Remaining int    `json:"remaining"`
}
