package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/ai"
	"github.com/moodshelf/recs-gateway/internal/cache"
	"github.com/moodshelf/recs-gateway/internal/domain"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// QueryCompleter produces raw model text for a prompt.
type QueryCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// BookSearcher finds books for a set of queries.
type BookSearcher interface {
	Search(ctx context.Context, queries []string, audience domain.Audience) ([]domain.Book, error)
}

// MovieSearcher finds movies for a set of queries.
type MovieSearcher interface {
	Search(ctx context.Context, queries []string, audience domain.Audience) ([]domain.Movie, error)
}

// TrackSearcher finds tracks for a set of queries.
type TrackSearcher interface {
	Search(ctx context.Context, queries []string, audience domain.Audience) ([]domain.Track, error)
}

// RecommendService runs the full recommendation flow for one category:
// cached response, or model-generated queries fanned out to the catalog,
// deduplicated, filtered, optionally translated, then cached.
type RecommendService struct {
	ai     QueryCompleter
	books  BookSearcher
	movies MovieSearcher
	music  TrackSearcher
	cache  cache.ResponseCache
	logger *zap.Logger
}

// RecommendDependencies bundles collaborators for the service.
type RecommendDependencies struct {
	AI     QueryCompleter
	Books  BookSearcher
	Movies MovieSearcher
	Music  TrackSearcher
	Cache  cache.ResponseCache
	Logger *zap.Logger
}

// NewRecommendService constructs the service.
func NewRecommendService(deps RecommendDependencies) *RecommendService {
	return &RecommendService{
		ai:     deps.AI,
		books:  deps.Books,
		movies: deps.Movies,
		music:  deps.Music,
		cache:  deps.Cache,
		logger: deps.Logger,
	}
}

// Recommend produces the composed recommendation for one category.
func (s *RecommendService) Recommend(ctx context.Context, category domain.Category, req domain.RecommendationRequest) (*domain.Recommendation, error) {
	cacheKey := cache.Key(category, req)
	if raw, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached domain.Recommendation
		if err := json.Unmarshal(raw, &cached); err == nil {
			s.logger.Debug("served from cache", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	queries, vibe := s.generateQueries(ctx, category, req)
	s.logger.Info("catalog fan-out",
		zap.String("category", string(category)),
		zap.Strings("queries", queries))

	rec := &domain.Recommendation{VibeLogic: vibe}
	var err error
	switch category {
	case domain.CategoryBooks:
		rec.Books, err = s.books.Search(ctx, queries, req.Audience)
	case domain.CategoryMovies:
		rec.Movies, err = s.movies.Search(ctx, queries, req.Audience)
	case domain.CategoryMusic:
		rec.Tracks, err = s.music.Search(ctx, queries, req.Audience)
	}
	if err != nil {
		return nil, apperrors.NewUpstreamError("catalog search failed", err)
	}

	if rec.Empty() {
		rec.VibeLogic = "Nothing found. Try different settings."
		return rec, nil
	}

	if req.Lang != "" && req.Lang != "en" {
		s.translate(ctx, req.Lang, rec)
	}

	if encoded, err := json.Marshal(rec); err == nil {
		s.cache.Set(ctx, cacheKey, encoded)
	}
	return rec, nil
}

type queryPlan struct {
	Queries   []string `json:"queries"`
	VibeLogic string   `json:"vibe_logic"`
}

// generateQueries asks the model for catalog search queries. Any model or
// parse failure degrades to a deterministic mood-keyed query set.
func (s *RecommendService) generateQueries(ctx context.Context, category domain.Category, req domain.RecommendationRequest) ([]string, string) {
	raw, err := s.ai.Complete(ctx, searchPrompt(category, req))
	if err != nil {
		s.logger.Warn("query generation failed, using fallback", zap.Error(err))
		return fallbackQueries(category, req.Mood), fallbackVibe
	}

	var plan queryPlan
	if err := json.Unmarshal([]byte(ai.CleanJSON(raw)), &plan); err != nil || len(plan.Queries) == 0 {
		s.logger.Warn("query plan unparsable, using fallback", zap.Error(err))
		return fallbackQueries(category, req.Mood), fallbackVibe
	}
	if plan.VibeLogic == "" {
		plan.VibeLogic = fallbackVibe
	}
	return plan.Queries, plan.VibeLogic
}

const fallbackVibe = "Picks matching your mood."

var categoryNouns = map[domain.Category]string{
	domain.CategoryBooks:  "books",
	domain.CategoryMovies: "movies",
	domain.CategoryMusic:  "tracks",
}

func searchPrompt(category domain.Category, req domain.RecommendationRequest) string {
	noun := categoryNouns[category]
	return fmt.Sprintf(`You are a %s recommendation expert. Analyze the user's profile and generate catalog search queries.

USER PROFILE:
- Mood/State: %q
- Age Group: %q
- Coffee preference (minor factor): %q

TASK:
Based PRIMARILY on mood and age, generate 3 diverse English search queries for %s.
Prioritize mood and age group over coffee.

Return JSON:
{
  "queries": ["query1", "query2", "query3"],
  "vibe_logic": "Brief explanation in English why these %s match"
}`, noun, req.Mood, req.Audience, req.Coffee, noun, noun)
}

// fallbackQueries mirrors the mood heuristics the model would apply, so a
// dead model never kills the request.
func fallbackQueries(category domain.Category, mood string) []string {
	mood = strings.ToLower(mood)
	switch {
	case strings.Contains(mood, "energetic") || strings.Contains(mood, "adventure"):
		return []string{"adventure", "thriller", "action"}
	case strings.Contains(mood, "tired") || strings.Contains(mood, "cozy"):
		return []string{"comfort", "slice of life", "calm"}
	case strings.Contains(mood, "mysterious"):
		return []string{"mystery", "detective", "psychological thriller"}
	case strings.Contains(mood, "motivation"):
		return []string{"inspirational", "self-help", "motivation"}
	}
	switch category {
	case domain.CategoryMovies:
		return []string{"drama", "feel good movies"}
	case domain.CategoryMusic:
		return []string{"chill mix", "popular hits"}
	default:
		return []string{"fiction"}
	}
}

type translatedItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type translationResult struct {
	TranslatedVibe string           `json:"translated_vibe"`
	Items          []translatedItem `json:"items"`
}

// translate rewrites titles, descriptions and the vibe text in the target
// language. Best effort: any failure keeps the originals.
func (s *RecommendService) translate(ctx context.Context, lang string, rec *domain.Recommendation) {
	targetLang := "Russian"
	if lang == "kz" {
		targetLang = "Kazakh"
	}

	var lines []string
	for _, b := range rec.Books {
		lines = append(lines, fmt.Sprintf("ID:%s | Title:%q | Description:%q", b.ID, b.Title, b.Description))
	}
	for _, m := range rec.Movies {
		lines = append(lines, fmt.Sprintf("ID:%d | Title:%q | Description:%q", m.ID, m.Title, m.Overview))
	}
	if len(lines) == 0 {
		return
	}

	prompt := fmt.Sprintf(`Translate to %s. Keep it natural and concise.

Vibe text: %q

Items to translate:
%s

Return JSON:
{"translated_vibe": "...", "items": [{"id": "...", "title": "...", "description": "..."}]}`,
		targetLang, rec.VibeLogic, strings.Join(lines, "\n"))

	raw, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("translation failed, keeping originals", zap.Error(err))
		return
	}
	var result translationResult
	if err := json.Unmarshal([]byte(ai.CleanJSON(raw)), &result); err != nil {
		s.logger.Warn("translation unparsable, keeping originals", zap.Error(err))
		return
	}

	if result.TranslatedVibe != "" {
		rec.VibeLogic = result.TranslatedVibe
	}
	byID := make(map[string]translatedItem, len(result.Items))
	for _, item := range result.Items {
		byID[item.ID] = item
	}
	for i, b := range rec.Books {
		if item, ok := byID[b.ID]; ok {
			if item.Title != "" {
				rec.Books[i].Title = item.Title
			}
			if item.Description != "" {
				rec.Books[i].Description = item.Description
			}
		}
	}
	for i, m := range rec.Movies {
		if item, ok := byID[fmt.Sprintf("%d", m.ID)]; ok {
			if item.Title != "" {
				rec.Movies[i].Title = item.Title
			}
			if item.Description != "" {
				rec.Movies[i].Overview = item.Description
			}
		}
	}
}
