package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/cache"
	"github.com/moodshelf/recs-gateway/internal/domain"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

type stubAI struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubAI) Complete(_ context.Context, _ string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

type stubBooks struct {
	queries []string
	books   []domain.Book
	err     error
	calls   int
}

func (s *stubBooks) Search(_ context.Context, queries []string, _ domain.Audience) ([]domain.Book, error) {
	s.calls++
	s.queries = queries
	return s.books, s.err
}

type stubMovies struct {
	movies []domain.Movie
	err    error
}

func (s *stubMovies) Search(context.Context, []string, domain.Audience) ([]domain.Movie, error) {
	return s.movies, s.err
}

type stubMusic struct {
	tracks []domain.Track
}

func (s *stubMusic) Search(context.Context, []string, domain.Audience) ([]domain.Track, error) {
	return s.tracks, nil
}

func newTestService(ai *stubAI, books *stubBooks, movies *stubMovies, music *stubMusic) *RecommendService {
	return NewRecommendService(RecommendDependencies{
		AI:     ai,
		Books:  books,
		Movies: movies,
		Music:  music,
		Cache:  cache.NewMemoryCache(time.Minute, 10),
		Logger: zap.NewNop(),
	})
}

func sampleBook() domain.Book {
	return domain.Book{
		ID:          "vol1",
		Title:       "The Long Walk",
		Authors:     []string{"Somebody"},
		Description: "A walk.",
		Thumbnail:   "https://example.com/t.jpg",
	}
}

func TestRecommendUsesModelQueries(t *testing.T) {
	ai := &stubAI{responses: []string{
		"```json\n{\"queries\": [\"space opera\", \"first contact\", \"hard sci-fi\"], \"vibe_logic\": \"Cosmic picks\"}\n```",
	}}
	books := &stubBooks{books: []domain.Book{sampleBook()}}
	svc := newTestService(ai, books, &stubMovies{}, &stubMusic{})

	rec, err := svc.Recommend(context.Background(), domain.CategoryBooks, domain.RecommendationRequest{
		Mood: "curious", Audience: domain.AudienceAdult,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"space opera", "first contact", "hard sci-fi"}, books.queries)
	assert.Equal(t, "Cosmic picks", rec.VibeLogic)
	assert.Len(t, rec.Books, 1)
}

func TestRecommendFallsBackWhenModelFails(t *testing.T) {
	ai := &stubAI{errs: []error{errors.New("all providers down")}}
	books := &stubBooks{books: []domain.Book{sampleBook()}}
	svc := newTestService(ai, books, &stubMovies{}, &stubMusic{})

	rec, err := svc.Recommend(context.Background(), domain.CategoryBooks, domain.RecommendationRequest{
		Mood: "mysterious evening", Audience: domain.AudienceAdult,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mystery", "detective", "psychological thriller"}, books.queries)
	assert.Equal(t, fallbackVibe, rec.VibeLogic)
}

func TestRecommendFallsBackOnUnparsablePlan(t *testing.T) {
	ai := &stubAI{responses: []string{"not json at all"}}
	books := &stubBooks{books: []domain.Book{sampleBook()}}
	svc := newTestService(ai, books, &stubMovies{}, &stubMusic{})

	_, err := svc.Recommend(context.Background(), domain.CategoryBooks, domain.RecommendationRequest{
		Mood: "tired", Audience: domain.AudienceAdult,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"comfort", "slice of life", "calm"}, books.queries)
}

func TestRecommendCachesResults(t *testing.T) {
	ai := &stubAI{errs: []error{errors.New("down"), errors.New("down")}}
	books := &stubBooks{books: []domain.Book{sampleBook()}}
	svc := newTestService(ai, books, &stubMovies{}, &stubMusic{})

	req := domain.RecommendationRequest{Mood: "happy", Audience: domain.AudienceAdult}

	first, err := svc.Recommend(context.Background(), domain.CategoryBooks, req)
	require.NoError(t, err)

	second, err := svc.Recommend(context.Background(), domain.CategoryBooks, req)
	require.NoError(t, err)

	assert.Equal(t, 1, books.calls)
	assert.Equal(t, first.Books, second.Books)
}

func TestRecommendCatalogFailureIsUpstreamError(t *testing.T) {
	ai := &stubAI{errs: []error{errors.New("down")}}
	movies := &stubMovies{err: errors.New("tmdb 500")}
	svc := newTestService(ai, &stubBooks{}, movies, &stubMusic{})

	_, err := svc.Recommend(context.Background(), domain.CategoryMovies, domain.RecommendationRequest{
		Mood: "happy", Audience: domain.AudienceAdult,
	})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "UPSTREAM_FAILED", domainErr.Code)
}

func TestRecommendEmptyResultGetsPlaceholderVibe(t *testing.T) {
	ai := &stubAI{errs: []error{errors.New("down")}}
	svc := newTestService(ai, &stubBooks{}, &stubMovies{}, &stubMusic{})

	rec, err := svc.Recommend(context.Background(), domain.CategoryBooks, domain.RecommendationRequest{
		Mood: "happy", Audience: domain.AudienceAdult,
	})
	require.NoError(t, err)
	assert.True(t, rec.Empty())
	assert.Equal(t, "Nothing found. Try different settings.", rec.VibeLogic)
}

func TestRecommendTranslationFailureKeepsOriginals(t *testing.T) {
	ai := &stubAI{
		responses: []string{`{"queries": ["q1"], "vibe_logic": "Original vibe"}`, ""},
		errs:      []error{nil, errors.New("translate down")},
	}
	books := &stubBooks{books: []domain.Book{sampleBook()}}
	svc := newTestService(ai, books, &stubMovies{}, &stubMusic{})

	rec, err := svc.Recommend(context.Background(), domain.CategoryBooks, domain.RecommendationRequest{
		Mood: "happy", Audience: domain.AudienceAdult, Lang: "ru",
	})
	require.NoError(t, err)
	assert.Equal(t, "Original vibe", rec.VibeLogic)
	assert.Equal(t, "The Long Walk", rec.Books[0].Title)
	assert.Equal(t, 2, ai.calls)
}

func TestRecommendAppliesTranslation(t *testing.T) {
	ai := &stubAI{responses: []string{
		`{"queries": ["q1"], "vibe_logic": "Original vibe"}`,
		`{"translated_vibe": "Другой вайб", "items": [{"id": "vol1", "title": "Долгая прогулка", "description": "Прогулка."}]}`,
	}}
	books := &stubBooks{books: []domain.Book{sampleBook()}}
	svc := newTestService(ai, books, &stubMovies{}, &stubMusic{})

	rec, err := svc.Recommend(context.Background(), domain.CategoryBooks, domain.RecommendationRequest{
		Mood: "happy", Audience: domain.AudienceAdult, Lang: "ru",
	})
	require.NoError(t, err)
	assert.Equal(t, "Другой вайб", rec.VibeLogic)
	assert.Equal(t, "Долгая прогулка", rec.Books[0].Title)
	assert.Equal(t, "Прогулка.", rec.Books[0].Description)
}

func TestRecommendSkipsTranslationForEnglish(t *testing.T) {
	ai := &stubAI{responses: []string{`{"queries": ["q1"], "vibe_logic": "V"}`}}
	books := &stubBooks{books: []domain.Book{sampleBook()}}
	svc := newTestService(ai, books, &stubMovies{}, &stubMusic{})

	_, err := svc.Recommend(context.Background(), domain.CategoryBooks, domain.RecommendationRequest{
		Mood: "happy", Audience: domain.AudienceAdult, Lang: "en",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ai.calls)
}
