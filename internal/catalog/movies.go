package catalog

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/config"
	"github.com/moodshelf/recs-gateway/internal/domain"
)

// tmdbGenres maps TMDB genre names to ids so model queries naming a plain
// genre can use the discover endpoint instead of free-text search.
var tmdbGenres = map[string]int{
	"action": 28, "adventure": 12, "animation": 16, "comedy": 35,
	"crime": 80, "documentary": 99, "drama": 18, "family": 10751,
	"fantasy": 14, "history": 36, "horror": 27, "music": 10402,
	"mystery": 9648, "romance": 10749, "science fiction": 878,
	"tv movie": 10770, "thriller": 53, "war": 10752, "western": 37,
}

// MoviesClient queries the TMDB API.
type MoviesClient struct {
	key     string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewMoviesClient builds the client.
func NewMoviesClient(cfg config.CatalogConfig, timeout time.Duration, logger *zap.Logger) *MoviesClient {
	return &MoviesClient{
		key:     cfg.TMDBKey,
		baseURL: cfg.TMDBBaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type tmdbMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	ReleaseDate string  `json:"release_date"`
	Adult       bool    `json:"adult"`
}

type tmdbSearchResponse struct {
	Results []tmdbMovie `json:"results"`
}

// Search splits queries into known genres and free-text keywords, hits the
// discover endpoint for genres and the search endpoint for keywords, then
// dedupes, filters by audience and ranks by rating weighted with vote count.
func (c *MoviesClient) Search(ctx context.Context, queries []string, audience domain.Audience) ([]domain.Movie, error) {
	var genreIDs []string
	var keywords []string
	for _, q := range queries {
		if id, ok := tmdbGenres[strings.ToLower(q)]; ok {
			genreIDs = append(genreIDs, strconv.Itoa(id))
		} else {
			keywords = append(keywords, q)
		}
	}

	var raw []tmdbMovie
	if len(genreIDs) > 0 {
		endpoint := fmt.Sprintf("%s/3/discover/movie?api_key=%s&with_genres=%s&language=en-US&sort_by=vote_average.desc&vote_count.gte=100",
			c.baseURL, c.key, strings.Join(genreIDs, ","))
		var parsed tmdbSearchResponse
		if err := getJSON(ctx, c.http, endpoint, nil, &parsed); err != nil {
			c.logger.Warn("tmdb discover failed", zap.Error(err))
		} else if len(parsed.Results) > 8 {
			raw = append(raw, parsed.Results[:8]...)
		} else {
			raw = append(raw, parsed.Results...)
		}
	}
	for _, keyword := range keywords {
		endpoint := fmt.Sprintf("%s/3/search/movie?api_key=%s&query=%s&language=en-US",
			c.baseURL, c.key, url.QueryEscape(keyword))
		var parsed tmdbSearchResponse
		if err := getJSON(ctx, c.http, endpoint, nil, &parsed); err != nil {
			c.logger.Warn("tmdb search failed", zap.String("keyword", keyword), zap.Error(err))
			continue
		}
		if len(parsed.Results) > 5 {
			raw = append(raw, parsed.Results[:5]...)
		} else {
			raw = append(raw, parsed.Results...)
		}
	}

	seen := make(map[int64]bool)
	var filtered []tmdbMovie
	for _, m := range raw {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if m.PosterPath == "" || m.VoteAverage <= 0 || m.VoteCount <= 50 {
			continue
		}
		if !audienceAllowsMovie(audience, m) {
			continue
		}
		filtered = append(filtered, m)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return movieScore(filtered[i]) > movieScore(filtered[j])
	})
	if len(filtered) > maxResultsPerCategory {
		filtered = filtered[:maxResultsPerCategory]
	}

	movies := make([]domain.Movie, 0, len(filtered))
	for _, m := range filtered {
		movies = append(movies, domain.Movie{
			ID:          m.ID,
			Title:       m.Title,
			Overview:    m.Overview,
			PosterURL:   "https://image.tmdb.org/t/p/w342" + m.PosterPath,
			Rating:      m.VoteAverage,
			VoteCount:   m.VoteCount,
			ReleaseDate: m.ReleaseDate,
		})
	}
	return movies, nil
}

func audienceAllowsMovie(audience domain.Audience, m tmdbMovie) bool {
	switch audience {
	case domain.AudienceTeen:
		return !m.Adult && m.VoteAverage >= 5.5
	case domain.AudienceStudent:
		return m.VoteAverage >= 6.0
	default:
		return m.VoteAverage >= 5.5
	}
}

func movieScore(m tmdbMovie) float64 {
	return m.VoteAverage * math.Log(float64(m.VoteCount))
}
