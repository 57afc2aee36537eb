package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/config"
	"github.com/moodshelf/recs-gateway/internal/domain"
)

const maxResultsPerCategory = 4

// BooksClient queries the Google Books volumes API.
type BooksClient struct {
	key     string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewBooksClient builds the client.
func NewBooksClient(cfg config.CatalogConfig, timeout time.Duration, logger *zap.Logger) *BooksClient {
	return &BooksClient{
		key:     cfg.GoogleBooksKey,
		baseURL: cfg.GoogleBooksBaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type booksSearchResponse struct {
	Items []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title       string   `json:"title"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
			Categories  []string `json:"categories"`
			InfoLink    string   `json:"infoLink"`
			ImageLinks  struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Search fans the queries out to Google Books, deduplicates by volume id,
// keeps only covered books and applies the audience filter. Individual
// query failures are logged and skipped; the fan-out is best effort.
func (c *BooksClient) Search(ctx context.Context, queries []string, audience domain.Audience) ([]domain.Book, error) {
	seen := make(map[string]bool)
	var books []domain.Book

	for _, q := range queries {
		endpoint := fmt.Sprintf("%s/books/v1/volumes?q=%s&maxResults=5&langRestrict=en&key=%s",
			c.baseURL, url.QueryEscape(q), c.key)

		var parsed booksSearchResponse
		if err := getJSON(ctx, c.http, endpoint, nil, &parsed); err != nil {
			c.logger.Warn("books search failed", zap.String("query", q), zap.Error(err))
			continue
		}

		for _, item := range parsed.Items {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true

			info := item.VolumeInfo
			if info.ImageLinks.Thumbnail == "" {
				continue
			}
			if !audienceAllowsBook(audience, info.Categories) {
				continue
			}

			authors := info.Authors
			if len(authors) == 0 {
				authors = []string{"Unknown Author"}
			}
			books = append(books, domain.Book{
				ID:          item.ID,
				Title:       info.Title,
				Authors:     authors,
				Description: truncate(info.Description, 200),
				Thumbnail:   strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1),
				InfoLink:    info.InfoLink,
			})
		}
	}

	if len(books) > maxResultsPerCategory {
		books = books[:maxResultsPerCategory]
	}
	return books, nil
}

// Adults and students get juvenile titles filtered out; teenagers keep
// everything the query produced.
func audienceAllowsBook(audience domain.Audience, categories []string) bool {
	if audience == domain.AudienceTeen {
		return true
	}
	for _, cat := range categories {
		lower := strings.ToLower(cat)
		if strings.Contains(lower, "juvenile") || strings.Contains(lower, "children") || strings.Contains(lower, "kids") {
			return false
		}
	}
	return true
}

func truncate(s string, max int) string {
	if s == "" {
		return "No description available"
	}
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
