package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/config"
	"github.com/moodshelf/recs-gateway/internal/domain"
)

// MusicClient queries the Spotify API using the client-credentials flow.
// The access token is cached until shortly before its expiry.
type MusicClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	http         *http.Client
	logger       *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewMusicClient builds the client.
func NewMusicClient(cfg config.CatalogConfig, timeout time.Duration, logger *zap.Logger) *MusicClient {
	return &MusicClient{
		clientID:     cfg.SpotifyClientID,
		clientSecret: cfg.SpotifyClientSecret,
		baseURL:      cfg.SpotifyBaseURL,
		tokenURL:     cfg.SpotifyTokenURL,
		http:         &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	PreviewURL   string `json:"preview_url"`
	Popularity   int    `json:"popularity"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// Search runs a track search per query, dedupes by track id and ranks by
// popularity. When every query comes back empty it falls back to a generic
// popular-hits search so the category still answers.
func (c *MusicClient) Search(ctx context.Context, queries []string, _ domain.Audience) ([]domain.Track, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	tracks := c.searchTracks(ctx, token, queries)
	if len(tracks) == 0 {
		tracks = c.searchTracks(ctx, token, []string{"popular hits"})
	}

	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].Popularity > tracks[j].Popularity
	})
	if len(tracks) > maxResultsPerCategory {
		tracks = tracks[:maxResultsPerCategory]
	}

	result := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		artists := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			artists = append(artists, a.Name)
		}
		result = append(result, domain.Track{
			ID:          t.ID,
			Title:       t.Name,
			Artists:     artists,
			Album:       t.Album.Name,
			PreviewURL:  t.PreviewURL,
			ExternalURL: t.ExternalURLs.Spotify,
		})
	}
	return result, nil
}

func (c *MusicClient) searchTracks(ctx context.Context, token string, queries []string) []spotifyTrack {
	seen := make(map[string]bool)
	var tracks []spotifyTrack
	headers := map[string]string{"Authorization": "Bearer " + token}

	for _, q := range queries {
		endpoint := fmt.Sprintf("%s/v1/search?q=%s&type=track&limit=5", c.baseURL, url.QueryEscape(q))
		var parsed spotifySearchResponse
		if err := getJSON(ctx, c.http, endpoint, headers, &parsed); err != nil {
			c.logger.Warn("spotify search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		for _, t := range parsed.Tracks.Items {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			tracks = append(tracks, t)
		}
	}
	return tracks
}

type spotifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *MusicClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, form)
	if err != nil {
		return "", err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("spotify token error: %s", resp.Status)
	}

	var parsed spotifyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	c.token = parsed.AccessToken
	// renew a minute early so in-flight searches never race the expiry
	c.tokenExpiry = time.Now().Add(time.Duration(parsed.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}
