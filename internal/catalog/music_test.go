package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/config"
	"github.com/moodshelf/recs-gateway/internal/domain"
)

func spotifyItem(id, name string, popularity int) map[string]any {
	return map[string]any{
		"id":            id,
		"name":          name,
		"artists":       []map[string]string{{"name": "Artist " + id}},
		"album":         map[string]string{"name": "Album " + id},
		"popularity":    popularity,
		"external_urls": map[string]string{"spotify": "https://open.spotify.com/track/" + id},
	}
}

func spotifyBody(items ...map[string]any) map[string]any {
	return map[string]any{"tracks": map[string]any{"items": items}}
}

func newMusicClient(t *testing.T, search http.HandlerFunc) (*MusicClient, *int) {
	t.Helper()
	tokenCalls := new(int)
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*tokenCalls++
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Basic "))
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	}))
	t.Cleanup(tokenSrv.Close)

	searchSrv := httptest.NewServer(search)
	t.Cleanup(searchSrv.Close)

	client := NewMusicClient(config.CatalogConfig{
		SpotifyClientID:     "id",
		SpotifyClientSecret: "secret",
		SpotifyBaseURL:      searchSrv.URL,
		SpotifyTokenURL:     tokenSrv.URL,
	}, 5*time.Second, zap.NewNop())
	return client, tokenCalls
}

func TestMusicSearchRanksByPopularity(t *testing.T) {
	client, _ := newMusicClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(spotifyBody(
			spotifyItem("a", "Niche Track", 20),
			spotifyItem("b", "Hit Track", 90),
		))
	})

	tracks, err := client.Search(context.Background(), []string{"chill mix"}, domain.AudienceAdult)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Hit Track", tracks[0].Title)
	assert.Equal(t, []string{"Artist b"}, tracks[0].Artists)
}

func TestMusicSearchCachesToken(t *testing.T) {
	client, tokenCalls := newMusicClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(spotifyBody(spotifyItem("a", "Track", 50)))
	})

	_, err := client.Search(context.Background(), []string{"q"}, domain.AudienceAdult)
	require.NoError(t, err)
	_, err = client.Search(context.Background(), []string{"q"}, domain.AudienceAdult)
	require.NoError(t, err)

	assert.Equal(t, 1, *tokenCalls)
}

func TestMusicSearchFallsBackToPopularHits(t *testing.T) {
	client, _ := newMusicClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "popular hits" {
			_ = json.NewEncoder(w).Encode(spotifyBody(spotifyItem("hit", "Chart Topper", 95)))
			return
		}
		_ = json.NewEncoder(w).Encode(spotifyBody())
	})

	tracks, err := client.Search(context.Background(), []string{"extremely obscure query"}, domain.AudienceAdult)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Chart Topper", tracks[0].Title)
}

func TestMusicSearchTokenFailure(t *testing.T) {
	badToken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer badToken.Close()

	client := NewMusicClient(config.CatalogConfig{
		SpotifyClientID:     "id",
		SpotifyClientSecret: "secret",
		SpotifyBaseURL:      "http://unused",
		SpotifyTokenURL:     badToken.URL,
	}, 5*time.Second, zap.NewNop())

	_, err := client.Search(context.Background(), []string{"q"}, domain.AudienceAdult)
	assert.Error(t, err)
}

func TestMusicSearchDedupes(t *testing.T) {
	client, _ := newMusicClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(spotifyBody(spotifyItem("same", "Same Track", 70)))
	})

	tracks, err := client.Search(context.Background(), []string{"q1", "q2"}, domain.AudienceAdult)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}
