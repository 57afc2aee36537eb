package gatekeeper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/config"
	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/events"
	"github.com/moodshelf/recs-gateway/internal/repository"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

type testPayload struct {
	Result    string `json:"result"`
	Remaining int    `json:"remaining"`
}

func (p *testPayload) Annotate(remaining int) {
	p.Remaining = remaining
}

// consumeFailingStore delegates reads but fails the atomic consume.
type consumeFailingStore struct {
	*repository.MemoryTicketStore
}

func (s consumeFailingStore) AtomicConsume(context.Context, string, domain.Category) (*domain.AccessTicket, error) {
	return nil, assert.AnError
}

func newQuotaApp(keeper *Gatekeeper, handler QuotaHandler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	app.Post("/charged",
		keeper.Guard(domain.CategoryBooks),
		keeper.WithQuota(domain.CategoryBooks, handler))
	return app
}

func okHandler(result string) QuotaHandler {
	return func(_ *fiber.Ctx, _ Grant) (Annotated, error) {
		return &testPayload{Result: result}, nil
	}
}

func doCharged(t *testing.T, app *fiber.App, key string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/charged", nil)
	req.Header.Set(HeaderAccessKey, key)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestWithQuotaChargesAndAnnotates(t *testing.T) {
	store := repository.NewMemoryTicketStore()
	key := seedTicket(t, store, map[domain.Category]int{domain.CategoryBooks: 2})

	dispatcher := events.NewInMemoryDispatcher()
	var consumed atomic.Int64
	dispatcher.Subscribe(events.EventQuotaConsumed, func(context.Context, events.Event) error {
		consumed.Add(1)
		return nil
	})

	keeper := New(store, dispatcher, zap.NewNop(), config.GatekeeperConfig{KeyPrefix: "GK", DefaultLifetimeDays: 1})
	app := newQuotaApp(keeper, okHandler("ok"))

	resp := doCharged(t, app, key)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body testPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Result)
	assert.Equal(t, 1, body.Remaining)
	assert.Equal(t, int64(1), consumed.Load())

	resp = doCharged(t, app, key)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 0, body.Remaining)

	// Third call is rejected by the guard before the handler runs.
	resp = doCharged(t, app, key)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_, message := decodeError(t, resp.Body)
	assert.Equal(t, ReasonExhausted, message)
}

func TestWithQuotaHandlerErrorChargesNothing(t *testing.T) {
	store := repository.NewMemoryTicketStore()
	key := seedTicket(t, store, map[domain.Category]int{domain.CategoryBooks: 2})

	keeper := newTestKeeper(store)
	app := newQuotaApp(keeper, func(_ *fiber.Ctx, _ Grant) (Annotated, error) {
		return nil, apperrors.NewUpstreamError("catalog search failed", assert.AnError)
	})

	resp := doCharged(t, app, key)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	code, _ := decodeError(t, resp.Body)
	assert.Equal(t, "UPSTREAM_FAILED", code)

	ticket, err := store.Find(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 0, ticket.Used[domain.CategoryBooks])
}

func TestWithQuotaServesDespiteConsumeFailure(t *testing.T) {
	mem := repository.NewMemoryTicketStore()
	key := seedTicket(t, mem, map[domain.Category]int{domain.CategoryBooks: 3})

	keeper := newTestKeeper(consumeFailingStore{mem})
	app := newQuotaApp(keeper, okHandler("ok"))

	resp := doCharged(t, app, key)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body testPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Result)
	assert.Equal(t, 2, body.Remaining)
}

func TestWithQuotaLostRaceServesWithZeroRemaining(t *testing.T) {
	store := repository.NewMemoryTicketStore()
	key := seedTicket(t, store, map[domain.Category]int{domain.CategoryBooks: 1})

	dispatcher := events.NewInMemoryDispatcher()
	var exhausted atomic.Int64
	dispatcher.Subscribe(events.EventQuotaExhausted, func(context.Context, events.Event) error {
		exhausted.Add(1)
		return nil
	})
	keeper := New(store, dispatcher, zap.NewNop(), config.GatekeeperConfig{KeyPrefix: "GK", DefaultLifetimeDays: 1})

	// The guard sees one remaining, then a competing consume drains it
	// before the wrapper charges.
	app := newQuotaApp(keeper, func(c *fiber.Ctx, _ Grant) (Annotated, error) {
		_, err := store.AtomicConsume(c.UserContext(), key, domain.CategoryBooks)
		require.NoError(t, err)
		return &testPayload{Result: "ok"}, nil
	})

	resp := doCharged(t, app, key)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body testPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 0, body.Remaining)
	assert.Equal(t, int64(1), exhausted.Load())
}
