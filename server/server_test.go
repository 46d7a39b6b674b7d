package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tunesmith/config"
	"tunesmith/core/auth"
	"tunesmith/core/billing"
	"tunesmith/core/generation"
	"tunesmith/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	songs map[string]*model.Song
}

func (s *stubStore) GetSongByID(ctx context.Context, id string) (*model.Song, error) {
	song, ok := s.songs[id]
	if !ok {
		return nil, nil
	}
	return song, nil
}

func (s *stubStore) TransitionStatus(ctx context.Context, id string, from, to model.SongStatus) (bool, error) {
	song, ok := s.songs[id]
	if !ok || song.Status != from {
		return false, nil
	}
	song.Status = to
	return true, nil
}

func (s *stubStore) MarkProcessed(ctx context.Context, id, s3Key, thumbnailS3Key string, audioDuration float64) (bool, error) {
	song, ok := s.songs[id]
	if !ok || song.Status != model.StatusProcessing {
		return false, nil
	}
	song.Status = model.StatusProcessed
	return true, nil
}

type stubLedger struct {
	refunds int
	granted map[int64]int
}

func (l *stubLedger) Refund(ctx context.Context, userID int64) error {
	l.refunds++
	return nil
}

func (l *stubLedger) Credit(ctx context.Context, userID int64, amount int) error {
	if l.granted == nil {
		l.granted = make(map[int64]int)
	}
	l.granted[userID] += amount
	return nil
}

func TestAuthMiddleware(t *testing.T) {
	auth.InitJWT("test-secret")
	h := &APIHandler{}

	var gotUserID int64
	protected := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		protected(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := httptest.NewRecorder()
		protected(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rr := httptest.NewRecorder()
		protected(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.GenerateToken(42, "alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(42), gotUserID)
	})
}

func callbackHandler(songs map[string]*model.Song, ledger *stubLedger) *APIHandler {
	store := &stubStore{songs: songs}
	return &APIHandler{
		reconciler: generation.NewReconciler(store, ledger, nil),
		billing:    billing.NewService(ledger),
		cfg: &config.Config{
			GenerationCallbackToken: "worker-token",
			BillingWebhookToken:     "billing-token",
		},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestGenerationCallbackAuth(t *testing.T) {
	h := callbackHandler(map[string]*model.Song{}, &stubLedger{})

	rr := postJSON(t, h.GenerationCallbackHandler, "/api/internal/generation/events", "",
		generation.CompletionEvent{SongID: "x", Event: generation.EventStarted})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = postJSON(t, h.GenerationCallbackHandler, "/api/internal/generation/events", "wrong",
		generation.CompletionEvent{SongID: "x", Event: generation.EventStarted})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGenerationCallbackApplies(t *testing.T) {
	songs := map[string]*model.Song{
		"song-1": {ID: "song-1", UserID: 3, Status: model.StatusQueued},
	}
	h := callbackHandler(songs, &stubLedger{})

	rr := postJSON(t, h.GenerationCallbackHandler, "/api/internal/generation/events", "worker-token",
		generation.CompletionEvent{SongID: "song-1", Event: generation.EventStarted})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.StatusProcessing, songs["song-1"].Status)
}

func TestGenerationCallbackStaleEventConflicts(t *testing.T) {
	songs := map[string]*model.Song{
		"song-1": {ID: "song-1", UserID: 3, Status: model.StatusProcessed},
	}
	h := callbackHandler(songs, &stubLedger{})

	rr := postJSON(t, h.GenerationCallbackHandler, "/api/internal/generation/events", "worker-token",
		generation.CompletionEvent{SongID: "song-1", Event: generation.EventStarted})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestGenerationCallbackUnknownSong(t *testing.T) {
	h := callbackHandler(map[string]*model.Song{}, &stubLedger{})

	rr := postJSON(t, h.GenerationCallbackHandler, "/api/internal/generation/events", "worker-token",
		generation.CompletionEvent{SongID: "ghost", Event: generation.EventStarted})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBillingWebhookSettles(t *testing.T) {
	ledger := &stubLedger{}
	h := callbackHandler(map[string]*model.Song{}, ledger)

	rr := postJSON(t, h.BillingWebhookHandler, "/api/webhooks/billing", "billing-token",
		billing.CheckoutEvent{Type: "order.paid", ProductID: "large", ExternalCustomerID: "7"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 50, ledger.granted[7])
}

func TestBillingWebhookIgnoresOtherEvents(t *testing.T) {
	ledger := &stubLedger{}
	h := callbackHandler(map[string]*model.Song{}, ledger)

	rr := postJSON(t, h.BillingWebhookHandler, "/api/webhooks/billing", "billing-token",
		billing.CheckoutEvent{Type: "order.refunded", ProductID: "large", ExternalCustomerID: "7"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, ledger.granted)
}

func TestBillingWebhookMissingCustomer(t *testing.T) {
	h := callbackHandler(map[string]*model.Song{}, &stubLedger{})

	rr := postJSON(t, h.BillingWebhookHandler, "/api/webhooks/billing", "billing-token",
		billing.CheckoutEvent{Type: "order.paid", ProductID: "large"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookUnconfiguredToken(t *testing.T) {
	h := &APIHandler{cfg: &config.Config{}}

	rr := postJSON(t, h.BillingWebhookHandler, "/api/webhooks/billing", "anything",
		billing.CheckoutEvent{Type: "order.paid"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
