package cache

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	apperrors "github.com/maternity-ward/reporting/internal/shared/errors"
)

// Handler exposes cache status and manual refresh over HTTP
type Handler struct {
	cache      *RecordCache
	logger     zerolog.Logger
	refreshing atomic.Bool
	wg         sync.WaitGroup
}

// NewHandler creates a new cache handler
func NewHandler(cache *RecordCache, logger zerolog.Logger) *Handler {
	return &Handler{cache: cache, logger: logger}
}

// Routes registers the cache routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetStatus)
	r.Post("/refresh", h.TriggerRefresh)

	return r
}

// GetStatus reports the state of every slot
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"ready": h.cache.Ready(),
		"slots": h.cache.Status(),
	})
}

// TriggerRefresh starts a full refresh in the background. Only one manual
// refresh runs at a time.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.refreshing.CompareAndSwap(false, true) {
		apperrors.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "refresh already in progress"})
		return
	}

	ctx := context.WithoutCancel(r.Context())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.refreshing.Store(false)
		h.cache.RefreshAll(ctx)
	}()

	h.logger.Info().Msg("manual cache refresh started")
	apperrors.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

// Wait blocks until any manual refresh in progress has finished or ctx ends
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
