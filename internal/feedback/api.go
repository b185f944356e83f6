package feedback

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	apperrors "github.com/maternity-ward/reporting/internal/shared/errors"
	"github.com/maternity-ward/reporting/internal/shared/metrics"
)

// Handler provides HTTP handlers for feedback submission
type Handler struct {
	log    *Log
	logger zerolog.Logger
}

// NewHandler creates a new feedback handler
func NewHandler(log *Log, logger zerolog.Logger) *Handler {
	return &Handler{log: log, logger: logger}
}

// Routes registers the feedback routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	return r
}

// Submit records a feedback entry
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	entry, err := h.log.Append(req)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			apperrors.WriteError(w, apperrors.Validation("validation failed", validationErr.Problems))
			return
		}
		h.logger.Error().Err(err).Str("path", h.log.Path()).Msg("failed to save feedback")
		apperrors.WriteError(w, apperrors.Internal(err))
		return
	}

	metrics.RecordFeedbackEntry()
	h.logger.Info().Str("feedback_id", entry.ID.String()).Int("difficulty", entry.Difficulty).Msg("feedback recorded")

	apperrors.WriteJSON(w, http.StatusCreated, entry)
}
