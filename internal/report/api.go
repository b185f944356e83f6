package report

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/maternity-ward/reporting/internal/cache"
	apperrors "github.com/maternity-ward/reporting/internal/shared/errors"
)

// Handler provides HTTP handlers for the ward reports
type Handler struct {
	engine *Engine
	logger zerolog.Logger
}

// NewHandler creates a new report handler
func NewHandler(engine *Engine, logger zerolog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Routes registers the report routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/patients/never-admitted", h.NeverAdmitted)
	r.Get("/patients/readmitted-within-7-days", h.ReadmittedWithin7Days)
	r.Get("/patients/with-multiple-staff", h.WithMultipleStaff)
	r.Get("/admissions/month-with-most", h.MonthWithMostAdmissions)

	return r
}

// NeverAdmitted lists patients without any admission
func (h *Handler) NeverAdmitted(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.PatientsNeverAdmitted(r.Context())
	if err != nil {
		h.writeReportError(w, ReportNeverAdmitted, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, result)
}

// ReadmittedWithin7Days lists patients readmitted soon after a discharge
func (h *Handler) ReadmittedWithin7Days(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.PatientsReadmittedWithin7Days(r.Context())
	if err != nil {
		h.writeReportError(w, ReportReadmitted, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, result)
}

// MonthWithMostAdmissions returns the busiest admission month
func (h *Handler) MonthWithMostAdmissions(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.MonthWithMostAdmissions(r.Context())
	if err != nil {
		h.writeReportError(w, ReportBusiestMonth, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, result)
}

// WithMultipleStaff lists patients cared for by more than one employee
func (h *Handler) WithMultipleStaff(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.PatientsWithMultipleStaff(r.Context())
	if err != nil {
		h.writeReportError(w, ReportMultipleStaff, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeReportError(w http.ResponseWriter, report string, err error) {
	h.logger.Error().Err(err).Str("report", report).Msg("report failed")

	var fetchErr *cache.FetchError
	if errors.As(err, &fetchErr) {
		apperrors.WriteError(w, apperrors.BadGateway(err))
		return
	}
	apperrors.WriteError(w, apperrors.Internal(err))
}
