// Package lookup serves the raw ward collections and single-record lookups.
package lookup

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/maternity-ward/reporting/internal/cache"
	apperrors "github.com/maternity-ward/reporting/internal/shared/errors"
	"github.com/maternity-ward/reporting/internal/ward"
)

// Collections is the cached view of the ward data
type Collections interface {
	Patients(ctx context.Context) ([]ward.Patient, error)
	Admissions(ctx context.Context) ([]ward.Admission, error)
	Employees(ctx context.Context) ([]ward.Employee, error)
	Allocations(ctx context.Context) ([]ward.Allocation, error)
}

// Handler provides HTTP handlers for record lookups.
// Lists are served from the cache, single records straight from the source.
type Handler struct {
	collections Collections
	source      ward.Source
	logger      zerolog.Logger
}

// NewHandler creates a new lookup handler
func NewHandler(collections Collections, source ward.Source, logger zerolog.Logger) *Handler {
	return &Handler{collections: collections, source: source, logger: logger}
}

// Routes registers the lookup routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.ListPatients)
		r.Get("/{id}", h.GetPatient)
	})
	r.Route("/admissions", func(r chi.Router) {
		r.Get("/", h.ListAdmissions)
		r.Get("/{id}", h.GetAdmission)
	})
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.ListEmployees)
		r.Get("/{id}", h.GetEmployee)
	})
	r.Route("/allocations", func(r chi.Router) {
		r.Get("/", h.ListAllocations)
		r.Get("/{id}", h.GetAllocation)
	})

	return r
}

// --- Collection Handlers ---

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	list(w, r, h, ward.KindPatient, h.collections.Patients)
}

func (h *Handler) ListAdmissions(w http.ResponseWriter, r *http.Request) {
	list(w, r, h, ward.KindAdmission, h.collections.Admissions)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	list(w, r, h, ward.KindEmployee, h.collections.Employees)
}

func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	list(w, r, h, ward.KindAllocation, h.collections.Allocations)
}

// --- Single Record Handlers ---

// GetPatient returns a patient together with its admissions
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patient, ok := fetch(w, r, h, ward.KindPatient, h.source.FetchPatient)
	if !ok {
		return
	}

	detail, err := h.patientDetail(r.Context(), patient)
	if err != nil {
		h.writeListError(w, ward.KindAdmission, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, detail)
}

// GetAdmission returns an admission with its patient and staff allocations
func (h *Handler) GetAdmission(w http.ResponseWriter, r *http.Request) {
	admission, ok := fetch(w, r, h, ward.KindAdmission, h.source.FetchAdmission)
	if !ok {
		return
	}

	detail, err := h.admissionDetail(r.Context(), admission)
	if err != nil {
		h.writeListError(w, ward.KindAllocation, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	get(w, r, h, ward.KindEmployee, h.source.FetchEmployee)
}

func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	get(w, r, h, ward.KindAllocation, h.source.FetchAllocation)
}

func list[T any](w http.ResponseWriter, r *http.Request, h *Handler, kind ward.Kind, load func(context.Context) ([]T, error)) {
	records, err := load(r.Context())
	if err != nil {
		h.writeListError(w, kind, err)
		return
	}

	if records == nil {
		records = []T{}
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  records,
		"total": len(records),
	})
}

func get[T any](w http.ResponseWriter, r *http.Request, h *Handler, kind ward.Kind, load func(context.Context, int) (*T, error)) {
	if record, ok := fetch(w, r, h, kind, load); ok {
		apperrors.WriteJSON(w, http.StatusOK, record)
	}
}

// fetch loads the record named by the id URL parameter. When it returns
// false the error response has already been written.
func fetch[T any](w http.ResponseWriter, r *http.Request, h *Handler, kind ward.Kind, load func(context.Context, int) (*T, error)) (*T, bool) {
	rawID := chi.URLParam(r, "id")
	id, err := strconv.Atoi(rawID)
	if err != nil {
		apperrors.WriteError(w, apperrors.BadRequest("invalid "+string(kind)+" ID"))
		return nil, false
	}

	record, err := load(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("kind", string(kind)).Int("id", id).Msg("lookup failed")
		apperrors.WriteError(w, apperrors.BadGateway(err))
		return nil, false
	}
	if record == nil {
		apperrors.WriteError(w, apperrors.NotFound(string(kind), rawID))
		return nil, false
	}

	return record, true
}

func (h *Handler) writeListError(w http.ResponseWriter, kind ward.Kind, err error) {
	h.logger.Error().Err(err).Str("kind", string(kind)).Msg("list failed")

	var fetchErr *cache.FetchError
	if errors.As(err, &fetchErr) {
		apperrors.WriteError(w, apperrors.BadGateway(err))
		return
	}
	apperrors.WriteError(w, apperrors.Internal(err))
}
