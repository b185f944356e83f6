package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/v1/patients/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/patients/{id}", "404"))

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/patients/{id}", "404"))
	if after-before != 3 {
		t.Errorf("Expected 3 requests under the route pattern, got %v", after-before)
	}
}

func TestRecordCacheRefresh(t *testing.T) {
	RecordCacheRefresh("patient", true, 42)
	if got := testutil.ToFloat64(cacheRecords.WithLabelValues("patient")); got != 42 {
		t.Errorf("Expected 42 cached records, got %v", got)
	}

	before := testutil.ToFloat64(cacheRefreshesTotal.WithLabelValues("patient", "failure"))
	RecordCacheRefresh("patient", false, 0)
	after := testutil.ToFloat64(cacheRefreshesTotal.WithLabelValues("patient", "failure"))
	if after-before != 1 {
		t.Errorf("Expected one failure, got %v", after-before)
	}
	if got := testutil.ToFloat64(cacheRecords.WithLabelValues("patient")); got != 42 {
		t.Errorf("Failed refresh should not touch the record gauge, got %v", got)
	}
}

func TestRecordWardAPIRequestTransportError(t *testing.T) {
	before := testutil.ToFloat64(wardAPIRequestsTotal.WithLabelValues("Patients", "error"))
	RecordWardAPIRequest("Patients", 0, 10*time.Millisecond)
	after := testutil.ToFloat64(wardAPIRequestsTotal.WithLabelValues("Patients", "error"))
	if after-before != 1 {
		t.Errorf("Expected transport error to be counted, got %v", after-before)
	}
}
