package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/maternity-ward/reporting/internal/cache"
	"github.com/maternity-ward/reporting/internal/shared/config"
	"github.com/maternity-ward/reporting/internal/ward"
	"github.com/maternity-ward/reporting/internal/ward/wardtest"
)

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Port: 8080, Env: "test"},
		Feedback:  config.FeedbackConfig{LogPath: filepath.Join(t.TempDir(), "feedback.log")},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	src := &wardtest.Source{
		Patients:    []ward.Patient{{ID: 1}, {ID: 2}},
		Admissions:  []ward.Admission{{ID: 10, PatientID: 1, AdmissionDate: "2024-04-01T10:00:00"}},
		Employees:   []ward.Employee{{ID: 5}},
		Allocations: []ward.Allocation{},
	}
	return newApp(cfg, src, zerolog.Nop())
}

func TestRouterEndpoints(t *testing.T) {
	srv := httptest.NewServer(newRouter(testApp(t)))
	defer srv.Close()

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/api/v1/reports/patients/never-admitted", "", http.StatusOK},
		{http.MethodGet, "/api/v1/reports/admissions/month-with-most", "", http.StatusOK},
		{http.MethodGet, "/api/v1/patients", "", http.StatusOK},
		{http.MethodGet, "/api/v1/patients/2", "", http.StatusOK},
		{http.MethodGet, "/api/v1/employees/77", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/cache", "", http.StatusOK},
		{http.MethodPost, "/api/v1/feedback", `{"task":"t","difficulty":2,"comments":"c"}`, http.StatusCreated},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestReadyFollowsCache(t *testing.T) {
	app := testApp(t)
	srv := httptest.NewServer(newRouter(app))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ready")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the cache is loaded, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.Cache.RefreshAll(ctx)

	resp, err = http.Get(srv.URL + "/ready")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 after refresh, got %d", resp.StatusCode)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Status != "ready" || len(body.Checks) != len(ward.Kinds) {
		t.Errorf("Unexpected ready body %+v", body)
	}
}

func TestReportCommandRejectsUnknownName(t *testing.T) {
	cmd := reportCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"nonsense"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown report") {
		t.Errorf("Expected unknown report error, got %v", err)
	}
}

func TestReportNamesSorted(t *testing.T) {
	expected := []string{"busiest-month", "multiple-staff", "never-admitted", "readmitted"}
	names := reportNames()
	if strings.Join(names, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected %v, got %v", expected, names)
	}
}

func TestShutdownWaitsForManualRefresh(t *testing.T) {
	app := testApp(t)
	srv := httptest.NewServer(newRouter(app))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/cache/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	refresher := cache.NewRefresher(app.Cache, time.Hour, false, zerolog.Nop())
	app.shutdown(ctx, &http.Server{}, refresher)

	if !app.Cache.Ready() {
		t.Error("Expected the manual refresh to finish before shutdown returns")
	}
}

func TestReportCommandPrintsJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Admissions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[
			{"id":1,"admissionDate":"2024-11-28T16:45:00","dischargeDate":"2024-11-28T23:56:00","patientID":2},
			{"id":2,"admissionDate":"2024-11-30T10:00:00","dischargeDate":"","patientID":1},
			{"id":3,"admissionDate":"2024-12-07T22:14:00","dischargeDate":"","patientID":3}
		]`))
	}))
	defer upstream.Close()

	t.Setenv("WARD_API_BASE_URL", upstream.URL)
	t.Setenv("ENV", "test")

	cmd := reportCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"busiest-month"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v (stderr: %s)", err, errOut.String())
	}

	var result map[string]int
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out.String(), err)
	}
	if len(result) != 1 || result["2024-11"] != 2 {
		t.Errorf("Expected {2024-11: 2}, got %v", result)
	}
}
