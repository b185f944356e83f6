package lookup

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/maternity-ward/reporting/internal/cache"
	"github.com/maternity-ward/reporting/internal/ward"
	"github.com/maternity-ward/reporting/internal/ward/wardtest"
)

func newTestServer(src *wardtest.Source) *httptest.Server {
	h := NewHandler(cache.New(src, zerolog.Nop()), src, zerolog.Nop())
	return httptest.NewServer(h.Routes())
}

func sampleSource() *wardtest.Source {
	return &wardtest.Source{
		Patients: []ward.Patient{
			{ID: 1, Surname: "Robinson", Forename: "Viv", NHSNumber: "1113335555"},
			{ID: 2, Surname: "Carter", Forename: "Heather", NHSNumber: "2224446666"},
		},
		Admissions: []ward.Admission{
			{ID: 1, PatientID: 2, AdmissionDate: "2024-11-28T16:45:00", DischargeDate: "2024-11-28T23:56:00"},
		},
		Employees:   []ward.Employee{{ID: 4, Surname: "Finley", Forename: "Sarah"}},
		Allocations: []ward.Allocation{},
	}
}

func TestListEndpoints(t *testing.T) {
	srv := newTestServer(sampleSource())
	defer srv.Close()

	tests := []struct {
		path  string
		total int
	}{
		{"/patients", 2},
		{"/admissions", 1},
		{"/employees", 1},
		{"/allocations", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", resp.StatusCode)
			}

			var body struct {
				Data  []json.RawMessage `json:"data"`
				Total int               `json:"total"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body.Total != tt.total || len(body.Data) != tt.total {
				t.Errorf("Expected %d records, got total=%d data=%d", tt.total, body.Total, len(body.Data))
			}
		})
	}
}

func TestListServedFromCache(t *testing.T) {
	src := sampleSource()
	srv := newTestServer(src)
	defer srv.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/patients")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
	}

	if calls := src.Calls(ward.KindPatient); calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", calls)
	}
}

func TestGetByID(t *testing.T) {
	srv := newTestServer(sampleSource())
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"patient found", "/patients/2", http.StatusOK},
		{"admission found", "/admissions/1", http.StatusOK},
		{"employee found", "/employees/4", http.StatusOK},
		{"patient missing", "/patients/99", http.StatusNotFound},
		{"allocation missing", "/allocations/1", http.StatusNotFound},
		{"non-numeric id", "/patients/abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
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

func TestGetPatientBody(t *testing.T) {
	srv := newTestServer(sampleSource())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/patients/1")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var patient ward.Patient
	if err := json.NewDecoder(resp.Body).Decode(&patient); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if patient.Surname != "Robinson" || patient.NHSNumber != "1113335555" {
		t.Errorf("Unexpected patient %+v", patient)
	}
}

func TestUpstreamFailures(t *testing.T) {
	src := sampleSource()
	src.EmployeesErr = errors.New("connection refused")
	srv := newTestServer(src)
	defer srv.Close()

	for _, path := range []string{"/employees", "/employees/4"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadGateway {
				t.Errorf("Expected status 502, got %d", resp.StatusCode)
			}
		})
	}
}

func detailSource() *wardtest.Source {
	src := sampleSource()
	src.Admissions = []ward.Admission{
		{ID: 1, PatientID: 2, AdmissionDate: "2024-11-28T16:45:00", DischargeDate: "2024-11-28T23:56:00"},
		{ID: 2, PatientID: 2, AdmissionDate: "2024-12-07T22:14:00"},
		{ID: 3, PatientID: 99, AdmissionDate: "2024-12-08T10:00:00"},
	}
	src.Allocations = []ward.Allocation{
		{ID: 1, AdmissionID: 1, EmployeeID: 4, StartTime: "2024-11-28T16:45:00", EndTime: "2024-11-28T23:56:00"},
		{ID: 2, AdmissionID: 1, EmployeeID: 50, StartTime: "2024-11-28T17:00:00"},
		{ID: 3, AdmissionID: 2, EmployeeID: 4, StartTime: "2024-12-07T22:14:00"},
	}
	return src
}

func getJSON(t *testing.T, url string, into any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
}

func TestPatientDetailListsAdmissions(t *testing.T) {
	srv := newTestServer(detailSource())
	defer srv.Close()

	var detail PatientDetail
	getJSON(t, srv.URL+"/patients/2", &detail)

	if detail.ID != 2 || detail.Surname != "Carter" {
		t.Errorf("Unexpected patient %+v", detail.Patient)
	}
	if len(detail.Admissions) != 2 || detail.Admissions[0].ID != 1 || detail.Admissions[1].ID != 2 {
		t.Errorf("Expected admissions 1 and 2, got %+v", detail.Admissions)
	}
}

func TestPatientDetailWithoutAdmissions(t *testing.T) {
	srv := newTestServer(detailSource())
	defer srv.Close()

	var raw map[string]json.RawMessage
	getJSON(t, srv.URL+"/patients/1", &raw)

	if string(raw["admissions"]) != "[]" {
		t.Errorf("Expected empty admissions list, got %s", raw["admissions"])
	}
}

func TestAdmissionDetailJoinsPatientAndStaff(t *testing.T) {
	srv := newTestServer(detailSource())
	defer srv.Close()

	var detail AdmissionDetail
	getJSON(t, srv.URL+"/admissions/1", &detail)

	if detail.ID != 1 || detail.PatientID != 2 {
		t.Errorf("Unexpected admission %+v", detail.Admission)
	}
	if detail.Patient == nil || detail.Patient.Forename != "Heather" {
		t.Errorf("Expected patient Heather, got %+v", detail.Patient)
	}
	if len(detail.Allocations) != 2 {
		t.Fatalf("Expected 2 allocations, got %d", len(detail.Allocations))
	}

	first, second := detail.Allocations[0], detail.Allocations[1]
	if first.Employee == nil || first.Employee.Surname != "Finley" || first.Ongoing {
		t.Errorf("Unexpected first allocation %+v", first)
	}
	if second.Employee != nil {
		t.Errorf("Unknown employee should be absent, got %+v", second.Employee)
	}
	if !second.Ongoing {
		t.Error("Allocation without end time should be ongoing")
	}
}

func TestAdmissionDetailUnknownPatient(t *testing.T) {
	srv := newTestServer(detailSource())
	defer srv.Close()

	var raw map[string]json.RawMessage
	getJSON(t, srv.URL+"/admissions/3", &raw)

	if string(raw["patient"]) != "null" {
		t.Errorf("Expected null patient, got %s", raw["patient"])
	}
	if string(raw["allocations"]) != "[]" {
		t.Errorf("Expected empty allocations, got %s", raw["allocations"])
	}
}

func TestDetailJoinFailureIsBadGateway(t *testing.T) {
	src := detailSource()
	src.AllocationsErr = errors.New("connection refused")
	srv := newTestServer(src)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admissions/1")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", resp.StatusCode)
	}
}
