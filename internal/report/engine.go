package report

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/maternity-ward/reporting/internal/shared/metrics"
	"github.com/maternity-ward/reporting/internal/ward"
)

// ReadmissionWindowDays is the largest discharge-to-readmission gap, in
// whole days, that counts as a readmission.
const ReadmissionWindowDays = 7

// Report names used for metrics and logs
const (
	ReportNeverAdmitted = "never_admitted"
	ReportReadmitted    = "readmitted_within_7_days"
	ReportBusiestMonth  = "month_with_most_admissions"
	ReportMultipleStaff = "multiple_staff"
)

// Records is the read side of the record cache the reports work on
type Records interface {
	Patients(ctx context.Context) ([]ward.Patient, error)
	Admissions(ctx context.Context) ([]ward.Admission, error)
	Allocations(ctx context.Context) ([]ward.Allocation, error)
}

// Engine derives the ward reports from cached records.
// Read failures from Records are returned unchanged; bad timestamps inside
// individual records only drop those records from a report.
type Engine struct {
	records Records
	logger  zerolog.Logger
}

// NewEngine creates a report engine over records
func NewEngine(records Records, logger zerolog.Logger) *Engine {
	return &Engine{
		records: records,
		logger:  logger.With().Str("component", "report_engine").Logger(),
	}
}

// PatientsNeverAdmitted returns the patients with no admission at all, in
// patient order.
func (e *Engine) PatientsNeverAdmitted(ctx context.Context) ([]ward.Patient, error) {
	defer observe(ReportNeverAdmitted, time.Now())

	patients, err := e.records.Patients(ctx)
	if err != nil {
		return nil, err
	}
	admissions, err := e.records.Admissions(ctx)
	if err != nil {
		return nil, err
	}

	admitted := make(map[int]struct{}, len(admissions))
	for _, a := range admissions {
		admitted[a.PatientID] = struct{}{}
	}

	return filterPatients(patients, func(id int) bool {
		_, ok := admitted[id]
		return !ok
	}), nil
}

// datedAdmission is an admission with its admission date parsed once
type datedAdmission struct {
	ward.Admission
	admitted   time.Time
	admittedOK bool
}

// PatientsReadmittedWithin7Days returns the patients who were admitted again
// no more than ReadmissionWindowDays after a discharge, in patient order.
func (e *Engine) PatientsReadmittedWithin7Days(ctx context.Context) ([]ward.Patient, error) {
	defer observe(ReportReadmitted, time.Now())

	admissions, err := e.records.Admissions(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := e.records.Patients(ctx)
	if err != nil {
		return nil, err
	}

	byPatient := make(map[int][]datedAdmission)
	for _, a := range admissions {
		d := datedAdmission{Admission: a}
		t, ok, perr := ward.ParseTimestamp(a.AdmissionDate)
		if perr != nil {
			e.skip(ReportReadmitted, "unparseable_admission_date", a, perr)
		}
		d.admitted, d.admittedOK = t, ok
		byPatient[a.PatientID] = append(byPatient[a.PatientID], d)
	}

	readmitted := make(map[int]struct{})
	for patientID, stays := range byPatient {
		if len(stays) < 2 {
			continue
		}
		if e.hasReadmission(sortByAdmission(stays)) {
			readmitted[patientID] = struct{}{}
		}
	}

	return filterPatients(patients, func(id int) bool {
		_, ok := readmitted[id]
		return ok
	}), nil
}

// hasReadmission scans consecutive stays and stops at the first gap inside
// the readmission window.
func (e *Engine) hasReadmission(stays []datedAdmission) bool {
	for i := 0; i < len(stays)-1; i++ {
		current, next := stays[i], stays[i+1]

		if !current.Discharged() {
			continue
		}
		discharged, ok, err := ward.ParseTimestamp(current.DischargeDate)
		if err != nil {
			e.skip(ReportReadmitted, "unparseable_discharge_date", current.Admission, err)
			continue
		}
		if !ok || !next.admittedOK {
			continue
		}

		days := daysBetween(discharged, next.admitted)
		if days >= 0 && days <= ReadmissionWindowDays {
			return true
		}
	}
	return false
}

// sortByAdmission orders stays by admission date. Stays whose admission date
// could not be parsed keep their input order after all dated stays.
func sortByAdmission(stays []datedAdmission) []datedAdmission {
	sorted := slices.Clone(stays)
	slices.SortStableFunc(sorted, func(a, b datedAdmission) int {
		switch {
		case a.admittedOK && b.admittedOK:
			return a.admitted.Compare(b.admitted)
		case a.admittedOK:
			return -1
		case b.admittedOK:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

// daysBetween counts whole 24 hour days from start to end, truncated toward
// zero.
func daysBetween(start, end time.Time) int {
	return int(end.Sub(start) / (24 * time.Hour))
}

// yearMonth is a calendar month bucket
type yearMonth struct {
	year  int
	month time.Month
}

func (ym yearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.year, int(ym.month))
}

func (ym yearMonth) compare(other yearMonth) int {
	if c := cmp.Compare(ym.year, other.year); c != 0 {
		return c
	}
	return cmp.Compare(ym.month, other.month)
}

// MonthWithMostAdmissions returns a single entry map from "YYYY-MM" to the
// number of admissions in the busiest month. Equal counts resolve to the
// earliest month. The map is empty when no admission date parses.
func (e *Engine) MonthWithMostAdmissions(ctx context.Context) (map[string]int, error) {
	defer observe(ReportBusiestMonth, time.Now())

	admissions, err := e.records.Admissions(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[yearMonth]int)
	for _, a := range admissions {
		t, ok, perr := ward.ParseTimestamp(a.AdmissionDate)
		if perr != nil {
			e.logger.Warn().Int("admission_id", a.ID).Str("admission_date", a.AdmissionDate).Msg("skipping admission with unparseable date")
			metrics.RecordSkippedRecord(ReportBusiestMonth, "unparseable_admission_date")
			continue
		}
		if !ok {
			metrics.RecordSkippedRecord(ReportBusiestMonth, "missing_admission_date")
			continue
		}
		counts[yearMonth{year: t.Year(), month: t.Month()}]++
	}

	result := make(map[string]int, 1)
	var (
		best      yearMonth
		bestCount int
	)
	for ym, count := range counts {
		if count > bestCount || (count == bestCount && ym.compare(best) < 0) {
			best, bestCount = ym, count
		}
	}
	if bestCount > 0 {
		result[best.String()] = bestCount
	}
	return result, nil
}

// PatientsWithMultipleStaff returns the patients who had more than one
// distinct employee allocated to at least one of their admissions, in patient
// order.
func (e *Engine) PatientsWithMultipleStaff(ctx context.Context) ([]ward.Patient, error) {
	defer observe(ReportMultipleStaff, time.Now())

	admissions, err := e.records.Admissions(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := e.records.Patients(ctx)
	if err != nil {
		return nil, err
	}
	allocations, err := e.records.Allocations(ctx)
	if err != nil {
		return nil, err
	}

	staffByAdmission := make(map[int]map[int]struct{})
	for _, a := range allocations {
		staff, ok := staffByAdmission[a.AdmissionID]
		if !ok {
			staff = make(map[int]struct{})
			staffByAdmission[a.AdmissionID] = staff
		}
		staff[a.EmployeeID] = struct{}{}
	}

	multiStaffPatients := make(map[int]struct{})
	for _, a := range admissions {
		if len(staffByAdmission[a.ID]) > 1 {
			multiStaffPatients[a.PatientID] = struct{}{}
		}
	}

	return filterPatients(patients, func(id int) bool {
		_, ok := multiStaffPatients[id]
		return ok
	}), nil
}

func (e *Engine) skip(report, reason string, a ward.Admission, err error) {
	metrics.RecordSkippedRecord(report, reason)
	e.logger.Debug().Err(err).Int("admission_id", a.ID).Str("reason", reason).Msg("record skipped")
}

// filterPatients keeps the patients whose id passes keep, preserving order.
// The result is never nil so it encodes as an empty JSON array.
func filterPatients(patients []ward.Patient, keep func(id int) bool) []ward.Patient {
	result := make([]ward.Patient, 0)
	for _, p := range patients {
		if keep(p.ID) {
			result = append(result, p)
		}
	}
	return result
}

func observe(report string, start time.Time) {
	metrics.RecordReport(report, time.Since(start))
}
