// Package wardtest provides an in-memory ward.Source for tests.
package wardtest

import (
	"context"
	"sync"

	"github.com/maternity-ward/reporting/internal/ward"
)

// Source is a ward.Source backed by plain slices.
// Setting an Err field makes the matching fetches fail.
type Source struct {
	mu sync.Mutex

	Patients    []ward.Patient
	Admissions  []ward.Admission
	Employees   []ward.Employee
	Allocations []ward.Allocation

	PatientsErr    error
	AdmissionsErr  error
	EmployeesErr   error
	AllocationsErr error

	calls map[ward.Kind]int
}

var _ ward.Source = (*Source)(nil)

// Calls returns how many FetchAll calls were made for kind
func (s *Source) Calls(kind ward.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

// Update runs fn with the source locked, for changing data between fetches
func (s *Source) Update(fn func(s *Source)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *Source) count(kind ward.Kind) {
	if s.calls == nil {
		s.calls = make(map[ward.Kind]int)
	}
	s.calls[kind]++
}

func (s *Source) FetchAllPatients(ctx context.Context) ([]ward.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(ward.KindPatient)
	if s.PatientsErr != nil {
		return nil, s.PatientsErr
	}
	return s.Patients, nil
}

func (s *Source) FetchAllAdmissions(ctx context.Context) ([]ward.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(ward.KindAdmission)
	if s.AdmissionsErr != nil {
		return nil, s.AdmissionsErr
	}
	return s.Admissions, nil
}

func (s *Source) FetchAllEmployees(ctx context.Context) ([]ward.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(ward.KindEmployee)
	if s.EmployeesErr != nil {
		return nil, s.EmployeesErr
	}
	return s.Employees, nil
}

func (s *Source) FetchAllAllocations(ctx context.Context) ([]ward.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(ward.KindAllocation)
	if s.AllocationsErr != nil {
		return nil, s.AllocationsErr
	}
	return s.Allocations, nil
}

func (s *Source) FetchPatient(ctx context.Context, id int) (*ward.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PatientsErr != nil {
		return nil, s.PatientsErr
	}
	for _, p := range s.Patients {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Source) FetchAdmission(ctx context.Context, id int) (*ward.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AdmissionsErr != nil {
		return nil, s.AdmissionsErr
	}
	for _, a := range s.Admissions {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *Source) FetchEmployee(ctx context.Context, id int) (*ward.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EmployeesErr != nil {
		return nil, s.EmployeesErr
	}
	for _, e := range s.Employees {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Source) FetchAllocation(ctx context.Context, id int) (*ward.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AllocationsErr != nil {
		return nil, s.AllocationsErr
	}
	for _, a := range s.Allocations {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}
