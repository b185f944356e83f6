package lookup

import (
	"context"

	"github.com/maternity-ward/reporting/internal/ward"
)

// PatientDetail is a patient with every admission recorded for it
type PatientDetail struct {
	ward.Patient
	Admissions []ward.Admission `json:"admissions"`
}

// AdmissionDetail is an admission with its patient and staff allocations.
// Patient is nil when the admission points at an unknown patient.
type AdmissionDetail struct {
	ward.Admission
	Patient     *ward.Patient      `json:"patient"`
	Allocations []AllocationDetail `json:"allocations"`
}

// AllocationDetail is a staff allocation with its employee.
// Employee is nil when the allocation points at an unknown employee.
type AllocationDetail struct {
	ward.Allocation
	Employee *ward.Employee `json:"employee"`
	Ongoing  bool           `json:"ongoing"`
}

func (h *Handler) patientDetail(ctx context.Context, patient *ward.Patient) (*PatientDetail, error) {
	admissions, err := h.collections.Admissions(ctx)
	if err != nil {
		return nil, err
	}

	detail := &PatientDetail{Patient: *patient, Admissions: []ward.Admission{}}
	for _, a := range admissions {
		if a.PatientID == patient.ID {
			detail.Admissions = append(detail.Admissions, a)
		}
	}
	return detail, nil
}

func (h *Handler) admissionDetail(ctx context.Context, admission *ward.Admission) (*AdmissionDetail, error) {
	patients, err := h.collections.Patients(ctx)
	if err != nil {
		return nil, err
	}
	allocations, err := h.collections.Allocations(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := h.collections.Employees(ctx)
	if err != nil {
		return nil, err
	}

	detail := &AdmissionDetail{Admission: *admission, Allocations: []AllocationDetail{}}
	for i := range patients {
		if patients[i].ID == admission.PatientID {
			p := patients[i]
			detail.Patient = &p
			break
		}
	}

	staff := make(map[int]ward.Employee, len(employees))
	for _, e := range employees {
		staff[e.ID] = e
	}

	for _, a := range allocations {
		if a.AdmissionID != admission.ID {
			continue
		}
		item := AllocationDetail{Allocation: a, Ongoing: a.Ongoing()}
		if e, ok := staff[a.EmployeeID]; ok {
			item.Employee = &e
		}
		detail.Allocations = append(detail.Allocations, item)
	}
	return detail, nil
}
