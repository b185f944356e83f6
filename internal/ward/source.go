package ward

import "context"

// Source defines the external system the record cache is filled from.
// Implementations talk to the ward REST API (see adapters/wardapi).
//
// The FetchAll methods return the complete current collection for one kind.
// A nil slice with a nil error means the source had nothing to report and
// callers should keep whatever they already hold.
//
// The by-id methods return (nil, nil) when the record does not exist.
type Source interface {
	FetchAllPatients(ctx context.Context) ([]Patient, error)
	FetchAllAdmissions(ctx context.Context) ([]Admission, error)
	FetchAllEmployees(ctx context.Context) ([]Employee, error)
	FetchAllAllocations(ctx context.Context) ([]Allocation, error)

	FetchPatient(ctx context.Context, id int) (*Patient, error)
	FetchAdmission(ctx context.Context, id int) (*Admission, error)
	FetchEmployee(ctx context.Context, id int) (*Employee, error)
	FetchAllocation(ctx context.Context, id int) (*Allocation, error)
}
