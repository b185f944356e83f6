package cache

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/maternity-ward/reporting/internal/ward"
)

// RecordCache keeps the four ward collections in memory.
//
// Each kind lives in its own Slot and is refreshed independently, so a
// caller reading several kinds may see them from different refreshes.
type RecordCache struct {
	patients    *Slot[ward.Patient]
	admissions  *Slot[ward.Admission]
	employees   *Slot[ward.Employee]
	allocations *Slot[ward.Allocation]
	logger      zerolog.Logger
}

// New creates an empty cache backed by src
func New(src ward.Source, logger zerolog.Logger) *RecordCache {
	logger = logger.With().Str("component", "record_cache").Logger()
	return &RecordCache{
		patients:    NewSlot(ward.KindPatient, src.FetchAllPatients, logger),
		admissions:  NewSlot(ward.KindAdmission, src.FetchAllAdmissions, logger),
		employees:   NewSlot(ward.KindEmployee, src.FetchAllEmployees, logger),
		allocations: NewSlot(ward.KindAllocation, src.FetchAllAllocations, logger),
		logger:      logger,
	}
}

func (c *RecordCache) Patients(ctx context.Context) ([]ward.Patient, error) {
	return c.patients.Get(ctx)
}

func (c *RecordCache) Admissions(ctx context.Context) ([]ward.Admission, error) {
	return c.admissions.Get(ctx)
}

func (c *RecordCache) Employees(ctx context.Context) ([]ward.Employee, error) {
	return c.employees.Get(ctx)
}

func (c *RecordCache) Allocations(ctx context.Context) ([]ward.Allocation, error) {
	return c.allocations.Get(ctx)
}

func (c *RecordCache) RefreshPatients(ctx context.Context)    { c.patients.Refresh(ctx) }
func (c *RecordCache) RefreshAdmissions(ctx context.Context)  { c.admissions.Refresh(ctx) }
func (c *RecordCache) RefreshEmployees(ctx context.Context)   { c.employees.Refresh(ctx) }
func (c *RecordCache) RefreshAllocations(ctx context.Context) { c.allocations.Refresh(ctx) }

// RefreshAll refreshes every slot regardless of its state. Failures are
// logged per slot and never returned.
func (c *RecordCache) RefreshAll(ctx context.Context) {
	c.RefreshPatients(ctx)
	c.RefreshAdmissions(ctx)
	c.RefreshEmployees(ctx)
	c.RefreshAllocations(ctx)
	c.logger.Info().Msg("full cache refresh finished")
}

// Status returns the state of every slot in ward.Kinds order
func (c *RecordCache) Status() []SlotStatus {
	return []SlotStatus{
		c.patients.Status(),
		c.admissions.Status(),
		c.employees.Status(),
		c.allocations.Status(),
	}
}

// Ready reports whether every slot holds a snapshot
func (c *RecordCache) Ready() bool {
	return c.patients.Populated() &&
		c.admissions.Populated() &&
		c.employees.Populated() &&
		c.allocations.Populated()
}
