package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/maternity-ward/reporting/internal/shared/metrics"
	"github.com/maternity-ward/reporting/internal/ward"
)

// ErrNoData is returned when the source answered without a collection
var ErrNoData = errors.New("source returned no data")

// FetchError is returned by a read when the slot has never been populated
// and the refresh triggered by that read failed.
type FetchError struct {
	Kind ward.Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s records: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchFunc loads the full collection for one record kind
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// snapshot is one published generation of a slot. It is never modified
// after Store.
type snapshot[T any] struct {
	records     []T
	refreshedAt time.Time
}

// Slot holds the current snapshot of one record kind.
// Readers always see a complete snapshot; refreshes publish a new one.
type Slot[T any] struct {
	kind    ward.Kind
	fetch   FetchFunc[T]
	logger  zerolog.Logger
	current atomic.Pointer[snapshot[T]]
}

// NewSlot creates an empty slot filled by fetch
func NewSlot[T any](kind ward.Kind, fetch func(context.Context) ([]T, error), logger zerolog.Logger) *Slot[T] {
	return &Slot[T]{
		kind:   kind,
		fetch:  fetch,
		logger: logger.With().Str("kind", string(kind)).Logger(),
	}
}

// Get returns the current snapshot, refreshing first when the slot has never
// been populated. The returned slice is shared and must not be modified.
func (s *Slot[T]) Get(ctx context.Context) ([]T, error) {
	if snap := s.current.Load(); snap != nil {
		return snap.records, nil
	}

	if err := s.refresh(ctx); err != nil {
		// A concurrent refresh may have succeeded in the meantime.
		if snap := s.current.Load(); snap != nil {
			return snap.records, nil
		}
		return nil, &FetchError{Kind: s.kind, Err: err}
	}

	return s.current.Load().records, nil
}

// Refresh replaces the snapshot with a fresh fetch. On failure the previous
// snapshot stays in place and the failure is only logged.
func (s *Slot[T]) Refresh(ctx context.Context) {
	_ = s.refresh(ctx)
}

func (s *Slot[T]) refresh(ctx context.Context) error {
	records, err := s.fetch(ctx)
	if err == nil && records == nil {
		err = ErrNoData
	}
	if err != nil {
		metrics.RecordCacheRefresh(string(s.kind), false, 0)
		s.logger.Warn().Err(err).Bool("populated", s.Populated()).Msg("refresh skipped, keeping stale data")
		return err
	}

	s.current.Store(&snapshot[T]{
		records:     slices.Clip(slices.Clone(records)),
		refreshedAt: time.Now().UTC(),
	})
	metrics.RecordCacheRefresh(string(s.kind), true, len(records))
	s.logger.Debug().Int("records", len(records)).Msg("cache refreshed")
	return nil
}

// Populated reports whether a snapshot has ever been published
func (s *Slot[T]) Populated() bool {
	return s.current.Load() != nil
}

// Status describes the slot without triggering a refresh
func (s *Slot[T]) Status() SlotStatus {
	status := SlotStatus{Kind: s.kind}
	if snap := s.current.Load(); snap != nil {
		status.Populated = true
		status.Records = len(snap.records)
		refreshedAt := snap.refreshedAt
		status.RefreshedAt = &refreshedAt
	}
	return status
}

// SlotStatus is a point-in-time description of one slot
type SlotStatus struct {
	Kind        ward.Kind  `json:"kind"`
	Populated   bool       `json:"populated"`
	Records     int        `json:"records"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}
