package remote

import (
	"context"
	"time"

	"netsync/core/metrics"
)

// InstrumentedStore records call counts and latency for every call made
// through it.
type InstrumentedStore struct {
	inner   Store
	metrics *metrics.Collector
}

// NewInstrumentedStore wraps inner. A nil collector disables recording.
func NewInstrumentedStore(inner Store, m *metrics.Collector) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: m}
}

func (s *InstrumentedStore) List(ctx context.Context, kind Kind, filter Filter) ([]Object, error) {
	start := time.Now()
	objs, err := s.inner.List(ctx, kind, filter)
	s.metrics.ObserveCall("list", string(kind), start, err)
	return objs, err
}

func (s *InstrumentedStore) BulkCreate(ctx context.Context, kind Kind, items []Fields) ([]int64, error) {
	start := time.Now()
	ids, err := s.inner.BulkCreate(ctx, kind, items)
	s.metrics.ObserveCall("bulk_create", string(kind), start, err)
	return ids, err
}

func (s *InstrumentedStore) BulkUpdate(ctx context.Context, kind Kind, patches []Patch) error {
	start := time.Now()
	err := s.inner.BulkUpdate(ctx, kind, patches)
	s.metrics.ObserveCall("bulk_update", string(kind), start, err)
	return err
}

func (s *InstrumentedStore) BulkDelete(ctx context.Context, kind Kind, ids []int64) error {
	start := time.Now()
	err := s.inner.BulkDelete(ctx, kind, ids)
	s.metrics.ObserveCall("bulk_delete", string(kind), start, err)
	return err
}

func (s *InstrumentedStore) Create(ctx context.Context, kind Kind, item Fields) (int64, error) {
	start := time.Now()
	id, err := s.inner.Create(ctx, kind, item)
	s.metrics.ObserveCall("create", string(kind), start, err)
	return id, err
}

func (s *InstrumentedStore) Update(ctx context.Context, kind Kind, patch Patch) error {
	start := time.Now()
	err := s.inner.Update(ctx, kind, patch)
	s.metrics.ObserveCall("update", string(kind), start, err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, kind Kind, id int64) error {
	start := time.Now()
	err := s.inner.Delete(ctx, kind, id)
	s.metrics.ObserveCall("delete", string(kind), start, err)
	return err
}

func (s *InstrumentedStore) GetOrCreate(ctx context.Context, kind Kind, key string, extra Fields) (int64, error) {
	start := time.Now()
	id, err := s.inner.GetOrCreate(ctx, kind, key, extra)
	s.metrics.ObserveCall("get_or_create", string(kind), start, err)
	return id, err
}

var _ Store = (*InstrumentedStore)(nil)
