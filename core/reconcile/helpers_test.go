package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"netsync/core/remote"

	"github.com/stretchr/testify/require"
)

// testRecord is a minimal interface-like record.
type testRecord struct {
	id       string
	values   map[string]any
	requires []string
}

func (r testRecord) Identity() string      { return r.id }
func (r testRecord) Values() map[string]any { return r.values }
func (r testRecord) Requires() []string     { return r.requires }

func rec(id string, kv ...any) testRecord {
	r := testRecord{id: id, values: map[string]any{"name": id}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.values[kv[i].(string)] = kv[i+1]
	}
	if lag, ok := r.values["lag"].(string); ok && lag != "" {
		r.requires = []string{lag}
	}
	return r
}

func view(id int64, key string, kv ...any) View {
	v := View{RemoteID: id, Key: key, Fields: map[string]any{"name": key}}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Fields[kv[i].(string)] = kv[i+1]
	}
	return v
}

func records(rs ...testRecord) []Record {
	out := make([]Record, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

func identities(items []ChangeItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Identity
	}
	return out
}

// ifaceApplier writes testRecords as interfaces of one device. The "lag"
// value is resolved to "lag_id".
type ifaceApplier struct {
	device int64
}

func (a ifaceApplier) Kind() remote.Kind { return remote.KindInterface }

func (a ifaceApplier) CreatePayload(ctx context.Context, item ChangeItem, ids IDs) (remote.Fields, error) {
	f := remote.Fields{"device_id": a.device}
	for k, v := range item.Local.Values() {
		if k == "lag" {
			continue
		}
		f[k] = v
	}
	if dep, ok := item.Local.(Dependent); ok {
		for _, lag := range dep.Requires() {
			id, err := ids.Require(item.Identity, lag)
			if err != nil {
				return nil, err
			}
			f["lag_id"] = id
		}
	}
	return f, nil
}

func (a ifaceApplier) UpdatePayload(ctx context.Context, item ChangeItem, ids IDs) (remote.Fields, error) {
	f := remote.Fields{}
	for _, c := range item.Changes {
		if c.Field == "lag" {
			name, _ := c.New.(string)
			if name == "" {
				f["lag_id"] = nil
				continue
			}
			id, err := ids.Require(item.Identity, name)
			if err != nil {
				return nil, err
			}
			f["lag_id"] = id
			continue
		}
		f[c.Field] = c.New
	}
	return f, nil
}

// project builds interface projections of device from store, resolving
// lag_id to the LAG name.
func project(t *testing.T, store remote.Store, device int64) []Projection {
	t.Helper()
	objs, err := store.List(context.Background(), remote.KindInterface, remote.Filter{"device_id": device})
	require.NoError(t, err)
	names := make(map[int64]string, len(objs))
	for _, obj := range objs {
		names[obj.ID] = obj.Fields.String("name")
	}
	out := make([]Projection, 0, len(objs))
	for _, obj := range objs {
		fields := map[string]any{
			"name":        obj.Fields.String("name"),
			"description": obj.Fields["description"],
			"mtu":         obj.Fields["mtu"],
		}
		if lag := obj.Fields.Int("lag_id"); lag != 0 {
			fields["lag"] = names[lag]
		} else {
			fields["lag"] = ""
		}
		out = append(out, View{RemoteID: obj.ID, Key: obj.Fields.String("name"), Fields: fields})
	}
	return out
}

// newDevice creates a memory store holding one device.
func newDevice(t *testing.T) (*remote.MemoryStore, int64) {
	t.Helper()
	store := remote.NewMemoryStore()
	dev, err := store.Create(context.Background(), remote.KindDevice, remote.Fields{"name": "sw1"})
	require.NoError(t, err)
	return store, dev
}

var errBadGateway = errors.New("bad gateway")

// flakyBulkStore fails every bulk call with a transport error.
type flakyBulkStore struct {
	*remote.MemoryStore
	bulkCalls int
	itemCalls int
}

func (s *flakyBulkStore) BulkCreate(ctx context.Context, kind remote.Kind, items []remote.Fields) ([]int64, error) {
	s.bulkCalls++
	return nil, &remote.TransportError{Op: "bulk create", Status: 502, Err: errBadGateway}
}

func (s *flakyBulkStore) BulkUpdate(ctx context.Context, kind remote.Kind, patches []remote.Patch) error {
	s.bulkCalls++
	return &remote.TransportError{Op: "bulk update", Status: 502, Err: errBadGateway}
}

func (s *flakyBulkStore) BulkDelete(ctx context.Context, kind remote.Kind, ids []int64) error {
	s.bulkCalls++
	return &remote.TransportError{Op: "bulk delete", Status: 502, Err: errBadGateway}
}

func (s *flakyBulkStore) Create(ctx context.Context, kind remote.Kind, item remote.Fields) (int64, error) {
	s.itemCalls++
	return s.MemoryStore.Create(ctx, kind, item)
}

// rejectStore rejects creates of objects whose name has the given prefix.
type rejectStore struct {
	*remote.MemoryStore
	prefix string
}

func (s *rejectStore) check(kind remote.Kind, item remote.Fields) error {
	if strings.HasPrefix(item.String("name"), s.prefix) {
		return &remote.ValidationError{Kind: kind, Field: "name", Message: "rejected"}
	}
	return nil
}

func (s *rejectStore) BulkCreate(ctx context.Context, kind remote.Kind, items []remote.Fields) ([]int64, error) {
	for _, item := range items {
		if err := s.check(kind, item); err != nil {
			return nil, err
		}
	}
	return s.MemoryStore.BulkCreate(ctx, kind, items)
}

func (s *rejectStore) Create(ctx context.Context, kind remote.Kind, item remote.Fields) (int64, error) {
	if err := s.check(kind, item); err != nil {
		return 0, err
	}
	return s.MemoryStore.Create(ctx, kind, item)
}

// shortBulkStore creates every item of a bulk call but reports only the
// first id.
type shortBulkStore struct {
	*remote.MemoryStore
	itemCalls int
}

func (s *shortBulkStore) BulkCreate(ctx context.Context, kind remote.Kind, items []remote.Fields) ([]int64, error) {
	ids, err := s.MemoryStore.BulkCreate(ctx, kind, items)
	if err != nil || len(ids) == 0 {
		return ids, err
	}
	return ids[:1], nil
}

func (s *shortBulkStore) Create(ctx context.Context, kind remote.Kind, item remote.Fields) (int64, error) {
	s.itemCalls++
	return s.MemoryStore.Create(ctx, kind, item)
}
