package remote

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// DryRunStore is the mutation boundary of a dry run: reads go to the wrapped
// store, writes are recorded and answered with negative placeholder ids.
// Nothing reaches the wrapped store's mutating methods.
type DryRunStore struct {
	inner Store

	mu      sync.Mutex
	next    int64
	planned map[Kind]int
	refs    map[string]int64
}

// NewDryRunStore wraps inner for a dry run.
func NewDryRunStore(inner Store) *DryRunStore {
	return &DryRunStore{inner: inner, planned: make(map[Kind]int), refs: make(map[string]int64)}
}

// Placeholder reports whether id was handed out by a dry run.
func Placeholder(id int64) bool {
	return id < 0
}

func (s *DryRunStore) placeholder() int64 {
	s.next--
	return s.next
}

// Planned returns how many mutations of kind were suppressed.
func (s *DryRunStore) Planned(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planned[kind]
}

func (s *DryRunStore) List(ctx context.Context, kind Kind, filter Filter) ([]Object, error) {
	return s.inner.List(ctx, kind, filter)
}

func (s *DryRunStore) BulkCreate(ctx context.Context, kind Kind, items []Fields) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = s.placeholder()
	}
	s.planned[kind] += len(items)
	return ids, nil
}

func (s *DryRunStore) Create(ctx context.Context, kind Kind, item Fields) (int64, error) {
	ids, err := s.BulkCreate(ctx, kind, []Fields{item})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (s *DryRunStore) BulkUpdate(ctx context.Context, kind Kind, patches []Patch) error {
	return s.count(ctx, kind, len(patches))
}

func (s *DryRunStore) Update(ctx context.Context, kind Kind, patch Patch) error {
	return s.count(ctx, kind, 1)
}

func (s *DryRunStore) BulkDelete(ctx context.Context, kind Kind, ids []int64) error {
	return s.count(ctx, kind, len(ids))
}

func (s *DryRunStore) Delete(ctx context.Context, kind Kind, id int64) error {
	return s.count(ctx, kind, 1)
}

func (s *DryRunStore) count(ctx context.Context, kind Kind, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.planned[kind] += n
	s.mu.Unlock()
	return nil
}

// GetOrCreate looks the reference up with List and hands out a stable
// placeholder when it does not exist yet.
func (s *DryRunStore) GetOrCreate(ctx context.Context, kind Kind, key string, extra Fields) (int64, error) {
	if strings.TrimSpace(key) == "" {
		return 0, &ValidationError{Kind: kind, Field: KeyField(kind), Message: "key must not be empty"}
	}
	filter := Filter{}
	for k, v := range extra {
		if strings.HasSuffix(k, "_id") {
			filter[k] = v
		}
	}
	objs, err := s.inner.List(ctx, kind, filter)
	if err != nil {
		return 0, err
	}
	want := strings.ToLower(strings.TrimSpace(key))
	for _, obj := range objs {
		if NaturalKey(obj) == want {
			return obj.ID, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	scope := make([]string, 0, len(filter))
	for k := range filter {
		scope = append(scope, k+"="+Fields(filter).String(k))
	}
	sort.Strings(scope)
	ref := string(kind) + "|" + want + "|" + strings.Join(scope, ",")
	if id, ok := s.refs[ref]; ok {
		return id, nil
	}
	id := s.placeholder()
	s.refs[ref] = id
	s.planned[kind]++
	return id, nil
}

var _ Store = (*DryRunStore)(nil)
