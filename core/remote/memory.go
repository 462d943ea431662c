package remote

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MemoryStore is an in-process system of record. It enforces the same
// validation rules as a real binding (required fields, uniqueness, reference
// integrity) and applies bulk calls atomically, so it is suitable both for
// tests and for dry experiments against a scratch inventory.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	objects map[int64]Object
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[int64]Object)}
}

// requiredFields lists the fields a create payload must carry per kind.
var requiredFields = map[Kind][]string{
	KindDevice:    {"name"},
	KindInterface: {"device_id", "name"},
	KindVLAN:      {"vid"},
	KindAddress:   {"address"},
	KindInventory: {"device_id", "name"},
	KindMAC:       {"mac_address"},
	KindCable:     {"a_interface_id", "b_interface_id"},
}

// List returns every object of kind matching filter, ordered by id.
func (s *MemoryStore) List(ctx context.Context, kind Kind, filter Filter) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Object
	for _, obj := range s.objects {
		if obj.Kind != kind || !filter.Match(obj) {
			continue
		}
		out = append(out, Object{ID: obj.ID, Kind: obj.Kind, Fields: obj.Fields.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns one object by id.
func (s *MemoryStore) Get(id int64) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[id]
	if !ok {
		return Object{}, false
	}
	return Object{ID: obj.ID, Kind: obj.Kind, Fields: obj.Fields.Clone()}, true
}

// Len returns the number of stored objects of kind.
func (s *MemoryStore) Len(kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, obj := range s.objects {
		if obj.Kind == kind {
			n++
		}
	}
	return n
}

// BulkCreate validates every item before creating any of them.
func (s *MemoryStore) BulkCreate(ctx context.Context, kind Kind, items []Fields) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]struct{}, len(items))
	for i, item := range items {
		if err := s.validateCreate(kind, item, staged); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, s.insert(kind, item))
	}
	return ids, nil
}

// Create creates one object.
func (s *MemoryStore) Create(ctx context.Context, kind Kind, item Fields) (int64, error) {
	ids, err := s.BulkCreate(ctx, kind, []Fields{item})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// BulkUpdate validates every patch before applying any of them.
func (s *MemoryStore) BulkUpdate(ctx context.Context, kind Kind, patches []Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range patches {
		if err := s.validateUpdate(kind, p); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	for _, p := range patches {
		obj := s.objects[p.ID]
		for k, v := range p.Fields {
			obj.Fields[k] = v
		}
		s.objects[p.ID] = obj
	}
	return nil
}

// Update applies one patch.
func (s *MemoryStore) Update(ctx context.Context, kind Kind, patch Patch) error {
	return s.BulkUpdate(ctx, kind, []Patch{patch})
}

// BulkDelete removes every id or none of them.
func (s *MemoryStore) BulkDelete(ctx context.Context, kind Kind, ids []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		obj, ok := s.objects[id]
		if !ok || obj.Kind != kind {
			return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
		}
	}
	for _, id := range ids {
		delete(s.objects, id)
	}
	return nil
}

// Delete removes one object.
func (s *MemoryStore) Delete(ctx context.Context, kind Kind, id int64) error {
	return s.BulkDelete(ctx, kind, []int64{id})
}

// GetOrCreate returns the reference object whose key field equals key.
func (s *MemoryStore) GetOrCreate(ctx context.Context, kind Kind, key string, extra Fields) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(key) == "" {
		return 0, &ValidationError{Kind: kind, Field: KeyField(kind), Message: "key must not be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := referenceItem(kind, key, extra)
	if err != nil {
		return 0, err
	}
	want := uniqueKey(kind, item)
	if want == "" {
		return 0, &ValidationError{Kind: kind, Message: "kind has no natural key"}
	}
	for _, obj := range s.objects {
		if obj.Kind == kind && uniqueKey(kind, obj.Fields) == want {
			return obj.ID, nil
		}
	}
	if err := s.validateCreate(kind, item, nil); err != nil {
		return 0, err
	}
	return s.insert(kind, item), nil
}

func (s *MemoryStore) insert(kind Kind, item Fields) int64 {
	s.nextID++
	s.objects[s.nextID] = Object{ID: s.nextID, Kind: kind, Fields: item.Clone()}
	return s.nextID
}

func (s *MemoryStore) validateCreate(kind Kind, item Fields, staged map[string]struct{}) error {
	for _, f := range requiredFields[kind] {
		if missing(item, f) {
			return &ValidationError{Kind: kind, Field: f, Message: "this field is required"}
		}
	}
	if err := s.validateRefs(kind, item); err != nil {
		return err
	}
	if kind == KindCable {
		if err := s.validateCableEnds(item, 0); err != nil {
			return err
		}
	}
	key := uniqueKey(kind, item)
	if key == "" {
		return nil
	}
	if _, dup := staged[key]; dup {
		return &ValidationError{Kind: kind, Message: "duplicate object in request: " + key}
	}
	for _, obj := range s.objects {
		if obj.Kind == kind && uniqueKey(kind, obj.Fields) == key {
			return &ValidationError{Kind: kind, Message: fmt.Sprintf("object already exists (id %d): %s", obj.ID, key)}
		}
	}
	if staged != nil {
		staged[key] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) validateUpdate(kind Kind, p Patch) error {
	obj, ok := s.objects[p.ID]
	if !ok || obj.Kind != kind {
		return fmt.Errorf("%s %d: %w", kind, p.ID, ErrNotFound)
	}
	if err := s.validateRefs(kind, p.Fields); err != nil {
		return err
	}
	merged := obj.Fields.Clone()
	for k, v := range p.Fields {
		merged[k] = v
	}
	for _, f := range requiredFields[kind] {
		if missing(merged, f) {
			return &ValidationError{Kind: kind, Field: f, Message: "this field is required"}
		}
	}
	if kind == KindCable {
		if err := s.validateCableEnds(merged, p.ID); err != nil {
			return err
		}
	}
	key := uniqueKey(kind, merged)
	if key == "" {
		return nil
	}
	for _, other := range s.objects {
		if other.ID != p.ID && other.Kind == kind && uniqueKey(kind, other.Fields) == key {
			return &ValidationError{Kind: kind, Message: fmt.Sprintf("object already exists (id %d): %s", other.ID, key)}
		}
	}
	return nil
}

// validateRefs checks that every "_id" field points at an existing object.
// Zero and nil mean unset.
func (s *MemoryStore) validateRefs(kind Kind, item Fields) error {
	for k, v := range item {
		if !strings.HasSuffix(k, "_id") || v == nil {
			continue
		}
		id := item.Int(k)
		if id == 0 {
			continue
		}
		if _, ok := s.objects[id]; !ok || id < 0 {
			return &ValidationError{Kind: kind, Field: k, Message: fmt.Sprintf("related object %d does not exist", id)}
		}
	}
	return nil
}

// validateCableEnds rejects a cable whose interfaces are already cabled.
func (s *MemoryStore) validateCableEnds(item Fields, self int64) error {
	ends := map[int64]struct{}{item.Int("a_interface_id"): {}, item.Int("b_interface_id"): {}}
	for _, obj := range s.objects {
		if obj.Kind != KindCable || obj.ID == self {
			continue
		}
		for _, f := range []string{"a_interface_id", "b_interface_id"} {
			if _, taken := ends[obj.Fields.Int(f)]; taken {
				return &ValidationError{Kind: KindCable, Field: f, Message: fmt.Sprintf("interface %d is already cabled", obj.Fields.Int(f))}
			}
		}
	}
	return nil
}

// uniqueKey returns the natural uniqueness key of an object, "" when the
// kind has no uniqueness constraint.
func uniqueKey(kind Kind, f Fields) string {
	lower := func(name string) string { return strings.ToLower(f.String(name)) }
	switch kind {
	case KindDevice:
		return lower("name")
	case KindInterface, KindInventory:
		return fmt.Sprintf("%d|%s", f.Int("device_id"), lower("name"))
	case KindVLAN:
		return fmt.Sprintf("%d|%d", f.Int("site_id"), f.Int("vid"))
	case KindMAC:
		return fmt.Sprintf("%d|%s|%d|%d", f.Int("device_id"), lower("mac_address"), f.Int("vlan"), f.Int("interface_id"))
	case KindSite, KindRole, KindManufacturer, KindDeviceType, KindPlatform, KindTenant:
		return lower("name")
	default:
		return ""
	}
}

// referenceItem builds the create payload of a reference object.
func referenceItem(kind Kind, key string, extra Fields) (Fields, error) {
	item := extra.Clone()
	if kind == KindVLAN {
		vid, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, &ValidationError{Kind: kind, Field: "vid", Message: "not a number: " + key}
		}
		item["vid"] = vid
		return item, nil
	}
	item[KeyField(kind)] = key
	return item, nil
}

func missing(item Fields, field string) bool {
	if strings.HasSuffix(field, "_id") {
		return item.Int(field) <= 0
	}
	return isEmpty(item[field])
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

var _ Store = (*MemoryStore)(nil)
