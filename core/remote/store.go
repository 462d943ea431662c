package remote

import (
	"context"
	"strings"

	"netsync/core/utils"
)

// Kind names an entity collection in the system of record.
type Kind string

// Synchronized entity kinds.
const (
	KindDevice    Kind = "device"
	KindInterface Kind = "interface"
	KindMAC       Kind = "mac"
	KindCable     Kind = "cable"
	KindInventory Kind = "inventory"
	KindAddress   Kind = "address"
	KindVLAN      Kind = "vlan"
)

// Reference kinds, resolved with GetOrCreate.
const (
	KindSite         Kind = "site"
	KindRole         Kind = "role"
	KindManufacturer Kind = "manufacturer"
	KindDeviceType   Kind = "device_type"
	KindPlatform     Kind = "platform"
	KindTenant       Kind = "tenant"
)

// Fields is the payload of a remote object. Reference fields carry the
// referenced object id under a "_id" suffixed name (e.g. "device_id").
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Int returns the integer value of a field, 0 when absent.
func (f Fields) Int(name string) int64 {
	return utils.ToInt64(f[name])
}

// String returns the string value of a field, "" when absent.
func (f Fields) String(name string) string {
	return utils.ToString(f[name])
}

// Object is one record held by the system of record.
type Object struct {
	ID     int64  `json:"id"`
	Kind   Kind   `json:"kind"`
	Fields Fields `json:"fields"`
}

// Patch is one item of a bulk update: the object id plus the fields to set.
type Patch struct {
	ID     int64  `json:"id"`
	Fields Fields `json:"fields"`
}

// Filter restricts List to objects whose fields equal the given values.
// The "device_id" key also matches either endpoint of a cable.
type Filter map[string]any

// Match reports whether obj satisfies every condition of the filter.
func (f Filter) Match(obj Object) bool {
	for key, want := range f {
		if key == "device_id" && obj.Kind == KindCable {
			if equal(obj.Fields["a_device_id"], want) || equal(obj.Fields["b_device_id"], want) {
				continue
			}
			return false
		}
		if !equal(obj.Fields[key], want) {
			return false
		}
	}
	return true
}

// equal compares loosely typed field values: numbers by value, everything
// else by string form.
func equal(have, want any) bool {
	if isNumber(have) || isNumber(want) {
		hs, ws := utils.ToString(have), utils.ToString(want)
		if _, ok := utils.ParseInt(hs); ok {
			if _, ok := utils.ParseInt(ws); ok {
				return utils.ToInt64(have) == utils.ToInt64(want)
			}
		}
	}
	return utils.ToString(have) == utils.ToString(want)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// KeyField returns the field GetOrCreate matches its key against.
func KeyField(kind Kind) string {
	if kind == KindVLAN {
		return "vid"
	}
	return "name"
}

// NaturalKey is the value of KeyField for obj, case-folded.
func NaturalKey(obj Object) string {
	return strings.ToLower(obj.Fields.String(KeyField(obj.Kind)))
}

// Store is the system-of-record contract consumed by the reconciler.
// Implementations must be safe for concurrent use; pooling and rate limiting
// are their concern.
type Store interface {
	// List returns every object of kind matching filter.
	List(ctx context.Context, kind Kind, filter Filter) ([]Object, error)

	// BulkCreate creates all items in one call and returns their ids in order.
	// A failed bulk call creates nothing.
	BulkCreate(ctx context.Context, kind Kind, items []Fields) ([]int64, error)
	// BulkUpdate applies all patches in one call.
	BulkUpdate(ctx context.Context, kind Kind, patches []Patch) error
	// BulkDelete removes all ids in one call.
	BulkDelete(ctx context.Context, kind Kind, ids []int64) error

	// Create, Update and Delete are the per-item forms used as bulk fallback.
	Create(ctx context.Context, kind Kind, item Fields) (int64, error)
	Update(ctx context.Context, kind Kind, patch Patch) error
	Delete(ctx context.Context, kind Kind, id int64) error

	// GetOrCreate returns the id of the reference object whose key field
	// equals key, creating it with extra fields when missing.
	GetOrCreate(ctx context.Context, kind Kind, key string, extra Fields) (int64, error)
}
