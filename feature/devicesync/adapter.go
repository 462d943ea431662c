package devicesync

import (
	"context"

	"netsync/core/reconcile"
	"netsync/core/remote"
)

// Adapter binds one entity kind of a run to the remote store: it builds the
// local records and remote projections Compare needs and the payloads the
// Executor sends.
type Adapter interface {
	reconcile.Applier

	// Fields is the default list of diffed fields.
	Fields() []string
	// Comparators overrides field equality.
	Comparators() map[string]reconcile.Comparator
	// Records normalizes the snapshot records of the kind.
	Records(ctx context.Context) ([]reconcile.Record, error)
	// Projections reads the remote objects of the kind in the run's scope.
	Projections(ctx context.Context) ([]reconcile.Projection, error)
	// Commit records the id of an object created by the run.
	Commit(identity string, id int64)
}

// Keeper is implemented by adapters whose cleanup must spare some remote
// objects. Keep maps their identities to the skip reason.
type Keeper interface {
	Keep(ctx context.Context) (map[string]string, error)
}

// Factory creates the adapter of one kind for a run.
type Factory func(run *Run) Adapter

// DefaultAdapters returns every kind in dependency order: the device first,
// links between devices last.
func DefaultAdapters() []Factory {
	return []Factory{
		newDeviceAdapter,
		newVlanAdapter,
		newInterfaceAdapter,
		newAddressAdapter,
		newInventoryAdapter,
		newMACAdapter,
		newCableAdapter,
	}
}

// updateValues collects the new values of an update's changes.
func updateValues(item reconcile.ChangeItem) map[string]any {
	out := make(map[string]any, len(item.Changes))
	for _, c := range item.Changes {
		out[c.Field] = c.New
	}
	return out
}

// copyFields copies the named values that are present.
func copyFields(dst remote.Fields, values map[string]any, names ...string) {
	for _, n := range names {
		if v, ok := values[n]; ok {
			dst[n] = v
		}
	}
}

// records converts a slice of concrete records.
func records[T reconcile.Record](in []T) []reconcile.Record {
	out := make([]reconcile.Record, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

// noCommit is embedded by kinds nothing else references.
type noCommit struct{}

func (noCommit) Commit(string, int64) {}
