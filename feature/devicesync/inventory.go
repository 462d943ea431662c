package devicesync

import (
	"context"
	"strings"

	"netsync/core/normalize"
	"netsync/core/reconcile"
	"netsync/core/remote"
)

type inventoryAdapter struct {
	noCommit
	run *Run
}

func newInventoryAdapter(run *Run) Adapter {
	return &inventoryAdapter{run: run}
}

func (a *inventoryAdapter) Kind() remote.Kind { return remote.KindInventory }

func (a *inventoryAdapter) Fields() []string {
	return []string{"part_id", "serial", "manufacturer", "description"}
}

func (a *inventoryAdapter) Comparators() map[string]reconcile.Comparator {
	return map[string]reconcile.Comparator{
		"part_id":      reconcile.Exact,
		"serial":       reconcile.Exact,
		"manufacturer": reconcile.FoldCase,
		"description":  reconcile.Exact,
	}
}

func (a *inventoryAdapter) Records(ctx context.Context) ([]reconcile.Record, error) {
	out := make([]normalize.InventoryItem, 0, len(a.run.Snapshot.Inventory))
	for _, raw := range a.run.Snapshot.Inventory {
		out = append(out, normalize.NewInventoryItem(raw))
	}
	return records(out), nil
}

func (a *inventoryAdapter) Projections(ctx context.Context) ([]reconcile.Projection, error) {
	ns := a.run.scoped(remote.KindInventory, func(o remote.Object) string { return strings.ToLower(o.Fields.String("name")) })
	objs, err := a.run.Cache.Objects(ctx, ns)
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Projection, 0, len(objs))
	for _, obj := range objs {
		mfr, err := a.run.refName(ctx, remote.KindManufacturer, obj.Fields.Int("manufacturer_id"))
		if err != nil {
			return nil, err
		}
		name := obj.Fields.String("name")
		out = append(out, reconcile.View{
			RemoteID: obj.ID,
			Key:      strings.ToLower(strings.Join(strings.Fields(name), " ")),
			Fields: map[string]any{
				"name":         name,
				"part_id":      obj.Fields["part_id"],
				"serial":       obj.Fields["serial"],
				"manufacturer": mfr,
				"description":  obj.Fields["description"],
			},
		})
	}
	return out, nil
}

func (a *inventoryAdapter) CreatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{"device_id": a.run.DeviceID}
	if err := a.payload(ctx, f, item.Local.Values()); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *inventoryAdapter) UpdatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{}
	if err := a.payload(ctx, f, updateValues(item)); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *inventoryAdapter) payload(ctx context.Context, f remote.Fields, values map[string]any) error {
	copyFields(f, values, "name", "part_id", "serial", "description")
	if v, ok := values["manufacturer"]; ok {
		id, err := a.run.resolveRef(ctx, remote.KindManufacturer, stringValue(v), nil)
		if err != nil {
			return err
		}
		f["manufacturer_id"] = id
	}
	return nil
}
