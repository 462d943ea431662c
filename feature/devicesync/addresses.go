package devicesync

import (
	"context"
	"strings"

	"netsync/core/normalize"
	"netsync/core/reconcile"
	"netsync/core/remote"
)

type addressAdapter struct {
	noCommit
	run *Run
}

func newAddressAdapter(run *Run) Adapter {
	return &addressAdapter{run: run}
}

func (a *addressAdapter) Kind() remote.Kind { return remote.KindAddress }

func (a *addressAdapter) Fields() []string {
	return []string{"interface", "status", "role", "vrf", "description"}
}

func (a *addressAdapter) Comparators() map[string]reconcile.Comparator {
	return map[string]reconcile.Comparator{
		"interface":   reconcile.Exact,
		"status":      reconcile.FoldCase,
		"role":        reconcile.FoldCase,
		"vrf":         reconcile.Exact,
		"description": reconcile.Exact,
	}
}

func (a *addressAdapter) Records(ctx context.Context) ([]reconcile.Record, error) {
	out := make([]normalize.Address, 0, len(a.run.Snapshot.Addresses))
	for _, raw := range a.run.Snapshot.Addresses {
		out = append(out, normalize.NewAddress(raw))
	}
	return records(out), nil
}

func (a *addressAdapter) Projections(ctx context.Context) ([]reconcile.Projection, error) {
	ns := a.run.scoped(remote.KindAddress, func(o remote.Object) string { return strings.ToLower(o.Fields.String("address")) })
	objs, err := a.run.Cache.Objects(ctx, ns)
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Projection, 0, len(objs))
	for _, obj := range objs {
		iface, err := a.run.interfaceName(ctx, obj.Fields.Int("interface_id"))
		if err != nil {
			return nil, err
		}
		out = append(out, reconcile.View{
			RemoteID: obj.ID,
			Key:      strings.ToLower(obj.Fields.String("address")),
			Fields: map[string]any{
				"address":     obj.Fields["address"],
				"interface":   iface,
				"status":      obj.Fields["status"],
				"role":        obj.Fields["role"],
				"vrf":         obj.Fields["vrf"],
				"description": obj.Fields["description"],
			},
		})
	}
	return out, nil
}

func (a *addressAdapter) CreatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{"device_id": a.run.DeviceID}
	if err := a.payload(ctx, f, item.Identity, item.Local.Values()); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *addressAdapter) UpdatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{}
	if err := a.payload(ctx, f, item.Identity, updateValues(item)); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *addressAdapter) payload(ctx context.Context, f remote.Fields, owner string, values map[string]any) error {
	copyFields(f, values, "address", "status", "role", "vrf", "description")
	if v, ok := values["interface"]; ok {
		f["interface_id"] = nil
		if name := stringValue(v); name != "" {
			id, err := a.run.interfaceID(ctx, owner, name)
			if err != nil {
				return err
			}
			f["interface_id"] = id
		}
	}
	return nil
}
