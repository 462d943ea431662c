package devicesync

import (
	"context"
	"strconv"

	"netsync/core/identity"
	"netsync/core/normalize"
	"netsync/core/reconcile"
	"netsync/core/remote"
)

type macAdapter struct {
	noCommit
	run *Run
}

func newMACAdapter(run *Run) Adapter {
	return &macAdapter{run: run}
}

func (a *macAdapter) Kind() remote.Kind { return remote.KindMAC }

func (a *macAdapter) Fields() []string { return []string{"type"} }

func (a *macAdapter) Comparators() map[string]reconcile.Comparator {
	return map[string]reconcile.Comparator{"type": reconcile.FoldCase}
}

func (a *macAdapter) Records(ctx context.Context) ([]reconcile.Record, error) {
	out := make([]normalize.MACEntry, 0, len(a.run.Snapshot.MACTable))
	for _, raw := range a.run.Snapshot.MACTable {
		out = append(out, normalize.NewMACEntry(raw))
	}
	return records(out), nil
}

func (a *macAdapter) Projections(ctx context.Context) ([]reconcile.Projection, error) {
	ns := a.run.scoped(remote.KindMAC, func(o remote.Object) string { return identity.MAC(o.Fields.String("mac_address")) })
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
		mac := identity.MAC(obj.Fields.String("mac_address"))
		vlan := obj.Fields.Int("vlan")
		key := ""
		if mac != "" {
			key = identity.Join(mac, strconv.FormatInt(vlan, 10), iface)
		}
		out = append(out, reconcile.View{
			RemoteID: obj.ID,
			Key:      key,
			Fields: map[string]any{
				"mac_address": identity.FormatMAC(mac),
				"vlan":        vlan,
				"interface":   iface,
				"type":        obj.Fields["type"],
			},
		})
	}
	return out, nil
}

func (a *macAdapter) CreatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	values := item.Local.Values()
	f := remote.Fields{"device_id": a.run.DeviceID}
	copyFields(f, values, "mac_address", "vlan", "type")
	if name := stringValue(values["interface"]); name != "" {
		id, err := a.run.interfaceID(ctx, item.Identity, name)
		if err != nil {
			return nil, err
		}
		f["interface_id"] = id
	}
	return f, nil
}

func (a *macAdapter) UpdatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{}
	copyFields(f, updateValues(item), "type")
	return f, nil
}
