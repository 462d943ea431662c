package devicesync

import (
	"context"

	"netsync/core/identity"
	"netsync/core/normalize"
	"netsync/core/reconcile"
	"netsync/core/remote"
)

// unknownInterfaceType is stored on create when no media type resolved.
// Updates never send it.
const unknownInterfaceType = "other"

// interfacePlain lists interface fields stored as they are.
var interfacePlain = []string{"name", "description", "enabled", "type", "speed", "duplex", "mtu", "mac_address", "mode"}

type interfaceAdapter struct {
	run *Run
}

func newInterfaceAdapter(run *Run) Adapter {
	return &interfaceAdapter{run: run}
}

func (a *interfaceAdapter) Kind() remote.Kind { return remote.KindInterface }

func (a *interfaceAdapter) Fields() []string {
	return []string{"description", "enabled", "type", "speed", "duplex", "mtu", "mac_address", "mode", "untagged_vlan", "lag"}
}

func (a *interfaceAdapter) Comparators() map[string]reconcile.Comparator {
	return map[string]reconcile.Comparator{
		"description":   reconcile.Exact,
		"enabled":       reconcile.Bool,
		"type":          reconcile.FoldCase,
		"speed":         reconcile.Speed,
		"duplex":        reconcile.FoldCase,
		"mtu":           reconcile.Numeric,
		"mac_address":   reconcile.MAC,
		"mode":          reconcile.FoldCase,
		"untagged_vlan": reconcile.Numeric,
		"lag":           reconcile.Exact,
	}
}

func (a *interfaceAdapter) Records(ctx context.Context) ([]reconcile.Record, error) {
	out := make([]normalize.Interface, 0, len(a.run.Snapshot.Interfaces))
	for _, raw := range a.run.Snapshot.Interfaces {
		out = append(out, normalize.NewInterface(raw))
	}
	return records(out), nil
}

func (a *interfaceAdapter) Projections(ctx context.Context) ([]reconcile.Projection, error) {
	ns := a.run.interfaces()
	objs, err := a.run.Cache.Objects(ctx, ns)
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Projection, 0, len(objs))
	for _, obj := range objs {
		fields := make(map[string]any, len(interfacePlain)+2)
		for _, f := range interfacePlain {
			fields[f] = obj.Fields[f]
		}
		name := identity.Interface(obj.Fields.String("name"))
		fields["name"] = name

		fields["untagged_vlan"] = nil
		if id := obj.Fields.Int("untagged_vlan_id"); id != 0 {
			vid, _, err := a.run.Cache.KeyOf(ctx, a.run.vlans(), id)
			if err != nil {
				return nil, err
			}
			fields["untagged_vlan"] = vid
		}
		lag, err := a.run.interfaceName(ctx, obj.Fields.Int("lag_id"))
		if err != nil {
			return nil, err
		}
		fields["lag"] = lag

		out = append(out, reconcile.View{RemoteID: obj.ID, Key: name, Fields: fields})
	}
	return out, nil
}

func (a *interfaceAdapter) CreatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{"device_id": a.run.DeviceID}
	if err := a.payload(ctx, f, item.Identity, item.Local.Values(), ids); err != nil {
		return nil, err
	}
	if _, ok := f["type"]; !ok {
		f["type"] = unknownInterfaceType
	}
	return f, nil
}

func (a *interfaceAdapter) UpdatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{}
	if err := a.payload(ctx, f, item.Identity, updateValues(item), ids); err != nil {
		return nil, err
	}
	return f, nil
}

// payload converts interface values. The parent LAG resolves against ids,
// which holds the aggregates created in earlier waves.
func (a *interfaceAdapter) payload(ctx context.Context, f remote.Fields, owner string, values map[string]any, ids reconcile.IDs) error {
	copyFields(f, values, interfacePlain...)

	if v, ok := values["untagged_vlan"]; ok {
		vid, _ := v.(int64)
		f["untagged_vlan_id"] = nil
		if vid > 0 {
			id, err := a.run.Cache.Resolve(ctx, a.run.vlans(), vlanKey(vid), a.run.vlanExtra())
			if err != nil {
				return err
			}
			f["untagged_vlan_id"] = id
		}
	}
	if v, ok := values["lag"]; ok {
		lag, _ := v.(string)
		f["lag_id"] = nil
		if lag != "" {
			id, err := ids.Require(owner, lag)
			if err != nil {
				return err
			}
			f["lag_id"] = id
		}
	}
	return nil
}

// Commit indexes a created interface for addresses, MAC entries and cables.
func (a *interfaceAdapter) Commit(name string, id int64) {
	a.run.Cache.Put(a.run.interfaces(), name, id)
	a.run.Cache.Put(nsPorts, portKey(a.run.DeviceID, name), id)
}
