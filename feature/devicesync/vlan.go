package devicesync

import (
	"context"
	"strconv"

	"netsync/core/normalize"
	"netsync/core/reconcile"
	"netsync/core/remote"
)

type vlanAdapter struct {
	run *Run
}

func newVlanAdapter(run *Run) Adapter {
	return &vlanAdapter{run: run}
}

func (a *vlanAdapter) Kind() remote.Kind { return remote.KindVLAN }

func (a *vlanAdapter) Fields() []string { return []string{"name", "status"} }

func (a *vlanAdapter) Comparators() map[string]reconcile.Comparator {
	return map[string]reconcile.Comparator{"name": reconcile.Exact, "status": reconcile.FoldCase}
}

func (a *vlanAdapter) Records(ctx context.Context) ([]reconcile.Record, error) {
	out := make([]normalize.Vlan, 0, len(a.run.Snapshot.Vlans))
	for _, raw := range a.run.Snapshot.Vlans {
		out = append(out, normalize.NewVlan(raw))
	}
	return records(out), nil
}

func (a *vlanAdapter) Projections(ctx context.Context) ([]reconcile.Projection, error) {
	objs, err := a.run.Cache.Objects(ctx, a.run.vlans())
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Projection, 0, len(objs))
	for _, obj := range objs {
		if a.run.SiteID == 0 && obj.Fields.Int("site_id") != 0 {
			continue
		}
		vid := obj.Fields.Int("vid")
		out = append(out, reconcile.View{
			RemoteID: obj.ID,
			Key:      normalize.Vlan{VID: vid}.Identity(),
			Fields: map[string]any{
				"vid":    vid,
				"name":   obj.Fields["name"],
				"status": obj.Fields["status"],
			},
		})
	}
	return out, nil
}

func (a *vlanAdapter) CreatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := a.run.vlanExtra()
	copyFields(f, item.Local.Values(), "vid", "name", "status")
	return f, nil
}

func (a *vlanAdapter) UpdatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{}
	copyFields(f, updateValues(item), "name", "status")
	return f, nil
}

// Keep protects VLANs cleanup must leave alone: site VLANs still used by
// interfaces of other devices, and VLANs the snapshot's own interfaces use.
func (a *vlanAdapter) Keep(ctx context.Context) (map[string]string, error) {
	vlans, err := a.run.Cache.Objects(ctx, a.run.vlans())
	if err != nil {
		return nil, err
	}
	keys := make(map[int64]string, len(vlans))
	for _, obj := range vlans {
		keys[obj.ID] = vlanKey(obj.Fields.Int("vid"))
	}

	keep := make(map[string]string)
	ifaces, err := a.run.Cache.Objects(ctx, nsPorts)
	if err != nil {
		return nil, err
	}
	for _, obj := range ifaces {
		dev := obj.Fields.Int("device_id")
		key, ok := keys[obj.Fields.Int("untagged_vlan_id")]
		if dev == a.run.DeviceID || !ok || keep[key] != "" {
			continue
		}
		name, _, err := a.run.Cache.KeyOf(ctx, nsDevice, dev)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = "device " + strconv.FormatInt(dev, 10)
		}
		keep[key] = "site-scoped, referenced by " + name
	}

	for _, raw := range a.run.Snapshot.Interfaces {
		i := normalize.NewInterface(raw)
		if i.UntaggedVLAN == nil || *i.UntaggedVLAN <= 0 {
			continue
		}
		if key := vlanKey(*i.UntaggedVLAN); keep[key] == "" {
			keep[key] = "untagged vlan of " + i.Name
		}
	}
	return keep, nil
}

// Commit makes a created VLAN resolvable as an untagged VLAN.
func (a *vlanAdapter) Commit(identity string, id int64) {
	a.run.Cache.Put(a.run.vlans(), identity, id)
}

func vlanKey(vid int64) string {
	return strconv.FormatInt(vid, 10)
}
