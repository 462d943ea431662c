package devicesync

import (
	"context"

	"netsync/core/identity"
	"netsync/core/normalize"
	"netsync/core/reconcile"
	"netsync/core/remote"
)

// deviceRefs maps device fields to the reference kinds they name.
var deviceRefs = map[string]remote.Kind{
	"manufacturer": remote.KindManufacturer,
	"device_type":  remote.KindDeviceType,
	"platform":     remote.KindPlatform,
	"role":         remote.KindRole,
	"site":         remote.KindSite,
}

type deviceAdapter struct {
	run *Run
}

func newDeviceAdapter(run *Run) Adapter {
	return &deviceAdapter{run: run}
}

func (a *deviceAdapter) Kind() remote.Kind { return remote.KindDevice }

func (a *deviceAdapter) Fields() []string {
	return []string{"serial", "device_type", "manufacturer", "platform", "role", "site", "status"}
}

func (a *deviceAdapter) Comparators() map[string]reconcile.Comparator {
	return map[string]reconcile.Comparator{
		"serial":       reconcile.Exact,
		"device_type":  reconcile.FoldCase,
		"manufacturer": reconcile.FoldCase,
		"platform":     reconcile.FoldCase,
		"role":         reconcile.FoldCase,
		"site":         reconcile.FoldCase,
		"status":       reconcile.FoldCase,
	}
}

func (a *deviceAdapter) Records(ctx context.Context) ([]reconcile.Record, error) {
	return []reconcile.Record{normalize.NewDevice(a.run.Snapshot.Device)}, nil
}

// Projections returns the remote devices with the target hostname. Other
// devices are never part of the comparison.
func (a *deviceAdapter) Projections(ctx context.Context) ([]reconcile.Projection, error) {
	objs, err := a.run.Cache.Objects(ctx, nsDevice)
	if err != nil {
		return nil, err
	}
	var out []reconcile.Projection
	for _, obj := range objs {
		name := identity.Hostname(obj.Fields.String("name"))
		if name != a.run.Device {
			continue
		}
		fields := map[string]any{
			"name":   name,
			"serial": obj.Fields["serial"],
			"status": obj.Fields["status"],
		}
		for field, kind := range deviceRefs {
			ref, err := a.run.refName(ctx, kind, obj.Fields.Int(field+"_id"))
			if err != nil {
				return nil, err
			}
			fields[field] = ref
		}
		out = append(out, reconcile.View{RemoteID: obj.ID, Key: name, Fields: fields})
	}
	return out, nil
}

func (a *deviceAdapter) CreatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	values := item.Local.Values()
	f := remote.Fields{}
	copyFields(f, values, "name", "serial", "status")
	if err := a.refs(ctx, f, values, values); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *deviceAdapter) UpdatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	changed := updateValues(item)
	f := remote.Fields{}
	copyFields(f, changed, "serial", "status")
	if err := a.refs(ctx, f, changed, item.Local.Values()); err != nil {
		return nil, err
	}
	return f, nil
}

// refs resolves the reference fields in values. The device type is scoped
// to the manufacturer of the full local record.
func (a *deviceAdapter) refs(ctx context.Context, f remote.Fields, values, local map[string]any) error {
	for _, field := range []string{"manufacturer", "device_type", "platform", "role", "site"} {
		v, ok := values[field]
		if !ok {
			continue
		}
		extra := remote.Fields{}
		if field == "device_type" {
			mfr, err := a.run.resolveRef(ctx, remote.KindManufacturer, stringValue(local["manufacturer"]), nil)
			if err != nil {
				return err
			}
			if mfr != nil {
				extra["manufacturer_id"] = mfr
			}
		}
		id, err := a.run.resolveRef(ctx, deviceRefs[field], stringValue(v), extra)
		if err != nil {
			return err
		}
		f[field+"_id"] = id
	}
	return nil
}

// Commit indexes a created device so the scope resolves to it.
func (a *deviceAdapter) Commit(identity string, id int64) {
	a.run.Cache.Put(nsDevice, identity, id)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
