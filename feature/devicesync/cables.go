package devicesync

import (
	"context"

	"netsync/core/identity"
	"netsync/core/normalize"
	"netsync/core/reconcile"
	"netsync/core/remote"
)

// cableAdapter turns discovered neighbors into cables between interfaces.
// Both ends must already exist; the far end is usually synchronized by the
// run of the neighboring device.
type cableAdapter struct {
	noCommit
	run *Run
}

func newCableAdapter(run *Run) Adapter {
	return &cableAdapter{run: run}
}

func (a *cableAdapter) Kind() remote.Kind { return remote.KindCable }

func (a *cableAdapter) Fields() []string { return []string{"protocol"} }

func (a *cableAdapter) Comparators() map[string]reconcile.Comparator {
	return map[string]reconcile.Comparator{"protocol": reconcile.FoldCase}
}

// Records normalizes the neighbor table. A neighbor announced only by its
// chassis MAC is matched to the device owning an interface with that MAC.
func (a *cableAdapter) Records(ctx context.Context) ([]reconcile.Record, error) {
	out := make([]normalize.Neighbor, 0, len(a.run.Snapshot.Neighbors))
	for _, raw := range a.run.Snapshot.Neighbors {
		n := normalize.NewNeighbor(a.run.Device, raw)
		if n.RemoteDevice == "" && n.RemoteChassis != "" {
			name, found, err := a.run.deviceByChassis(ctx, n.RemoteChassis)
			if err != nil {
				return nil, err
			}
			if found {
				n = n.Resolved(name)
			}
		}
		out = append(out, n)
	}
	return records(out), nil
}

func (a *cableAdapter) Projections(ctx context.Context) ([]reconcile.Projection, error) {
	ns := a.run.scoped(remote.KindCable, func(remote.Object) string { return "" })
	objs, err := a.run.Cache.Objects(ctx, ns)
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Projection, 0, len(objs))
	for _, obj := range objs {
		aDev, aPort, err := a.end(ctx, obj.Fields.Int("a_device_id"), obj.Fields.Int("a_interface_id"))
		if err != nil {
			return nil, err
		}
		bDev, bPort, err := a.end(ctx, obj.Fields.Int("b_device_id"), obj.Fields.Int("b_interface_id"))
		if err != nil {
			return nil, err
		}
		if obj.Fields.Int("a_device_id") != a.run.DeviceID {
			aDev, aPort, bDev, bPort = bDev, bPort, aDev, aPort
		}

		key := ""
		if aDev != "" && aPort != "" && bDev != "" && bPort != "" {
			key = identity.Pair(identity.Endpoint(aDev, aPort), identity.Endpoint(bDev, bPort))
		}
		out = append(out, reconcile.View{
			RemoteID: obj.ID,
			Key:      key,
			Fields: map[string]any{
				"local_device":     aDev,
				"local_interface":  aPort,
				"remote_device":    bDev,
				"remote_interface": bPort,
				"protocol":         obj.Fields["protocol"],
			},
		})
	}
	return out, nil
}

// end names one cable endpoint.
func (a *cableAdapter) end(ctx context.Context, deviceID, ifaceID int64) (string, string, error) {
	dev, _, err := a.run.Cache.KeyOf(ctx, nsDevice, deviceID)
	if err != nil {
		return "", "", err
	}
	key, _, err := a.run.Cache.KeyOf(ctx, nsPorts, ifaceID)
	if err != nil {
		return "", "", err
	}
	_, port := splitPortKey(key)
	return dev, port, nil
}

func (a *cableAdapter) CreatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	n, ok := item.Local.(normalize.Neighbor)
	if !ok {
		return nil, &remote.ValidationError{Kind: remote.KindCable, Message: "not a neighbor record"}
	}

	local, err := a.run.interfaceID(ctx, item.Identity, n.LocalInterface)
	if err != nil {
		return nil, err
	}
	if n.RemoteDevice == "" {
		return nil, &reconcile.MissingDependencyError{Identity: item.Identity, Dependency: identity.FormatMAC(n.RemoteChassis), Kind: "device with chassis"}
	}
	peer, found, err := a.run.Cache.Lookup(ctx, nsDevice, n.RemoteDevice)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &reconcile.MissingDependencyError{Identity: item.Identity, Dependency: n.RemoteDevice, Kind: "device"}
	}
	port, found, err := a.run.Cache.Lookup(ctx, nsPorts, portKey(peer, n.RemoteInterface))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &reconcile.MissingDependencyError{
			Identity:   item.Identity,
			Dependency: identity.Endpoint(n.RemoteDevice, n.RemoteInterface),
			Kind:       "interface",
		}
	}

	f := remote.Fields{
		"a_device_id":    a.run.DeviceID,
		"a_interface_id": local,
		"b_device_id":    peer,
		"b_interface_id": port,
	}
	if n.Protocol != nil {
		f["protocol"] = *n.Protocol
	}
	return f, nil
}

func (a *cableAdapter) UpdatePayload(ctx context.Context, item reconcile.ChangeItem, ids reconcile.IDs) (remote.Fields, error) {
	f := remote.Fields{}
	copyFields(f, updateValues(item), "protocol")
	return f, nil
}
