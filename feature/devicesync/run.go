package devicesync

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"netsync/core/identity"
	"netsync/core/reconcile"
	"netsync/core/remote"
	"netsync/core/utils"
)

// Run is the state of one device reconciliation. It owns the run's Lookup
// Cache; nothing in it is shared with other runs.
type Run struct {
	ID       string
	Device   string
	Snapshot *Snapshot
	Cache    *reconcile.Cache

	// DeviceID and SiteID are set once the target scope is resolved.
	DeviceID int64
	SiteID   int64

	defined map[reconcile.Namespace]bool
}

// Lookup namespaces shared by the adapters.
var (
	nsDevice = reconcile.Namespace{Kind: remote.KindDevice}
	// nsPorts indexes every interface as "<device id>|<name>"
	nsPorts = reconcile.Namespace{Kind: remote.KindInterface, Scope: "ports"}
	// nsChassis indexes every interface by MAC address
	nsChassis = reconcile.Namespace{Kind: remote.KindInterface, Scope: "mac"}
)

func newRun(id string, snap *Snapshot, cache *reconcile.Cache) *Run {
	cache.Define(nsDevice, reconcile.Source{
		KeyOf: func(o remote.Object) string { return identity.Hostname(o.Fields.String("name")) },
	})
	cache.Define(nsPorts, reconcile.Source{
		Kind: remote.KindInterface,
		KeyOf: func(o remote.Object) string {
			return portKey(o.Fields.Int("device_id"), o.Fields.String("name"))
		},
	})
	cache.Define(nsChassis, reconcile.Source{
		Kind:  remote.KindInterface,
		KeyOf: func(o remote.Object) string { return identity.MAC(o.Fields.String("mac_address")) },
	})
	return &Run{ID: id, Device: snap.Hostname(), Snapshot: snap, Cache: cache, defined: make(map[reconcile.Namespace]bool)}
}

// define registers a namespace once per run. Redefining would drop the ids
// put into it.
func (r *Run) define(ns reconcile.Namespace, src reconcile.Source) reconcile.Namespace {
	if !r.defined[ns] {
		r.Cache.Define(ns, src)
		r.defined[ns] = true
	}
	return ns
}

func portKey(deviceID int64, name string) string {
	return strconv.FormatInt(deviceID, 10) + "|" + identity.Interface(name)
}

func splitPortKey(key string) (int64, string) {
	dev, name, _ := strings.Cut(key, "|")
	id, _ := utils.ParseInt(dev)
	return id, name
}

// interfaces is the namespace of the target device's interfaces, keyed by
// canonical name.
func (r *Run) interfaces() reconcile.Namespace {
	ns := reconcile.Namespace{Kind: remote.KindInterface, Scope: "device:" + strconv.FormatInt(r.DeviceID, 10)}
	return r.define(ns, reconcile.Source{
		Filter: remote.Filter{"device_id": r.DeviceID},
		KeyOf:  func(o remote.Object) string { return identity.Interface(o.Fields.String("name")) },
	})
}

// scoped is the namespace of kind objects attached to the target device.
func (r *Run) scoped(kind remote.Kind, keyOf func(remote.Object) string) reconcile.Namespace {
	ns := reconcile.Namespace{Kind: kind, Scope: "device:" + strconv.FormatInt(r.DeviceID, 10)}
	return r.define(ns, reconcile.Source{Filter: remote.Filter{"device_id": r.DeviceID}, KeyOf: keyOf})
}

// vlans is the namespace of the VLANs of the device's site, keyed by VID.
// Without a site it holds the global VLANs.
func (r *Run) vlans() reconcile.Namespace {
	ns := reconcile.Namespace{Kind: remote.KindVLAN, Scope: "site:" + strconv.FormatInt(r.SiteID, 10)}
	src := reconcile.Source{KeyOf: func(o remote.Object) string { return strconv.FormatInt(o.Fields.Int("vid"), 10) }}
	if r.SiteID != 0 {
		src.Filter = remote.Filter{"site_id": r.SiteID}
	} else {
		src.KeyOf = func(o remote.Object) string {
			if o.Fields.Int("site_id") != 0 {
				return ""
			}
			return strconv.FormatInt(o.Fields.Int("vid"), 10)
		}
	}
	return r.define(ns, src)
}

// vlanExtra is the scope of a VLAN created as a reference.
func (r *Run) vlanExtra() remote.Fields {
	if r.SiteID == 0 {
		return remote.Fields{}
	}
	return remote.Fields{"site_id": r.SiteID}
}

// ref is the global namespace of a reference kind.
func ref(kind remote.Kind) reconcile.Namespace {
	return reconcile.Namespace{Kind: kind}
}

// interfaceID resolves an interface of the target device by name.
func (r *Run) interfaceID(ctx context.Context, owner, name string) (int64, error) {
	id, found, err := r.Cache.Lookup(ctx, r.interfaces(), identity.Interface(name))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, &reconcile.MissingDependencyError{Identity: owner, Dependency: name, Kind: "interface"}
	}
	return id, nil
}

// interfaceName is the reverse of interfaceID.
func (r *Run) interfaceName(ctx context.Context, id int64) (string, error) {
	if id == 0 {
		return "", nil
	}
	name, _, err := r.Cache.KeyOf(ctx, r.interfaces(), id)
	return name, err
}

// refName returns the folded name of reference object id.
func (r *Run) refName(ctx context.Context, kind remote.Kind, id int64) (string, error) {
	if id == 0 {
		return "", nil
	}
	name, _, err := r.Cache.KeyOf(ctx, ref(kind), id)
	return name, err
}

// resolveRef resolves a reference name to an id, creating it when missing.
// An empty name clears the reference.
func (r *Run) resolveRef(ctx context.Context, kind remote.Kind, name string, extra remote.Fields) (any, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	id, err := r.Cache.Resolve(ctx, ref(kind), name, extra)
	if err != nil {
		return nil, fmt.Errorf("resolve %s %q: %w", kind, name, err)
	}
	return id, nil
}

// deviceByChassis finds the name of the device owning an interface with
// the given MAC.
func (r *Run) deviceByChassis(ctx context.Context, mac string) (string, bool, error) {
	ifaceID, found, err := r.Cache.Lookup(ctx, nsChassis, identity.MAC(mac))
	if err != nil || !found {
		return "", false, err
	}
	key, ok, err := r.Cache.KeyOf(ctx, nsPorts, ifaceID)
	if err != nil || !ok {
		return "", false, err
	}
	deviceID, _ := splitPortKey(key)
	name, ok, err := r.Cache.KeyOf(ctx, nsDevice, deviceID)
	if err != nil || !ok {
		return "", false, err
	}
	return name, true, nil
}

// resolveScope finds the target device and its site. The device stage may
// have just created the device.
func (r *Run) resolveScope(ctx context.Context) error {
	if r.Device == "" {
		return fmt.Errorf("%w: snapshot has no hostname", reconcile.ErrScopeNotFound)
	}
	id, found, err := r.Cache.Lookup(ctx, nsDevice, r.Device)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: device %s", reconcile.ErrScopeNotFound, r.Device)
	}
	r.DeviceID = id

	objs, err := r.Cache.Objects(ctx, nsDevice)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if obj.ID == id {
			r.SiteID = obj.Fields.Int("site_id")
			return nil
		}
	}
	// created in this run: the site was resolved through the cache
	if site := r.Snapshot.Device.First("site"); site != "" {
		if sid, ok, err := r.Cache.Lookup(ctx, ref(remote.KindSite), strings.ToLower(site)); err == nil && ok {
			r.SiteID = sid
		}
	}
	return nil
}
