package normalize

import (
	"strconv"
	"strings"

	"netsync/core/identity"
	"netsync/core/utils"
)

var (
	keysInterfaceName = []string{"interface", "name", "port", "intf", "ifname"}
	keysDescription   = []string{"description", "desc", "descr", "alias"}
)

// values collects the present fields of a record.
type values map[string]any

func (v values) str(name string, p *string) {
	if p != nil {
		v[name] = *p
	}
}

func (v values) num(name string, p *int64) {
	if p != nil {
		v[name] = *p
	}
}

func (v values) flag(name string, p *bool) {
	if p != nil {
		v[name] = *p
	}
}

// text returns the first present key as a pointer; nil when none is present.
func text(r Raw, keys ...string) *string {
	v, ok := r.Lookup(keys...)
	if !ok {
		return nil
	}
	return &v
}

// number parses the first present key. Present-but-empty yields 0;
// unparseable input is treated as absent.
func number(r Raw, keys ...string) *int64 {
	v, ok := r.Lookup(keys...)
	if !ok {
		return nil
	}
	if v == "" {
		var zero int64
		return &zero
	}
	n, ok := utils.ParseInt(v)
	if !ok {
		return nil
	}
	return &n
}

// resolved runs a chain. When no rule applies the field is cleared if one of
// the source keys was present with an empty value, otherwise absent.
func resolved(c Chain, r Raw, sources ...string) *string {
	if v, _, ok := c.Resolve(r); ok {
		return &v
	}
	if v, ok := r.Lookup(sources...); ok && v == "" {
		return &v
	}
	return nil
}

// mapped maps the first present key through table with the same
// present/empty/unknown rules as resolved.
func mapped(table map[string]string, r Raw, keys ...string) *string {
	v, ok := r.Lookup(keys...)
	if !ok {
		return nil
	}
	if v == "" {
		return &v
	}
	out, ok := table[strings.ToLower(v)]
	if !ok {
		return nil
	}
	return &out
}

func ptr[T any](v T) *T { return &v }

// Interface is the canonical form of one device interface.
type Interface struct {
	Name         string
	Description  *string
	Enabled      *bool
	Type         *string
	Speed        *int64 // kbps
	Duplex       *string
	MTU          *int64
	MACAddress   *string
	Mode         *string
	UntaggedVLAN *int64
	LAG          *string // canonical name of the parent aggregate
}

// NewInterface normalizes a parser record into an Interface.
func NewInterface(r Raw) Interface {
	i := Interface{
		Name:         identity.Interface(r.First(keysInterfaceName...)),
		Description:  text(r, keysDescription...),
		Type:         resolved(mediaTypeChain, r),
		Duplex:       mapped(duplexWords, r, "duplex"),
		MTU:          number(r, "mtu"),
		Mode:         resolved(modeChain, r, keysMode...),
		UntaggedVLAN: number(r, "untagged_vlan", "access_vlan", "native_vlan", "pvid"),
	}
	if v, _, ok := enabledChain.Resolve(r); ok {
		b, _ := strconv.ParseBool(v)
		i.Enabled = &b
	}
	if v, _, ok := speedChain.Resolve(r); ok {
		n, _ := strconv.ParseInt(v, 10, 64)
		i.Speed = &n
	} else if v, ok := r.Lookup(keysSpeed...); ok && v == "" {
		i.Speed = ptr(int64(0))
	}
	if v, ok := r.Lookup("mac_address", "hardware_address", "address", "bia"); ok {
		if v == "" || identity.IsMAC(v) {
			i.MACAddress = ptr(identity.FormatMAC(v))
		}
	}
	if v, ok := r.Lookup("lag", "port_channel", "channel_group", "bundle", "parent_lag", "member_of"); ok {
		i.LAG = ptr(lagName(v))
	}
	return i
}

// lagName canonicalizes a parent aggregate reference. A bare channel-group
// number refers to the port-channel with that number.
func lagName(v string) string {
	if v == "" {
		return ""
	}
	if _, err := strconv.Atoi(v); err == nil {
		return "po" + v
	}
	return identity.Interface(v)
}

// Identity is the canonical interface name.
func (i Interface) Identity() string { return i.Name }

// Values returns the present fields keyed by field name.
func (i Interface) Values() map[string]any {
	v := values{"name": i.Name}
	v.str("description", i.Description)
	v.flag("enabled", i.Enabled)
	v.str("type", i.Type)
	v.num("speed", i.Speed)
	v.str("duplex", i.Duplex)
	v.num("mtu", i.MTU)
	v.str("mac_address", i.MACAddress)
	v.str("mode", i.Mode)
	v.num("untagged_vlan", i.UntaggedVLAN)
	v.str("lag", i.LAG)
	return v
}

// Requires lists the identities this interface references: its parent LAG.
func (i Interface) Requires() []string {
	if i.LAG == nil || *i.LAG == "" || *i.LAG == i.Name {
		return nil
	}
	return []string{*i.LAG}
}

// MACEntry is one forwarding-table entry.
type MACEntry struct {
	MACAddress string
	VLAN       int64
	Interface  string
	Type       *string
}

// NewMACEntry normalizes a MAC table record. A multi-port entry keeps its
// first port.
func NewMACEntry(r Raw) MACEntry {
	port := r.First("interface", "port", "destination_port", "ports")
	if i := strings.IndexAny(port, ", "); i > 0 {
		port = port[:i]
	}
	e := MACEntry{
		MACAddress: identity.MAC(r.First("mac_address", "mac", "destination_address")),
		VLAN:       utils.ToInt64(r.First("vlan", "vlan_id", "vid")),
		Interface:  identity.Interface(port),
	}
	if v, ok := r.Lookup("type", "entry_type"); ok {
		e.Type = ptr(strings.ToLower(v))
	}
	return e
}

// Identity is MAC, VLAN and port. An entry without a MAC has no identity.
func (e MACEntry) Identity() string {
	if e.MACAddress == "" {
		return ""
	}
	return identity.Join(e.MACAddress, strconv.FormatInt(e.VLAN, 10), e.Interface)
}

func (e MACEntry) Values() map[string]any {
	v := values{
		"mac_address": identity.FormatMAC(e.MACAddress),
		"vlan":        e.VLAN,
		"interface":   e.Interface,
	}
	v.str("type", e.Type)
	return v
}

// Neighbor is one discovered link between a local port and a remote port.
// RemoteChassis is set when the neighbor announced only its chassis MAC.
type Neighbor struct {
	LocalDevice     string
	LocalInterface  string
	RemoteDevice    string
	RemoteInterface string
	RemoteChassis   string
	Protocol        *string
	RemotePlatform  *string
}

// NewNeighbor normalizes an LLDP/CDP record seen on device.
func NewNeighbor(device string, r Raw) Neighbor {
	n := Neighbor{
		LocalDevice:     identity.Hostname(device),
		LocalInterface:  identity.Interface(r.First("local_interface", "local_port", "interface")),
		RemoteInterface: identity.Interface(r.First("neighbor_interface", "remote_port", "port_id", "neighbor_port")),
		Protocol:        text(r, "protocol"),
		RemotePlatform:  text(r, "platform", "remote_platform", "system_description"),
	}
	name := r.First("neighbor", "neighbor_name", "remote_device", "system_name", "destination_host")
	chassis := r.First("chassis_id", "neighbor_chassis", "remote_chassis_id")
	switch {
	case name != "" && !identity.IsMAC(name):
		n.RemoteDevice = identity.Hostname(name)
	case identity.IsMAC(name):
		n.RemoteChassis = identity.MAC(name)
	case identity.IsMAC(chassis):
		n.RemoteChassis = identity.MAC(chassis)
	}
	return n
}

// Resolved returns a copy whose remote device is known by name.
func (n Neighbor) Resolved(device string) Neighbor {
	n.RemoteDevice = identity.Hostname(device)
	return n
}

// Identity is the sorted endpoint pair. A neighbor whose remote device is
// only known by chassis MAC uses the MAC in its place.
func (n Neighbor) Identity() string {
	remote := n.RemoteDevice
	if remote == "" {
		remote = n.RemoteChassis
	}
	if n.LocalInterface == "" || remote == "" || n.RemoteInterface == "" {
		return ""
	}
	return identity.Pair(identity.Endpoint(n.LocalDevice, n.LocalInterface), identity.Endpoint(remote, n.RemoteInterface))
}

func (n Neighbor) Values() map[string]any {
	v := values{
		"local_device":     n.LocalDevice,
		"local_interface":  n.LocalInterface,
		"remote_device":    n.RemoteDevice,
		"remote_interface": n.RemoteInterface,
	}
	v.str("protocol", n.Protocol)
	return v
}

// InventoryItem is one field-replaceable component.
type InventoryItem struct {
	Name         string
	PartID       *string
	Serial       *string
	Manufacturer *string
	Description  *string
}

func NewInventoryItem(r Raw) InventoryItem {
	return InventoryItem{
		Name:         strings.Join(strings.Fields(r.First("name", "module", "slot")), " "),
		PartID:       text(r, "pid", "part_id", "part_number", "model"),
		Serial:       text(r, "sn", "serial", "serial_number"),
		Manufacturer: text(r, "manufacturer", "vendor"),
		Description:  text(r, "descr", "description"),
	}
}

// Identity is the case-folded item name.
func (i InventoryItem) Identity() string { return strings.ToLower(i.Name) }

func (i InventoryItem) Values() map[string]any {
	v := values{"name": i.Name}
	v.str("part_id", i.PartID)
	v.str("serial", i.Serial)
	v.str("manufacturer", i.Manufacturer)
	v.str("description", i.Description)
	return v
}

// Address is one IP address configured on an interface.
type Address struct {
	Address     string // CIDR
	Interface   *string
	Status      *string
	Role        *string
	VRF         *string
	Description *string
}

func NewAddress(r Raw) Address {
	a := Address{
		Status:      text(r, "status"),
		Role:        mapped(addressRoles, r, "role", "secondary"),
		VRF:         text(r, "vrf"),
		Description: text(r, keysDescription...),
	}
	if p, ok := Prefix(r.First("address", "ip_address", "ip"), r.First("prefix_length", "mask", "netmask", "prefix")); ok {
		a.Address = p
	}
	if v, ok := r.Lookup("interface", "intf", "port"); ok {
		a.Interface = ptr(identity.Interface(v))
	}
	if a.Status != nil {
		*a.Status = strings.ToLower(*a.Status)
	}
	return a
}

// Identity is the CIDR address.
func (a Address) Identity() string { return strings.ToLower(a.Address) }

func (a Address) Values() map[string]any {
	v := values{"address": a.Address}
	v.str("interface", a.Interface)
	v.str("status", a.Status)
	v.str("role", a.Role)
	v.str("vrf", a.VRF)
	v.str("description", a.Description)
	return v
}

// Device is the device itself.
type Device struct {
	Name         string
	Serial       *string
	DeviceType   *string
	Manufacturer *string
	Platform     *string
	Role         *string
	Site         *string
	Status       *string
}

func NewDevice(r Raw) Device {
	d := Device{
		Name:         identity.Hostname(r.First("hostname", "name", "device")),
		Serial:       text(r, "serial", "serial_number", "sn"),
		DeviceType:   text(r, "model", "hardware", "device_type", "pid"),
		Manufacturer: resolved(manufacturerChain, r, keysVendor...),
		Platform:     text(r, keysPlatform...),
		Role:         text(r, "role"),
		Site:         text(r, "site"),
		Status:       text(r, "status"),
	}
	if d.DeviceType != nil {
		*d.DeviceType = strings.Trim(*d.DeviceType, "[]' ")
	}
	if d.Serial != nil {
		*d.Serial = strings.Trim(*d.Serial, "[]' ")
	}
	if d.Status != nil {
		*d.Status = strings.ToLower(*d.Status)
	}
	return d
}

// Identity is the hostname without domain.
func (d Device) Identity() string { return d.Name }

func (d Device) Values() map[string]any {
	v := values{"name": d.Name}
	v.str("serial", d.Serial)
	v.str("device_type", d.DeviceType)
	v.str("manufacturer", d.Manufacturer)
	v.str("platform", d.Platform)
	v.str("role", d.Role)
	v.str("site", d.Site)
	v.str("status", d.Status)
	return v
}

// Vlan is one VLAN defined on the device.
type Vlan struct {
	VID    int64
	Name   *string
	Status *string
}

func NewVlan(r Raw) Vlan {
	return Vlan{
		VID:    utils.ToInt64(r.First("vlan_id", "vid", "vlan")),
		Name:   text(r, "name", "vlan_name"),
		Status: mapped(vlanStatus, r, "status", "state"),
	}
}

// Identity is the VLAN id. VLAN 0 is not a valid identity.
func (v Vlan) Identity() string {
	if v.VID <= 0 || v.VID > 4094 {
		return ""
	}
	return strconv.FormatInt(v.VID, 10)
}

func (v Vlan) Values() map[string]any {
	out := values{"vid": v.VID}
	out.str("name", v.Name)
	out.str("status", v.Status)
	return out
}
