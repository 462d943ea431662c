package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSpeed tests that printed speeds convert to kbps.
func TestParseSpeed(t *testing.T) {
	tests := []struct {
		in   string
		unit int64
		want int64
		ok   bool
	}{
		{"1000", Mbps, 1_000_000, true},
		{"a-1000", Mbps, 1_000_000, true},
		{"10G", Mbps, 10_000_000, true},
		{"100 Mb/s", Mbps, 100_000, true},
		{"2.5Gbps", Mbps, 2_500_000, true},
		{"1000000 Kbit/sec", Kbps, 1_000_000, true},
		{"1,000,000", Kbps, 1_000_000, true},
		{"auto", Mbps, 0, false},
		{"", Mbps, 0, false},
		{"10 furlongs", Mbps, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSpeed(tt.in, tt.unit)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestMediaTypeChain tests the priority order of the media type resolver.
func TestMediaTypeChain(t *testing.T) {
	assert.Equal(t, []string{"transceiver", "hardware-class", "max-speed", "name-prefix"}, mediaTypeChain.Names())

	tests := []struct {
		name string
		raw  Raw
		want string
		rule string
	}{
		{"transceiver beats everything", Raw{"interface": "Gi1/0/1", "media_type": "10GBASE-SR", "hardware_type": "Gigabit Ethernet", "max_speed": "1000"}, "10gbase-x-sfpp", "transceiver"},
		{"sfp module string", Raw{"interface": "Te1/1/1", "transceiver": "SFP-10GBase-LR"}, "10gbase-x-sfpp", "transceiver"},
		{"hardware class", Raw{"interface": "Port-channel1", "hardware_type": "EtherChannel"}, "lag", "hardware-class"},
		{"max speed", Raw{"interface": "Ethernet1", "max_speed": "25G"}, "25gbase-x-sfp28", "max-speed"},
		{"bandwidth in kbit", Raw{"interface": "Ethernet1", "bandwidth": "1000000 Kbit"}, "1000base-t", "max-speed"},
		{"name prefix", Raw{"interface": "GigabitEthernet1/0/1"}, "1000base-t", "name-prefix"},
		{"loopback prefix", Raw{"interface": "Loopback0"}, "virtual", "name-prefix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule, ok := mediaTypeChain.Resolve(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

// TestNewInterface tests that a vendor record maps onto every canonical field.
func TestNewInterface(t *testing.T) {
	i := NewInterface(Raw{
		"interface":      "GigabitEthernet1/0/2",
		"description":    "uplink",
		"admin_status":   "up",
		"speed":          "a-1000",
		"duplex":         "a-full",
		"mtu":            "9216",
		"mode":           "trunk",
		"trunking_vlans": "ALL",
		"native_vlan":    "10",
		"channel_group":  "5",
		"address":        "0011.2233.4455",
	})

	assert.Equal(t, "gi1/0/2", i.Identity())
	assert.Equal(t, "uplink", *i.Description)
	assert.True(t, *i.Enabled)
	assert.Equal(t, "1000base-t", *i.Type)
	assert.Equal(t, int64(1_000_000), *i.Speed)
	assert.Equal(t, "full", *i.Duplex)
	assert.Equal(t, int64(9216), *i.MTU)
	assert.Equal(t, "tagged-all", *i.Mode)
	assert.Equal(t, int64(10), *i.UntaggedVLAN)
	assert.Equal(t, "po5", *i.LAG)
	assert.Equal(t, "00:11:22:33:44:55", *i.MACAddress)
	assert.Equal(t, []string{"po5"}, i.Requires())
}

// TestNewInterface_AbsentVersusEmpty tests that absent fields are omitted
// from Values while empty fields are kept as clearing values.
func TestNewInterface_AbsentVersusEmpty(t *testing.T) {
	absent := NewInterface(Raw{"interface": "Gi1/0/1"})
	assert.Nil(t, absent.Description)
	assert.Nil(t, absent.LAG)
	assert.NotContains(t, absent.Values(), "description")
	assert.NotContains(t, absent.Values(), "mode")
	assert.Empty(t, absent.Requires())

	empty := NewInterface(Raw{"interface": "Gi1/0/1", "description": "", "mode": "", "lag": ""})
	require.NotNil(t, empty.Description)
	assert.Equal(t, "", empty.Values()["description"])
	assert.Equal(t, "", empty.Values()["mode"])
	assert.Equal(t, "", empty.Values()["lag"])
	assert.Empty(t, empty.Requires())

	unknown := NewInterface(Raw{"interface": "Gi1/0/1", "duplex": "sideways", "mtu": "jumbo"})
	assert.Nil(t, unknown.Duplex)
	assert.Nil(t, unknown.MTU)

	untyped := NewInterface(Raw{"interface": "ge-0/0/1"})
	assert.Nil(t, untyped.Type)
	assert.NotContains(t, untyped.Values(), "type")
	_, _, ok := mediaTypeChain.Resolve(Raw{"interface": "Dialer1"})
	assert.False(t, ok)
}

// TestNewInterface_Enabled tests the enabled resolution order.
func TestNewInterface_Enabled(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
		want *bool
	}{
		{"explicit flag", Raw{"interface": "gi1", "enabled": "false", "status": "connected"}, ptr(false)},
		{"admin down", Raw{"interface": "gi1", "admin_status": "administratively down", "status": "connected"}, ptr(false)},
		{"no link is still enabled", Raw{"interface": "gi1", "status": "notconnect"}, ptr(true)},
		{"disabled port", Raw{"interface": "gi1", "status": "disabled"}, ptr(false)},
		{"unknown", Raw{"interface": "gi1", "status": "weird"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewInterface(tt.raw).Enabled)
		})
	}
}

// TestNewMACEntry tests MAC entry identity and port selection.
func TestNewMACEntry(t *testing.T) {
	e := NewMACEntry(Raw{"destination_address": "0011.2233.4455", "vlan": "10", "destination_port": "Gi1/0/1, Gi1/0/2", "type": "DYNAMIC"})
	assert.Equal(t, "001122334455|10|gi1/0/1", e.Identity())
	assert.Equal(t, "00:11:22:33:44:55", e.Values()["mac_address"])
	assert.Equal(t, "dynamic", *e.Type)

	assert.Equal(t, "", NewMACEntry(Raw{"vlan": "10"}).Identity())
}

// TestNewNeighbor tests that both ends of a link compute the same identity.
func TestNewNeighbor(t *testing.T) {
	a := NewNeighbor("sw1.example.com", Raw{"local_interface": "Gi1/0/1", "neighbor": "sw2.example.com", "neighbor_interface": "TenGigabitEthernet1/1/1"})
	b := NewNeighbor("sw2", Raw{"local_interface": "Te1/1/1", "neighbor": "SW1", "neighbor_interface": "GigabitEthernet1/0/1"})
	assert.Equal(t, "sw1:gi1/0/1|sw2:te1/1/1", a.Identity())
	assert.Equal(t, a.Identity(), b.Identity())

	byMAC := NewNeighbor("sw1", Raw{"local_interface": "Gi1/0/1", "chassis_id": "0011.2233.4455", "port_id": "Gi0/1"})
	assert.Equal(t, "001122334455", byMAC.RemoteChassis)
	assert.Equal(t, "", byMAC.RemoteDevice)
	assert.Contains(t, byMAC.Identity(), "001122334455:gi0/1")

	resolved := byMAC.Resolved("ap-7.example.com")
	assert.Equal(t, "ap-7:gi0/1|sw1:gi1/0/1", resolved.Identity())

	assert.Equal(t, "", NewNeighbor("sw1", Raw{"local_interface": "Gi1/0/1"}).Identity())
}

// TestPrefix tests mask-to-prefix conversion.
func TestPrefix(t *testing.T) {
	tests := []struct {
		addr, mask string
		want       string
		ok         bool
	}{
		{"10.0.0.1/24", "", "10.0.0.1/24", true},
		{"10.0.0.1", "24", "10.0.0.1/24", true},
		{"10.0.0.1", "255.255.255.0", "10.0.0.1/24", true},
		{"10.0.0.1", "/30", "10.0.0.1/30", true},
		{"10.0.0.1", "", "10.0.0.1/32", true},
		{"2001:db8::1", "64", "2001:db8::1/64", true},
		{"10.0.0.1", "255.0.255.0", "", false},
		{"10.0.0.1", "33", "", false},
		{"bogus", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr+" "+tt.mask, func(t *testing.T) {
			got, ok := Prefix(tt.addr, tt.mask)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNewAddress tests address normalization.
func TestNewAddress(t *testing.T) {
	a := NewAddress(Raw{"ip_address": "10.0.0.1", "mask": "255.255.255.0", "interface": "Vlan10", "secondary": "true"})
	assert.Equal(t, "10.0.0.1/24", a.Identity())
	assert.Equal(t, "vl10", *a.Interface)
	assert.Equal(t, "secondary", *a.Role)
	assert.Nil(t, a.VRF)
}

// TestNewDevice tests device normalization and the manufacturer chain.
func TestNewDevice(t *testing.T) {
	d := NewDevice(Raw{"hostname": "core-sw1.dc1.example.net", "serial": "['FOC1234X']", "hardware": "['C9300-48P']", "os": "IOS-XE"})
	assert.Equal(t, "core-sw1", d.Identity())
	assert.Equal(t, "FOC1234X", *d.Serial)
	assert.Equal(t, "C9300-48P", *d.DeviceType)
	assert.Equal(t, "cisco", *d.Manufacturer)
	assert.Equal(t, "IOS-XE", *d.Platform)

	explicit := NewDevice(Raw{"hostname": "leaf1", "vendor": "Arista", "platform": "junos"})
	assert.Equal(t, "Arista", *explicit.Manufacturer)

	none := NewDevice(Raw{"hostname": "leaf1"})
	assert.Nil(t, none.Manufacturer)
	assert.Equal(t, map[string]any{"name": "leaf1"}, none.Values())
}

// TestNewVlan tests VLAN identity and status mapping.
func TestNewVlan(t *testing.T) {
	v := NewVlan(Raw{"vlan_id": "100", "name": "users", "status": "act/lshut"})
	assert.Equal(t, "100", v.Identity())
	assert.Equal(t, "deprecated", *v.Status)
	assert.Equal(t, int64(100), v.Values()["vid"])

	assert.Equal(t, "", NewVlan(Raw{"vlan_id": "0"}).Identity())
	assert.Equal(t, "", NewVlan(Raw{"vlan_id": "5000"}).Identity())
}

// TestNewInventoryItem tests inventory name folding.
func TestNewInventoryItem(t *testing.T) {
	i := NewInventoryItem(Raw{"name": "Switch 1  FRU", "pid": "C9300-NM-8X", "sn": ""})
	assert.Equal(t, "Switch 1 FRU", i.Name)
	assert.Equal(t, "switch 1 fru", i.Identity())
	assert.Equal(t, "", i.Values()["serial"])
	assert.NotContains(t, i.Values(), "manufacturer")
}

// TestRawLookup tests exact and case-insensitive key lookup.
func TestRawLookup(t *testing.T) {
	r := Raw{"INTERFACE": " Gi1 ", "desc": ""}
	v, ok := r.Lookup("interface")
	assert.True(t, ok)
	assert.Equal(t, "Gi1", v)

	v, ok = r.Lookup("description", "desc")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = r.Lookup("mtu")
	assert.False(t, ok)
	assert.Equal(t, "Gi1", r.First("name", "interface"))
}
