package normalize

import (
	"net/netip"
	"strconv"
	"strings"

	"netsync/core/identity"
	"netsync/core/utils"
)

// Speed units in kbps, the unit the system of record stores.
const (
	Kbps int64 = 1
	Mbps int64 = 1000
	Gbps int64 = 1000 * 1000
)

// Source keys, in priority order, for the fields several vendors spell
// differently.
var (
	keysEnabled     = []string{"enabled", "is_enabled"}
	keysAdminStatus = []string{"admin_status", "admin_state", "adminstatus"}
	keysLinkStatus  = []string{"link_status", "status", "oper_status", "line_status", "protocol_status"}
	keysTransceiver = []string{"media_type", "transceiver", "transceiver_type", "optic"}
	keysHardware    = []string{"hardware_type", "hardware", "if_type"}
	keysMaxSpeed    = []string{"max_speed", "port_speed"}
	keysBandwidth   = []string{"bandwidth", "bw"}
	keysSpeed       = []string{"speed", "oper_speed", "link_speed"}
	keysMode        = []string{"mode", "switchport_mode", "vlan_mode", "port_mode"}
	keysTrunkVLANs  = []string{"trunking_vlans", "allowed_vlans", "tagged_vlans"}
	keysVendor      = []string{"manufacturer", "vendor"}
	keysPlatform    = []string{"platform", "os", "software"}
)

// adminStatus maps administrative state words to enabled.
var adminStatus = map[string]string{
	"up":                    "true",
	"enabled":               "true",
	"enable":                "true",
	"no shutdown":           "true",
	"down":                  "false",
	"disabled":              "false",
	"disable":               "false",
	"shutdown":              "false",
	"admin down":            "false",
	"administratively down": "false",
}

// linkStatus maps operational status words to enabled. Only an explicitly
// disabled port is reported as not enabled; a port without link is enabled.
var linkStatus = map[string]string{
	"connected":             "true",
	"notconnect":            "true",
	"notconnected":          "true",
	"up":                    "true",
	"down":                  "true",
	"lower layer down":      "true",
	"sfpabsent":             "true",
	"xcvrabsent":            "true",
	"noxcvr":                "true",
	"monitoring":            "true",
	"err-disabled":          "true",
	"inactive":              "true",
	"disabled":              "false",
	"admin down":            "false",
	"administratively down": "false",
	"shutdown":              "false",
}

// enabledChain: explicit flag, then administrative state, then link status.
var enabledChain = Chain{
	{Name: "enabled-flag", Resolve: func(r Raw) (string, bool) {
		b, ok := utils.ParseBool(r.First(keysEnabled...))
		return strconv.FormatBool(b), ok
	}},
	{Name: "admin-status", Resolve: fromTable(adminStatus, keysAdminStatus...)},
	{Name: "link-status", Resolve: fromTable(linkStatus, keysLinkStatus...)},
}

// transceiverTypes is matched in order against the transceiver-reported
// media type. More specific substrings come first.
var transceiverTypes = []pattern{
	{"400gbase", "400gbase-x-qsfpdd"},
	{"qsfp-dd", "400gbase-x-qsfpdd"},
	{"100gbase", "100gbase-x-qsfp28"},
	{"qsfp28", "100gbase-x-qsfp28"},
	{"qsfp-100g", "100gbase-x-qsfp28"},
	{"40gbase", "40gbase-x-qsfpp"},
	{"qsfp", "40gbase-x-qsfpp"},
	{"25gbase", "25gbase-x-sfp28"},
	{"sfp28", "25gbase-x-sfp28"},
	{"sfp-25g", "25gbase-x-sfp28"},
	{"10gbase-t", "10gbase-t"},
	{"10gbaset", "10gbase-t"},
	{"10gbase", "10gbase-x-sfpp"},
	{"sfp-10g", "10gbase-x-sfpp"},
	{"sfp+", "10gbase-x-sfpp"},
	{"10/100/1000", "1000base-t"},
	{"1000base-t", "1000base-t"},
	{"1000basetx", "1000base-t"},
	{"1000base", "1000base-x-sfp"},
	{"sfp", "1000base-x-sfp"},
	{"100base", "100base-tx"},
	{"10base-t", "10base-t"},
}

// hardwareTypes is matched against the hardware class a device reports for
// the port. Physical Ethernet classes are left to the speed rule.
var hardwareTypes = []pattern{
	{"port-channel", "lag"},
	{"etherchannel", "lag"},
	{"aggregate", "lag"},
	{"ieee 802.3ad", "lag"},
	{"bundle", "lag"},
	{"loopback", "virtual"},
	{"tunnel", "virtual"},
	{"ethernet svi", "virtual"},
	{"vlan", "virtual"},
	{"bridge", "bridge"},
}

// speedTypes maps a maximum port speed in kbps to a media type.
var speedTypes = []struct {
	kbps  int64
	value string
}{
	{10 * Mbps, "10base-t"},
	{100 * Mbps, "100base-tx"},
	{1 * Gbps, "1000base-t"},
	{2500 * Mbps, "2.5gbase-t"},
	{5 * Gbps, "5gbase-t"},
	{10 * Gbps, "10gbase-x-sfpp"},
	{25 * Gbps, "25gbase-x-sfp28"},
	{40 * Gbps, "40gbase-x-qsfpp"},
	{100 * Gbps, "100gbase-x-qsfp28"},
	{400 * Gbps, "400gbase-x-qsfpdd"},
}

// namePrefixTypes is matched against the canonical interface name. A prefix
// only matches when it is followed by a digit.
var namePrefixTypes = []pattern{
	{"twh", "200gbase-x-qsfp56"},
	{"twe", "25gbase-x-sfp28"},
	{"mgmt", "1000base-t"},
	{"po", "lag"},
	{"be", "lag"},
	{"lo", "virtual"},
	{"vl", "virtual"},
	{"tu", "virtual"},
	{"fa", "100base-tx"},
	{"gi", "1000base-t"},
	{"te", "10gbase-x-sfpp"},
	{"fo", "40gbase-x-qsfpp"},
	{"hu", "100gbase-x-qsfp28"},
	{"fh", "400gbase-x-qsfpdd"},
}

// mediaTypeChain: transceiver-reported type beats the hardware class, which
// beats the maximum port speed, which beats the interface name prefix. When
// nothing resolves the type is absent.
var mediaTypeChain = Chain{
	{Name: "transceiver", Resolve: fromPatterns(transceiverTypes, keysTransceiver...)},
	{Name: "hardware-class", Resolve: fromPatterns(hardwareTypes, keysHardware...)},
	{Name: "max-speed", Resolve: func(r Raw) (string, bool) {
		kbps, ok := ParseSpeed(r.First(keysMaxSpeed...), Mbps)
		if !ok {
			kbps, ok = ParseSpeed(r.First(keysBandwidth...), Kbps)
		}
		if !ok {
			return "", false
		}
		return speedType(kbps)
	}},
	{Name: "name-prefix", Resolve: func(r Raw) (string, bool) {
		return namePrefixType(identity.Interface(r.First(keysInterfaceName...)))
	}},
}

func speedType(kbps int64) (string, bool) {
	for _, st := range speedTypes {
		if st.kbps == kbps {
			return st.value, true
		}
	}
	return "", false
}

func namePrefixType(name string) (string, bool) {
	for _, p := range namePrefixTypes {
		rest, ok := strings.CutPrefix(name, p.contains)
		if ok && rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			return p.value, true
		}
	}
	return "", false
}

// speedChain: the operational speed beats the configured bandwidth.
var speedChain = Chain{
	{Name: "speed", Resolve: func(r Raw) (string, bool) {
		return formatSpeed(ParseSpeed(r.First(keysSpeed...), Mbps))
	}},
	{Name: "bandwidth", Resolve: func(r Raw) (string, bool) {
		return formatSpeed(ParseSpeed(r.First(keysBandwidth...), Kbps))
	}},
}

func formatSpeed(kbps int64, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	return strconv.FormatInt(kbps, 10), true
}

// speedUnits maps a unit suffix to kbps.
var speedUnits = map[string]int64{
	"k": Kbps, "kb": Kbps, "kbps": Kbps, "kbit": Kbps, "kbit/s": Kbps, "kb/s": Kbps, "kbits": Kbps,
	"m": Mbps, "mb": Mbps, "mbps": Mbps, "mbit": Mbps, "mbit/s": Mbps, "mb/s": Mbps, "mbits": Mbps,
	"g": Gbps, "gb": Gbps, "gbps": Gbps, "gbit": Gbps, "gbit/s": Gbps, "gb/s": Gbps, "gbits": Gbps,
	"gig": Gbps, "gige": Gbps,
}

// ParseSpeed converts a printed speed ("1000", "a-1000", "10G", "100 Mb/s",
// "1000000 Kbit/sec") to kbps. A bare number is read in bareUnit. "auto" and
// other words yield ok=false.
func ParseSpeed(s string, bareUnit int64) (int64, bool) {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	s = strings.TrimPrefix(s, "a-")
	s = strings.TrimSuffix(s, "ec")
	s = strings.TrimSuffix(s, "/s")
	if s == "" {
		return 0, false
	}

	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.' || s[i] == ',') {
		i++
	}
	if i == 0 {
		return 0, false
	}
	num, err := strconv.ParseFloat(strings.ReplaceAll(s[:i], ",", ""), 64)
	if err != nil || num < 0 {
		return 0, false
	}

	unit := bareUnit
	if suffix := s[i:]; suffix != "" {
		u, ok := speedUnits[suffix]
		if !ok {
			u, ok = speedUnits[suffix+"/s"]
		}
		if !ok {
			return 0, false
		}
		unit = u
	}
	return int64(num * float64(unit)), true
}

// duplexWords maps printed duplex values.
var duplexWords = map[string]string{
	"full":        "full",
	"a-full":      "full",
	"full-duplex": "full",
	"fdx":         "full",
	"half":        "half",
	"a-half":      "half",
	"half-duplex": "half",
	"hdx":         "half",
	"auto":        "auto",
}

// modeWords maps switchport modes to the system-of-record vocabulary.
var modeWords = map[string]string{
	"access":            "access",
	"static access":     "access",
	"trunk":             "tagged",
	"tagged":            "tagged",
	"tagged-all":        "tagged-all",
	"dot1q-tunnel":      "access",
	"dynamic auto":      "access",
	"dynamic desirable": "tagged",
}

// allVLANs are the trunk allowed-list values meaning every VLAN.
var allVLANs = map[string]bool{"all": true, "1-4094": true, "1-4095": true, "1-4093": true}

// modeChain: a trunk carrying every VLAN is tagged-all; otherwise the
// printed mode is mapped as is.
var modeChain = Chain{
	{Name: "trunk-all", Resolve: func(r Raw) (string, bool) {
		mode := modeWords[strings.ToLower(r.First(keysMode...))]
		if mode == "tagged" && allVLANs[strings.ToLower(strings.ReplaceAll(r.First(keysTrunkVLANs...), " ", ""))] {
			return "tagged-all", true
		}
		return "", false
	}},
	{Name: "mode", Resolve: fromTable(modeWords, keysMode...)},
}

// platformVendors maps a platform or OS name to its manufacturer.
var platformVendors = []pattern{
	{"nx-os", "cisco"},
	{"nxos", "cisco"},
	{"ios", "cisco"},
	{"asa", "cisco"},
	{"eos", "arista"},
	{"junos", "juniper"},
	{"panos", "palo alto networks"},
	{"pan-os", "palo alto networks"},
	{"fortios", "fortinet"},
	{"routeros", "mikrotik"},
	{"comware", "hpe"},
	{"aruba", "aruba"},
	{"procurve", "hpe"},
	{"vyos", "vyos"},
	{"cumulus", "nvidia"},
	{"sonic", "sonic"},
}

// manufacturerChain: an explicit vendor beats the platform mapping.
var manufacturerChain = Chain{
	{Name: "vendor", Resolve: func(r Raw) (string, bool) {
		v := r.First(keysVendor...)
		return v, v != ""
	}},
	{Name: "platform", Resolve: fromPatterns(platformVendors, keysPlatform...)},
}

// vlanStatus maps VLAN state words.
var vlanStatus = map[string]string{
	"active":    "active",
	"act/unsup": "active",
	"act/lshut": "deprecated",
	"act/ishut": "deprecated",
	"sus/lshut": "deprecated",
	"sus/ishut": "deprecated",
	"suspended": "deprecated",
	"suspend":   "deprecated",
	"reserved":  "reserved",
}

// addressRoles maps address flags to roles.
var addressRoles = map[string]string{
	"secondary": "secondary",
	"true":      "secondary",
	"vip":       "vip",
	"vrrp":      "vrrp",
	"hsrp":      "hsrp",
	"anycast":   "anycast",
	"loopback":  "loopback",
	"primary":   "",
	"false":     "",
}

// Prefix joins an address and a mask (dotted "255.255.255.0", "/24" or
// "24") into CIDR form. An address already in CIDR form ignores mask; one
// without a mask becomes a host prefix.
func Prefix(addr, mask string) (string, bool) {
	addr = strings.TrimSpace(addr)
	if p, err := netip.ParsePrefix(addr); err == nil {
		return p.String(), true
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return "", false
	}
	bits := ip.BitLen()
	mask = strings.TrimPrefix(strings.TrimSpace(mask), "/")
	if mask != "" {
		n, ok := maskBits(mask, ip.Is4())
		if !ok {
			return "", false
		}
		bits = n
	}
	p, err := ip.Prefix(bits)
	if err != nil {
		return "", false
	}
	return netip.PrefixFrom(ip, p.Bits()).String(), true
}

// maskBits converts a prefix length or a dotted IPv4 netmask to a bit count.
func maskBits(mask string, v4 bool) (int, bool) {
	if n, err := strconv.Atoi(mask); err == nil {
		limit := 128
		if v4 {
			limit = 32
		}
		return n, n >= 0 && n <= limit
	}
	m, err := netip.ParseAddr(mask)
	if err != nil || !m.Is4() || !v4 {
		return 0, false
	}
	b := m.As4()
	n := 0
	seenZero := false
	for _, octet := range b {
		for bit := 7; bit >= 0; bit-- {
			if octet&(1<<bit) != 0 {
				if seenZero {
					return 0, false
				}
				n++
			} else {
				seenZero = true
			}
		}
	}
	return n, true
}
