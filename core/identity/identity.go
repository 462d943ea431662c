package identity

import (
	"net/netip"
	"sort"
	"strings"
)

// Kind selects the canonicalization rule applied by Canonical.
type Kind string

const (
	KindInterface Kind = "interface"
	KindHostname  Kind = "hostname"
	KindMAC       Kind = "mac"
)

// alias maps a vendor long form (or a non-canonical abbreviation) to the
// canonical short prefix. Longest prefixes must come first.
type alias struct {
	long  string
	short string
}

// interfaceAliases is matched in order against the case-folded name. A prefix
// only matches when it is directly followed by a digit, so canonical short
// forms never match a longer alias again.
var interfaceAliases = []alias{
	{"twohundredgigabitethernet", "twh"},
	{"fourhundredgigabitethernet", "fh"},
	{"hundredgigabitethernet", "hu"},
	{"fiftygigabitethernet", "fi"},
	{"fortygigabitethernet", "fo"},
	{"twentyfivegigabitethernet", "twe"},
	{"twentyfivegige", "twe"},
	{"tengigabitethernet", "te"},
	{"fivegigabitethernet", "fiv"},
	{"twogigabitethernet", "tw"},
	{"gigabitethernet", "gi"},
	{"fastethernet", "fa"},
	{"hundredgige", "hu"},
	{"fortygige", "fo"},
	{"tengige", "te"},
	{"bundle-ether", "be"},
	{"port-channel", "po"},
	{"portchannel", "po"},
	{"management", "mgmt"},
	{"ethernet", "eth"},
	{"loopback", "lo"},
	{"tunnel", "tu"},
	{"serial", "se"},
	{"vlan", "vl"},
	{"giga", "gi"},
	{"gig", "gi"},
	{"ten", "te"},
	{"mgt", "mgmt"},
	{"eth", "eth"},
	{"et", "eth"},
	{"lag", "po"},
	{"ma", "mgmt"},
	{"g", "gi"},
}

// Interface returns the canonical short form of an interface name.
func Interface(name string) string {
	n := strings.ToLower(strings.Join(strings.Fields(name), ""))
	if n == "" {
		return ""
	}
	for _, a := range interfaceAliases {
		if !strings.HasPrefix(n, a.long) {
			continue
		}
		rest := n[len(a.long):]
		if rest == "" || !isDigit(rest[0]) {
			continue
		}
		return a.short + rest
	}
	return n
}

// Hostname returns the lower-cased host label without its domain suffix.
// IP address literals are returned unchanged apart from case folding.
func Hostname(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, ".")
	if n == "" {
		return ""
	}
	if _, err := netip.ParseAddr(n); err == nil {
		return n
	}
	if i := strings.IndexByte(n, '.'); i > 0 {
		return n[:i]
	}
	return n
}

// MAC strips every non-hex character and lower-cases the result. Inputs that
// do not contain exactly 12 hex digits are returned stripped and lower-cased.
func MAC(addr string) string {
	var b strings.Builder
	b.Grow(12)
	for _, r := range strings.ToLower(addr) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
			b.WriteRune(r)
		case r == ':' || r == '-' || r == '.' || r == ' ':
		default:
			return strings.ToLower(strings.TrimSpace(addr))
		}
	}
	return b.String()
}

// IsMAC reports whether addr canonicalizes to a 12 hex digit MAC address.
func IsMAC(addr string) bool {
	m := MAC(addr)
	if len(m) != 12 {
		return false
	}
	for i := 0; i < len(m); i++ {
		if !isHex(m[i]) {
			return false
		}
	}
	return true
}

// FormatMAC renders a MAC address in colon-separated lower-case form, the
// representation written to the system of record. Invalid input is returned
// canonicalized but unformatted.
func FormatMAC(addr string) string {
	m := MAC(addr)
	if !IsMAC(m) {
		return m
	}
	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, m[i:i+2])
	}
	return strings.Join(parts, ":")
}

// Canonical dispatches to the rule selected by kind. Unknown kinds are
// trimmed and case-folded.
func Canonical(raw string, kind Kind) string {
	switch kind {
	case KindInterface:
		return Interface(raw)
	case KindHostname:
		return Hostname(raw)
	case KindMAC:
		return MAC(raw)
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

// Endpoint builds the "device:port" identity of one side of a link.
func Endpoint(device, port string) string {
	return Hostname(device) + ":" + Interface(port)
}

// Pair joins two endpoint identities in sorted order.
func Pair(a, b string) string {
	ends := []string{a, b}
	sort.Strings(ends)
	return ends[0] + "|" + ends[1]
}

// Join builds a composite identity from already canonical parts.
func Join(parts ...string) string {
	return strings.Join(parts, "|")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f')
}
