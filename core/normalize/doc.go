// Package normalize maps the flat, string-keyed records produced by device
// parsers into canonical entity records.
//
// Each entity kind has its own record type (Interface, MACEntry, Neighbor,
// InventoryItem, Address, Device, Vlan) built by a New* constructor. The
// constructors are pure and never fail: unknown keys are ignored and
// unparseable values are treated as absent.
//
// Fields are pointers. A nil field was not reported by the device and is
// never compared; a field reported with an empty value is kept as the zero
// value and clears the remote side.
//
// Ambiguous attributes (enabled state, media type, speed, switchport mode,
// manufacturer) are resolved by a Chain: an ordered list of named rules
// where the first rule that yields a value wins. The chains and the lookup
// tables they use are package-level data.
package normalize
