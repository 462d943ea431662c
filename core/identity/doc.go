// Package identity canonicalizes names so that locally collected records and
// system-of-record objects can be matched independent of vendor naming quirks.
//
// # Kinds
//
//   - Interface: whitespace stripped, case-folded, vendor long forms collapsed
//     to one short form ("GigabitEthernet0/1" and "Gi0/1" both become "gi0/1").
//   - Hostname: case-folded with the domain suffix removed. IP literals are kept.
//   - MAC: punctuation stripped and lower-cased to 12 hex digits.
//
// Every function in this package is idempotent: applying it to its own output
// returns the same value. Endpoint pairs are sorted before joining so that
// Pair(a, b) == Pair(b, a).
//
// # Usage
//
//	key := identity.Canonical("TenGigabitEthernet1/0/1", identity.KindInterface) // "te1/0/1"
//	link := identity.Pair(identity.Endpoint("sw1.lab", "Gi0/1"), identity.Endpoint("sw2", "Gi0/2"))
package identity
