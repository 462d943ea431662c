package normalize

import (
	"strings"
)

// Raw is one parser record: flat and string keyed.
type Raw map[string]string

// Lookup returns the value of the first key present in r, trimmed. Keys
// match exactly first, then case-insensitively. ok reports whether any key
// was present, even with an empty value.
func (r Raw) Lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return strings.TrimSpace(v), true
		}
	}
	for _, k := range keys {
		for have, v := range r {
			if strings.EqualFold(have, k) {
				return strings.TrimSpace(v), true
			}
		}
	}
	return "", false
}

// First returns the first non-empty value among keys.
func (r Raw) First(keys ...string) string {
	for _, k := range keys {
		if v, ok := r.Lookup(k); ok && v != "" {
			return v
		}
	}
	return ""
}

// Rule is one step of a priority chain. Resolve reports ok=false when the
// rule does not apply to the record.
type Rule struct {
	Name    string
	Resolve func(Raw) (string, bool)
}

// Chain is an ordered list of rules. The first rule that applies wins.
type Chain []Rule

// Resolve returns the value of the first applicable rule and its name.
func (c Chain) Resolve(r Raw) (value, rule string, ok bool) {
	for _, step := range c {
		if v, ok := step.Resolve(r); ok {
			return v, step.Name, true
		}
	}
	return "", "", false
}

// Names lists the rule names in priority order.
func (c Chain) Names() []string {
	out := make([]string, len(c))
	for i, step := range c {
		out[i] = step.Name
	}
	return out
}

// pattern maps a case-folded substring to a canonical value.
type pattern struct {
	contains string
	value    string
}

// matchPatterns returns the value of the first pattern contained in s.
func matchPatterns(table []pattern, s string) (string, bool) {
	s = strings.ToLower(s)
	if s == "" {
		return "", false
	}
	for _, p := range table {
		if strings.Contains(s, p.contains) {
			return p.value, true
		}
	}
	return "", false
}

// fromTable builds a rule that reads the first non-empty key and maps it
// through an exact-match table.
func fromTable(table map[string]string, keys ...string) func(Raw) (string, bool) {
	return func(r Raw) (string, bool) {
		v := strings.ToLower(r.First(keys...))
		if v == "" {
			return "", false
		}
		out, ok := table[v]
		return out, ok
	}
}

// fromPatterns builds a rule that reads the first non-empty key and maps it
// through a substring table.
func fromPatterns(table []pattern, keys ...string) func(Raw) (string, bool) {
	return func(r Raw) (string, bool) {
		return matchPatterns(table, r.First(keys...))
	}
}

// present reports whether any key is present, even empty.
func (r Raw) present(keys ...string) bool {
	_, ok := r.Lookup(keys...)
	return ok
}
