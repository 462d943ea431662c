package reconcile

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"netsync/core/identity"
	"netsync/core/normalize"
	"netsync/core/utils"
)

// Comparator reports whether a local and a remote value are equal.
type Comparator func(local, remote any) bool

// Exact compares string forms. nil equals the empty string.
func Exact(local, remote any) bool {
	return utils.ToString(local) == utils.ToString(remote)
}

// FoldCase compares trimmed string forms case-insensitively. Used for enums.
func FoldCase(local, remote any) bool {
	return strings.EqualFold(strings.TrimSpace(utils.ToString(local)), strings.TrimSpace(utils.ToString(remote)))
}

// Numeric compares integer values. nil and "" equal 0.
func Numeric(local, remote any) bool {
	return utils.ToInt64(local) == utils.ToInt64(remote)
}

// Speed compares speeds after converting both sides to kbps. Numbers are
// taken as kbps; strings may carry a unit ("10G").
func Speed(local, remote any) bool {
	return kbps(local) == kbps(remote)
}

func kbps(v any) int64 {
	if s, ok := v.(string); ok {
		n, _ := normalize.ParseSpeed(s, normalize.Kbps)
		return n
	}
	return utils.ToInt64(v)
}

// MAC compares MAC addresses in any textual encoding.
func MAC(local, remote any) bool {
	return identity.MAC(utils.ToString(local)) == identity.MAC(utils.ToString(remote))
}

// Bool compares truth values.
func Bool(local, remote any) bool {
	return utils.ToBool(local) == utils.ToBool(remote)
}

// Loose is the default comparator: numbers by value, booleans by truth,
// everything else by exact string form.
func Loose(local, remote any) bool {
	if isNumeric(local) || isNumeric(remote) {
		_, lok := utils.ParseInt(utils.ToString(local))
		_, rok := utils.ParseInt(utils.ToString(remote))
		if (lok || blank(local)) && (rok || blank(remote)) {
			return Numeric(local, remote)
		}
	}
	if _, ok := local.(bool); ok {
		return Bool(local, remote)
	}
	if _, ok := remote.(bool); ok {
		return Bool(local, remote)
	}
	return Exact(local, remote)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func blank(v any) bool {
	return v == nil || v == ""
}

// ValidatePatterns checks exclusion patterns for syntax errors.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := path.Match(globSafe(p), ""); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
	}
	return nil
}

// Excluded reports whether identity matches one of the glob patterns.
// A "*" also matches across "/" so "gi*" covers "gi1/0/1".
func Excluded(patterns []string, id string) bool {
	name := globSafe(id)
	for _, p := range patterns {
		if ok, err := path.Match(globSafe(p), name); err == nil && ok {
			return true
		}
	}
	return false
}

// globSafe swaps the path separator for a byte that never occurs in
// identities so path.Match treats the whole identity as one element.
func globSafe(s string) string {
	return strings.ReplaceAll(s, "/", "\x1f")
}

// Diff computes the field changes between a local record and its remote
// projection over fields. Fields the local record does not report are not
// compared.
func Diff(local Record, remote Projection, fields []string, comparators map[string]Comparator) []FieldChange {
	lv, rv := local.Values(), remote.Values()
	var changes []FieldChange
	for _, f := range fields {
		l, ok := lv[f]
		if !ok {
			continue
		}
		r := rv[f]
		cmp := comparators[f]
		if cmp == nil {
			cmp = Loose
		}
		if !cmp(l, r) {
			changes = append(changes, FieldChange{Field: f, Old: r, New: l})
		}
	}
	return changes
}

// Compare classifies every local record into create, update or skip and,
// with cleanup, every unmatched remote object into delete or skip.
//
// Duplicate local identities: the last record wins and earlier ones are
// skipped as superseded. Duplicate remote identities: the lowest id is the
// match and the others are skipped, never deleted.
func Compare(kind string, local []Record, remote []Projection, opts Options) ChangeSet {
	cs := ChangeSet{Kind: kind, Existing: make(map[string]int64)}

	latest := make(map[string]int, len(local))
	for i, rec := range local {
		if id := rec.Identity(); id != "" {
			latest[id] = i
		}
	}

	matches := make(map[string]Projection, len(remote))
	sorted := make([]Projection, len(remote))
	copy(sorted, remote)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	var primaries []Projection
	for _, p := range sorted {
		id := p.Identity()
		if id == "" {
			cs.add(ChangeItem{Kind: ChangeSkip, Remote: p, Reason: ReasonEmptyIdentity})
			continue
		}
		if first, dup := matches[id]; dup {
			cs.add(ChangeItem{Identity: id, Kind: ChangeSkip, Remote: p, Reason: fmt.Sprintf("duplicate of remote id %d", first.ID())})
			continue
		}
		matches[id] = p
		primaries = append(primaries, p)
	}

	visited := make(map[string]bool, len(latest))
	for i, rec := range local {
		id := rec.Identity()
		switch {
		case id == "":
			cs.add(ChangeItem{Kind: ChangeSkip, Local: rec, Reason: ReasonEmptyIdentity})
			continue
		case latest[id] != i:
			cs.add(ChangeItem{Identity: id, Kind: ChangeSkip, Local: rec, Reason: ReasonSuperseded})
			continue
		}
		visited[id] = true

		p, found := matches[id]
		item := ChangeItem{Identity: id, Local: rec, Remote: p}
		switch {
		case Excluded(opts.Exclude, id):
			item.Kind, item.Reason = ChangeSkip, ReasonExcluded
		case !found && opts.CreateMissing:
			item.Kind = ChangeCreate
		case !found:
			item.Kind, item.Reason = ChangeSkip, ReasonCreateDisabled
		case !opts.UpdateExisting:
			item.Kind, item.Reason = ChangeSkip, ReasonUpdateDisabled
		default:
			item.Changes = Diff(rec, p, opts.Fields, opts.Comparators)
			if len(item.Changes) > 0 {
				item.Kind = ChangeUpdate
			} else {
				item.Kind, item.Reason = ChangeSkip, ReasonNoChanges
			}
		}
		cs.add(item)
	}

	for _, p := range primaries {
		id := p.Identity()
		if visited[id] {
			cs.Existing[id] = p.ID()
			continue
		}
		switch {
		case !opts.Cleanup:
			cs.Existing[id] = p.ID()
		case Excluded(opts.Exclude, id):
			cs.Existing[id] = p.ID()
			cs.add(ChangeItem{Identity: id, Kind: ChangeSkip, Remote: p, Reason: ReasonExcluded})
		case opts.Keep[id] != "":
			cs.Existing[id] = p.ID()
			cs.add(ChangeItem{Identity: id, Kind: ChangeSkip, Remote: p, Reason: opts.Keep[id]})
		default:
			cs.add(ChangeItem{Identity: id, Kind: ChangeDelete, Remote: p})
		}
	}
	return cs
}
