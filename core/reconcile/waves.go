package reconcile

// DependencyEdge declares that the creation of Dependent requires the remote
// id of Dependency.
type DependencyEdge struct {
	Dependency string `json:"dependency"`
	Dependent  string `json:"dependent"`
}

// Edges derives the dependency edges of local records. Records that do not
// implement Dependent contribute none; self references are dropped.
func Edges(records []Record) []DependencyEdge {
	var edges []DependencyEdge
	for _, rec := range records {
		dep, ok := rec.(Dependent)
		if !ok {
			continue
		}
		id := rec.Identity()
		for _, req := range dep.Requires() {
			if req == "" || req == id {
				continue
			}
			edges = append(edges, DependencyEdge{Dependency: req, Dependent: id})
		}
	}
	return edges
}

// Waves partitions creates by dependency depth. Every create is placed in
// the latest wave that still precedes its dependents, so records nothing
// depends on go into the last wave and aggregates into the first. A create
// depends only on creates of earlier waves; dependencies found in existing
// are already satisfied.
//
// Items whose dependency is neither created nor existing, items depending on
// such items, and items on a cycle are returned as blocked skips.
func Waves(creates []ChangeItem, edges []DependencyEdge, existing map[string]int64) (waves [][]ChangeItem, blocked []ChangeItem) {
	deps := make(map[string][]string)
	seen := make(map[DependencyEdge]bool)
	for _, e := range edges {
		if e.Dependency == e.Dependent || seen[e] {
			continue
		}
		seen[e] = true
		deps[e.Dependent] = append(deps[e.Dependent], e.Dependency)
	}

	planned := make(map[string]bool, len(creates))
	for _, item := range creates {
		planned[item.Identity] = true
	}

	reasons := make(map[string]error)
	for _, item := range creates {
		for _, dep := range deps[item.Identity] {
			if _, ok := existing[dep]; ok || planned[dep] {
				continue
			}
			reasons[item.Identity] = &MissingDependencyError{Identity: item.Identity, Dependency: dep}
			break
		}
	}
	for changed := true; changed; {
		changed = false
		for _, item := range creates {
			if reasons[item.Identity] != nil {
				continue
			}
			for _, dep := range deps[item.Identity] {
				if planned[dep] && reasons[dep] != nil {
					reasons[item.Identity] = &MissingDependencyError{Identity: item.Identity, Dependency: dep}
					changed = true
					break
				}
			}
		}
	}

	var remaining []ChangeItem
	for _, item := range creates {
		if err := reasons[item.Identity]; err != nil {
			blocked = append(blocked, skipped(item, err.Error()))
			continue
		}
		remaining = append(remaining, item)
	}

	// Kahn layering only detects cycles; placement is done below.
	placed := make(map[string]bool, len(remaining))
	for len(remaining) > 0 {
		var next []ChangeItem
		progress := false
		for _, item := range remaining {
			ready := true
			for _, dep := range deps[item.Identity] {
				if planned[dep] && !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				placed[item.Identity] = true
				progress = true
			} else {
				next = append(next, item)
			}
		}
		if !progress {
			for _, item := range next {
				blocked = append(blocked, skipped(item, ReasonDependencyCycle))
			}
			break
		}
		remaining = next
	}

	dependents := make(map[string][]string)
	for _, item := range creates {
		if !placed[item.Identity] {
			continue
		}
		for _, dep := range deps[item.Identity] {
			if placed[dep] {
				dependents[dep] = append(dependents[dep], item.Identity)
			}
		}
	}
	height := make(map[string]int)
	var measure func(id string) int
	measure = func(id string) int {
		if h, ok := height[id]; ok {
			return h
		}
		h := 0
		for _, d := range dependents[id] {
			h = max(h, measure(d)+1)
		}
		height[id] = h
		return h
	}
	top := -1
	for _, item := range creates {
		if placed[item.Identity] {
			top = max(top, measure(item.Identity))
		}
	}
	if top < 0 {
		return nil, blocked
	}

	waves = make([][]ChangeItem, top+1)
	for _, item := range creates {
		if placed[item.Identity] {
			n := top - height[item.Identity]
			waves[n] = append(waves[n], item)
		}
	}
	return waves, blocked
}

func skipped(item ChangeItem, reason string) ChangeItem {
	item.Kind = ChangeSkip
	item.Reason = reason
	return item
}
