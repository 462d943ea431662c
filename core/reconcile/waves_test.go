package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creates(rs ...testRecord) []ChangeItem {
	out := make([]ChangeItem, len(rs))
	for i, r := range rs {
		out[i] = ChangeItem{Identity: r.id, Kind: ChangeCreate, Local: r}
	}
	return out
}

// TestEdges tests that edges come from Requires and drop self references.
func TestEdges(t *testing.T) {
	edges := Edges(records(rec("po1", "lag", "po1"), rec("gi1", "lag", "po1"), rec("gi2")))
	assert.Equal(t, []DependencyEdge{{Dependency: "po1", Dependent: "gi1"}}, edges)
}

// TestWaves_AggregateFirst tests that aggregates go into the first wave and
// everything else into the next.
func TestWaves_AggregateFirst(t *testing.T) {
	local := []testRecord{rec("po1"), rec("gi1", "lag", "po1"), rec("gi2", "lag", "po1"), rec("gi3")}
	waves, blocked := Waves(creates(local...), Edges(records(local...)), nil)

	assert.Empty(t, blocked)
	require.Len(t, waves, 2)
	assert.Equal(t, []string{"po1"}, identities(waves[0]))
	assert.Equal(t, []string{"gi1", "gi2", "gi3"}, identities(waves[1]))
}

// TestWaves_ExistingDependency tests that a dependency already present
// remotely needs no earlier wave.
func TestWaves_ExistingDependency(t *testing.T) {
	local := []testRecord{rec("gi1", "lag", "po1"), rec("gi2")}
	waves, blocked := Waves(creates(local...), Edges(records(local...)), map[string]int64{"po1": 40})

	assert.Empty(t, blocked)
	require.Len(t, waves, 1)
	assert.Equal(t, []string{"gi1", "gi2"}, identities(waves[0]))
}

// TestWaves_MissingDependency tests that an unresolvable dependency skips
// the dependent and everything depending on it.
func TestWaves_MissingDependency(t *testing.T) {
	local := []testRecord{rec("po2", "lag", "po9"), rec("gi1", "lag", "po2"), rec("gi2")}
	waves, blocked := Waves(creates(local...), Edges(records(local...)), nil)

	require.Len(t, waves, 1)
	assert.Equal(t, []string{"gi2"}, identities(waves[0]))
	require.Len(t, blocked, 2)
	assert.Equal(t, ChangeSkip, blocked[0].Kind)
	assert.Contains(t, blocked[0].Reason, `"po9"`)
	assert.Contains(t, blocked[1].Reason, `"po2"`)
}

// TestWaves_Cycle tests that a dependency cycle is skipped, not looped on.
func TestWaves_Cycle(t *testing.T) {
	local := []testRecord{rec("a", "lag", "b"), rec("b", "lag", "a"), rec("c")}
	waves, blocked := Waves(creates(local...), Edges(records(local...)), nil)

	require.Len(t, waves, 1)
	assert.Equal(t, []string{"c"}, identities(waves[0]))
	require.Len(t, blocked, 2)
	for _, item := range blocked {
		assert.Equal(t, ReasonDependencyCycle, item.Reason)
	}
}

// TestWaves_Chain tests ordering across more than two levels.
func TestWaves_Chain(t *testing.T) {
	local := []testRecord{rec("c", "lag", "b"), rec("b", "lag", "a"), rec("a")}
	waves, _ := Waves(creates(local...), Edges(records(local...)), nil)

	require.Len(t, waves, 3)
	assert.Equal(t, []string{"a"}, identities(waves[0]))
	assert.Equal(t, []string{"b"}, identities(waves[1]))
	assert.Equal(t, []string{"c"}, identities(waves[2]))
}

// TestWaves_Empty tests the degenerate case.
func TestWaves_Empty(t *testing.T) {
	waves, blocked := Waves(nil, nil, nil)
	assert.Empty(t, waves)
	assert.Empty(t, blocked)
}
