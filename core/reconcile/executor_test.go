package reconcile

import (
	"context"
	"sort"
	"strings"
	"testing"

	"netsync/core/metrics"
	"netsync/core/remote"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func lagScenario() []Record {
	return records(
		rec("po1"),
		rec("gi1", "lag", "po1"),
		rec("gi2", "lag", "po1"),
		rec("gi3"),
	)
}

func interfacesByName(t *testing.T, store remote.Store, device int64) map[string]remote.Object {
	t.Helper()
	objs, err := store.List(context.Background(), remote.KindInterface, remote.Filter{"device_id": device})
	require.NoError(t, err)
	out := make(map[string]remote.Object, len(objs))
	for _, obj := range objs {
		out[obj.Fields.String("name")] = obj
	}
	return out
}

func lagOptions() Options {
	opts := DefaultOptions()
	opts.Fields = []string{"description", "lag"}
	return opts
}

// TestApply_AggregateScenario tests that members are created after their
// aggregate and reference its new id.
func TestApply_AggregateScenario(t *testing.T) {
	store, dev := newDevice(t)
	local := lagScenario()

	cs := Compare("interface", local, nil, lagOptions())
	report := NewExecutor(store, zap.NewNop(), nil).Apply(context.Background(), cs, Edges(local), ifaceApplier{device: dev})

	assert.Equal(t, 4, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Deleted)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.DryRun)

	byName := interfacesByName(t, store, dev)
	require.Len(t, byName, 4)
	agg := byName["po1"].ID
	assert.Equal(t, agg, byName["gi1"].Fields.Int("lag_id"))
	assert.Equal(t, agg, byName["gi2"].Fields.Int("lag_id"))
	assert.NotContains(t, byName["gi3"].Fields, "lag_id")
}

// TestApply_Idempotent tests that a second run against unchanged state
// changes nothing.
func TestApply_Idempotent(t *testing.T) {
	store, dev := newDevice(t)
	local := lagScenario()
	exec := NewExecutor(store, nil, nil)
	opts := lagOptions()
	opts.Cleanup = true

	first := exec.Apply(context.Background(), Compare("interface", local, project(t, store, dev), opts), Edges(local), ifaceApplier{device: dev})
	require.Equal(t, 4, first.Created)

	second := exec.Apply(context.Background(), Compare("interface", local, project(t, store, dev), opts), Edges(local), ifaceApplier{device: dev})
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 0, second.Deleted)
	assert.Equal(t, 4, second.Skipped)
	assert.False(t, second.Changed())
}

// TestApply_StaleDelete tests that cleanup removes an unmatched object.
func TestApply_StaleDelete(t *testing.T) {
	store, dev := newDevice(t)
	_, err := store.Create(context.Background(), remote.KindInterface, remote.Fields{"device_id": dev, "name": "stale1"})
	require.NoError(t, err)

	opts := lagOptions()
	opts.Cleanup = true
	cs := Compare("interface", nil, project(t, store, dev), opts)
	require.Len(t, cs.Delete, 1)

	report := NewExecutor(store, nil, nil).Apply(context.Background(), cs, nil, ifaceApplier{device: dev})
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 0, store.Len(remote.KindInterface))
}

// TestApply_DescriptionOnly tests that an update touches only the changed field.
func TestApply_DescriptionOnly(t *testing.T) {
	store, dev := newDevice(t)
	id, err := store.Create(context.Background(), remote.KindInterface, remote.Fields{"device_id": dev, "name": "gi1", "description": "old", "mtu": int64(9000)})
	require.NoError(t, err)

	local := records(rec("gi1", "description", "new"))
	cs := Compare("interface", local, project(t, store, dev), lagOptions())
	require.Len(t, cs.Update, 1)
	assert.Equal(t, []FieldChange{{Field: "description", Old: "old", New: "new"}}, cs.Update[0].Changes)

	report := NewExecutor(store, nil, nil).Apply(context.Background(), cs, nil, ifaceApplier{device: dev})
	assert.Equal(t, 1, report.Updated)
	require.Len(t, report.Details, 1)
	assert.Equal(t, `description: "old" -> "new"`, report.Details[0].Description)

	obj, _ := store.Get(id)
	assert.Equal(t, "new", obj.Fields.String("description"))
	assert.Equal(t, int64(9000), obj.Fields.Int("mtu"))
}

// TestApply_BatchFallbackEquivalence tests that per-item fallback creates
// exactly the items that would succeed individually.
func TestApply_BatchFallbackEquivalence(t *testing.T) {
	local := records(rec("gi1"), rec("gi2", "description", "x"), rec("gi3"))

	individual, dev := newDevice(t)
	var want []string
	for _, r := range local {
		f := remote.Fields{"device_id": dev, "name": r.Identity()}
		if r.Identity() == "gi2" {
			f["lag_id"] = int64(9999)
		}
		if _, err := individual.Create(context.Background(), remote.KindInterface, f); err == nil {
			want = append(want, r.Identity())
		}
	}

	mem, dev2 := newDevice(t)
	store := &flakyBulkStore{MemoryStore: mem}
	cs := Compare("interface", local, nil, lagOptions())
	report := NewExecutor(store, nil, nil).Apply(context.Background(), cs, nil, brokenLagApplier{ifaceApplier{device: dev2}})

	var got []string
	for name := range interfacesByName(t, mem, dev2) {
		got = append(got, name)
	}
	sort.Strings(got)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, store.bulkCalls)
	assert.Equal(t, 3, store.itemCalls)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)
}

// brokenLagApplier points gi2 at a LAG id that does not exist.
type brokenLagApplier struct {
	ifaceApplier
}

func (a brokenLagApplier) CreatePayload(ctx context.Context, item ChangeItem, ids IDs) (remote.Fields, error) {
	f, err := a.ifaceApplier.CreatePayload(ctx, item, ids)
	if err == nil && item.Identity == "gi2" {
		f["lag_id"] = int64(9999)
	}
	return f, err
}

// TestApply_UnconfirmedBulkCreate tests that a bulk create answered with
// too few ids is reported as an unconfirmed transport failure, without a
// per-item retry that could duplicate objects.
func TestApply_UnconfirmedBulkCreate(t *testing.T) {
	mem, dev := newDevice(t)
	store := &shortBulkStore{MemoryStore: mem}
	cs := Compare("interface", records(rec("gi1"), rec("gi2")), nil, lagOptions())

	report := NewExecutor(store, nil, nil).Apply(context.Background(), cs, nil, ifaceApplier{device: dev})

	assert.Zero(t, report.Created)
	assert.Equal(t, 2, report.Failed)
	assert.Zero(t, store.itemCalls)
	for _, d := range report.Details {
		assert.Contains(t, d.Description, ErrUnconfirmed.Error())
	}
	assert.Len(t, interfacesByName(t, mem, dev), 2)

	// the next run matches what the store did create
	projections := project(t, mem, dev)
	cs = Compare("interface", records(rec("gi1"), rec("gi2")), projections, lagOptions())
	assert.Empty(t, cs.Create)
}

// TestApply_BulkRejectionKeepsSiblings tests that a validation failure in a
// bulk call only fails the offending item.
func TestApply_BulkRejectionKeepsSiblings(t *testing.T) {
	store, dev := newDevice(t)
	local := records(rec("gi1"), rec("gi2"), rec("gi3"))
	cs := Compare("interface", local, nil, lagOptions())

	report := NewExecutor(store, nil, nil).Apply(context.Background(), cs, nil, brokenLagApplier{ifaceApplier{device: dev}})
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, interfacesByName(t, store, dev), 2)
}

// TestApply_FailedDependency tests that a member whose aggregate failed to
// be created is skipped, not failed and not crashed.
func TestApply_FailedDependency(t *testing.T) {
	mem, dev := newDevice(t)
	store := &rejectStore{MemoryStore: mem, prefix: "po"}
	local := lagScenario()
	cs := Compare("interface", local, nil, lagOptions())

	report := NewExecutor(store, nil, nil).Apply(context.Background(), cs, Edges(local), ifaceApplier{device: dev})
	assert.Equal(t, 1, report.Failed, "po1")
	assert.Equal(t, 2, report.Skipped, "gi1 and gi2")
	assert.Equal(t, 1, report.Created, "gi3")

	for _, d := range report.Details {
		if d.Identity == "gi1" {
			assert.Equal(t, OutcomeSkipped, d.Outcome)
			assert.Contains(t, d.Description, "po1")
		}
	}
}

// TestApply_MissingDependencyBeforeCreate tests the violate-and-fail case:
// a member referencing a LAG that exists nowhere is skipped.
func TestApply_MissingDependencyBeforeCreate(t *testing.T) {
	store, dev := newDevice(t)
	local := records(rec("gi1", "lag", "po7"))
	cs := Compare("interface", local, nil, lagOptions())

	report := NewExecutor(store, nil, nil).Apply(context.Background(), cs, Edges(local), ifaceApplier{device: dev})
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 0, store.Len(remote.KindInterface))
}

// TestApply_DryRun tests that a dry run produces the live report without
// touching the store.
func TestApply_DryRun(t *testing.T) {
	store, dev := newDevice(t)
	local := lagScenario()
	cs := Compare("interface", local, nil, lagOptions())

	exec := NewExecutor(remote.NewDryRunStore(store), nil, nil)
	assert.True(t, exec.DryRun())
	preview := exec.Apply(context.Background(), cs, Edges(local), ifaceApplier{device: dev})

	assert.True(t, preview.DryRun)
	assert.Equal(t, 4, preview.Created)
	assert.Equal(t, 0, store.Len(remote.KindInterface))
	for _, d := range preview.Details {
		assert.True(t, remote.Placeholder(d.RemoteID))
	}

	live := NewExecutor(store, nil, nil).Apply(context.Background(), cs, Edges(local), ifaceApplier{device: dev})
	assert.Equal(t, preview.Created, live.Created)
	assert.Equal(t, identitiesOf(preview.Details), identitiesOf(live.Details))
}

func identitiesOf(details []Detail) []string {
	out := make([]string, len(details))
	for i, d := range details {
		out[i] = d.Identity + "/" + string(d.Outcome)
	}
	return out
}

// cancellingApplier cancels the run while building the payload of trigger.
type cancellingApplier struct {
	ifaceApplier
	trigger string
	cancel  context.CancelFunc
}

func (a cancellingApplier) CreatePayload(ctx context.Context, item ChangeItem, ids IDs) (remote.Fields, error) {
	if item.Identity == a.trigger {
		a.cancel()
	}
	return a.ifaceApplier.CreatePayload(ctx, item, ids)
}

// TestApply_CancelBetweenWaves tests that a cancelled run finishes the
// current wave and reports the rest as pending.
func TestApply_CancelBetweenWaves(t *testing.T) {
	store, dev := newDevice(t)
	local := lagScenario()
	cs := Compare("interface", local, nil, lagOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	report := NewExecutor(store, nil, nil).Apply(ctx, cs, Edges(local), cancellingApplier{ifaceApplier{device: dev}, "po1", cancel})

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 3, report.Remaining)
	assert.Equal(t, 1, store.Len(remote.KindInterface))
	for _, d := range report.Details {
		if d.Identity != "po1" {
			assert.Equal(t, OutcomePending, d.Outcome)
		}
	}
}

// TestApply_UpdateFallback tests per-item fallback for updates and deletes.
func TestApply_UpdateFallback(t *testing.T) {
	mem, dev := newDevice(t)
	ctx := context.Background()
	for _, name := range []string{"gi1", "gi2", "old1", "old2"} {
		_, err := mem.Create(ctx, remote.KindInterface, remote.Fields{"device_id": dev, "name": name, "description": "x"})
		require.NoError(t, err)
	}
	store := &flakyBulkStore{MemoryStore: mem}
	opts := lagOptions()
	opts.Cleanup = true
	local := records(rec("gi1", "description", "y"), rec("gi2", "description", "z"))

	report := NewExecutor(store, nil, nil).Apply(ctx, Compare("interface", local, project(t, mem, dev), opts), nil, ifaceApplier{device: dev})
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, 2, store.bulkCalls)
	assert.Equal(t, 2, mem.Len(remote.KindInterface))
}

// TestApply_Metrics tests that outcomes are counted.
func TestApply_Metrics(t *testing.T) {
	store, dev := newDevice(t)
	m := metrics.New()
	local := lagScenario()

	NewExecutor(store, nil, m).Apply(context.Background(), Compare("interface", local, nil, lagOptions()), Edges(local), ifaceApplier{device: dev})
	expected := `
# HELP netsync_reconcile_items_total Reconciled items by entity kind and outcome.
# TYPE netsync_reconcile_items_total counter
netsync_reconcile_items_total{kind="interface",outcome="created"} 4
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "netsync_reconcile_items_total"))
}

// TestFatalReport tests the run-level failure shape.
func TestFatalReport(t *testing.T) {
	r := FatalReport("interface", false, ErrScopeNotFound)
	assert.Equal(t, 1, r.Failed)
	assert.Empty(t, r.Details)
	assert.False(t, r.OK())
	assert.Contains(t, r.String(), "target scope not found")
}
