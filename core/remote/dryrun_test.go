package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDryRunStore_NoMutation tests that a dry run never changes the wrapped store.
func TestDryRunStore_NoMutation(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	dev, err := inner.Create(ctx, KindDevice, Fields{"name": "sw1"})
	require.NoError(t, err)
	site, err := inner.GetOrCreate(ctx, KindSite, "dc1", nil)
	require.NoError(t, err)
	before := inner.Len(KindInterface)

	dry := NewDryRunStore(inner)
	ids, err := dry.BulkCreate(ctx, KindInterface, []Fields{{"device_id": dev, "name": "gi1"}, {"device_id": dev, "name": "gi2"}})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.True(t, Placeholder(ids[0]))
	assert.NotEqual(t, ids[0], ids[1])

	require.NoError(t, dry.BulkDelete(ctx, KindDevice, []int64{dev}))
	assert.Equal(t, before, inner.Len(KindInterface))
	assert.Equal(t, 1, inner.Len(KindDevice))
	assert.Equal(t, 2, dry.Planned(KindInterface))

	got, err := dry.GetOrCreate(ctx, KindSite, "DC1", nil)
	require.NoError(t, err)
	assert.Equal(t, site, got, "existing references resolve to real ids")

	p1, err := dry.GetOrCreate(ctx, KindVLAN, "100", Fields{"site_id": site})
	require.NoError(t, err)
	p2, err := dry.GetOrCreate(ctx, KindVLAN, "100", Fields{"site_id": site})
	require.NoError(t, err)
	assert.True(t, Placeholder(p1))
	assert.Equal(t, p1, p2, "placeholders are stable per reference")
	assert.Equal(t, 0, inner.Len(KindVLAN))
}
