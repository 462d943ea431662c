package devicesync

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"netsync/core/remote"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *remote.MemoryStore) {
	t.Helper()
	dir := t.TempDir()
	data, err := json.Marshal(fixture())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sw1.json"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghost.json"), []byte(`{"device":{"serial":"X"}}`), 0o644))

	store := seed(t)
	feature := NewFeature(NewDirSource(dir), NewSyncer(store), zap.NewNop(), 0)

	app := fiber.New()
	require.NoError(t, feature.Load(app))
	return app, store
}

// TestHandleListDevices tests the device listing.
func TestHandleListDevices(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/sync/devices", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var devices []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&devices))
	assert.Equal(t, []string{"ghost", "sw1"}, devices)
}

// TestHandlePreview tests that a preview writes nothing.
func TestHandlePreview(t *testing.T) {
	app, store := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/sync/sw1/preview", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.DryRun)
	assert.Equal(t, 10, res.Summary.Created)
	assert.Equal(t, 1, store.Len(remote.KindDevice))
}

// TestHandleSync tests a live sync and its dry_run switch.
func TestHandleSync(t *testing.T) {
	app, store := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/sw1?dry_run=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, store.Len(remote.KindDevice))

	resp, err = app.Test(httptest.NewRequest("POST", "/sync/sw1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.DryRun)
	assert.Equal(t, 10, res.Summary.Created)
	assert.Equal(t, 2, store.Len(remote.KindDevice))
}

// TestHandleSync_Errors tests the status codes of a missing snapshot and
// of a snapshot without a device.
func TestHandleSync_Errors(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/sw9", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/sync/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)

	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Fatal)
}

// TestHandleSyncAll tests that every snapshot is synced.
func TestHandleSyncAll(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync?dry_run=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var results []Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Fatal)
	assert.Empty(t, results[0].Device)
	assert.Equal(t, "sw1", results[1].Device)
}
