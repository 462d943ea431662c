package config

import (
	"os"
	"path/filepath"
	"testing"

	"netsync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig_Defaults tests that struct tag defaults are applied.
func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sql", cfg.Remote.Backend)
	assert.Equal(t, 3, cfg.Remote.MaxRetries)
	assert.True(t, cfg.Sync.CreateMissing)
	assert.True(t, cfg.Sync.UpdateExisting)
	assert.False(t, cfg.Sync.Cleanup)
	assert.Equal(t, 4, cfg.Sync.Parallel)
	assert.Equal(t, "netsync.report", cfg.Events.SubjectPrefix)
	assert.Equal(t, "netsync", cfg.Storage.Bucket)
}

// TestLoadConfig_Env tests that environment variables and .env override defaults.
func TestLoadConfig_Env(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SYNC_PARALLEL=2\nREMOTE_BACKEND=memory\n"), 0o600))
	t.Setenv("SYNC_DRY_RUN", "true")
	t.Setenv("SYNC_CLEANUP", "true")
	// Overload writes into the process environment
	t.Setenv("SYNC_PARALLEL", "")
	t.Setenv("REMOTE_BACKEND", "")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Sync.DryRun)
	assert.True(t, cfg.Sync.Cleanup)
	assert.Equal(t, 2, cfg.Sync.Parallel)
	assert.Equal(t, "memory", cfg.Remote.Backend)
}

// TestConfig_Validate tests rejected settings.
func TestConfig_Validate(t *testing.T) {
	t.Setenv("REMOTE_BACKEND", "ldap")
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "unknown remote backend")
}

// TestParseProfile tests decoding and validation of a sync profile.
func TestParseProfile(t *testing.T) {
	doc := `
kinds:
  interface:
    fields: [description, enabled]
    exclude: ["vl*", "lo0"]
    cleanup: true
  mac:
    enabled: false
`
	p, err := ParseProfile([]byte(doc))
	require.NoError(t, err)

	iface := p.Kind("interface")
	assert.True(t, iface.IsEnabled())
	assert.Equal(t, []string{"description", "enabled"}, iface.Fields)
	assert.False(t, p.Kind("mac").IsEnabled())
	assert.True(t, p.Kind("vlan").IsEnabled())

	var nilProfile *Profile
	assert.True(t, nilProfile.Kind("cable").IsEnabled())

	tests := []struct {
		name string
		doc  string
		err  string
	}{
		{"Unknown Kind", "kinds:\n  circuit: {}\n", `unknown kind "circuit"`},
		{"Bad Pattern", "kinds:\n  vlan:\n    exclude: [\"[\"]\n", "invalid exclude pattern"},
		{"Bad YAML", "kinds: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

// TestKindProfile_Apply tests that profile switches override the run options.
func TestKindProfile_Apply(t *testing.T) {
	off := false
	on := true
	base := reconcile.Options{CreateMissing: true, UpdateExisting: true, Exclude: []string{"mgmt*"}}

	opts := KindProfile{Create: &off, Cleanup: &on, Exclude: []string{"vl*"}}.Apply(base, []string{"name", "mtu"})
	assert.False(t, opts.CreateMissing)
	assert.True(t, opts.UpdateExisting)
	assert.True(t, opts.Cleanup)
	assert.Equal(t, []string{"name", "mtu"}, opts.Fields)
	assert.Equal(t, []string{"mgmt*", "vl*"}, opts.Exclude)
	assert.Equal(t, []string{"mgmt*"}, base.Exclude)

	opts = KindProfile{Fields: []string{"description"}}.Apply(base, []string{"name"})
	assert.Equal(t, []string{"description"}, opts.Fields)
}

// TestLoadProfile tests reading from disk.
func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Empty(t, p.Kinds)

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kinds:\n  cable:\n    cleanup: false\n"), 0o600))
	p, err = LoadProfile(path)
	require.NoError(t, err)
	require.NotNil(t, p.Kind("cable").Cleanup)
	assert.False(t, *p.Kind("cable").Cleanup)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
