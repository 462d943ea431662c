package logger

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestNew tests level and format selection.
func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		level zapcore.Level
	}{
		{"Debug", Config{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{"Info", Config{Level: "info", Format: "json"}, zapcore.InfoLevel},
		{"Warn", Config{Level: "warn"}, zapcore.WarnLevel},
		{"Unknown falls back to info", Config{Level: "loud"}, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.level-1))
			}
		})
	}
}

// TestWithRayID tests that the ray id local is attached to log entries.
func TestWithRayID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals("ray_id", "abc")
		WithRayID(base, c).Info("hello")
		return nil
	})
	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["ray_id"])
}

// TestWithRun tests the run fields.
func TestWithRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	WithRun(zap.New(core), "r1", "sw1").Info("x")
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "r1", ctx["run_id"])
	assert.Equal(t, "sw1", ctx["device"])
}
