package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counts(t *testing.T) {
	c := New()

	c.AddItems("interface", "created", 3)
	c.AddItems("interface", "created", 0)
	c.ObserveCall("bulk_create", "interface", time.Now(), nil)
	c.ObserveCall("bulk_create", "interface", time.Now(), errors.New("boom"))
	c.ObserveRun(false, true)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.items.WithLabelValues("interface", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.remoteCalls.WithLabelValues("bulk_create", "interface", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.remoteCalls.WithLabelValues("bulk_create", "interface", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("ok", "true")))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.AddItems("interface", "created", 1)
		c.ObserveCall("list", "interface", time.Now(), nil)
		c.ObserveRun(true, false)
	})
	assert.Nil(t, c.Registry())
	assert.NotNil(t, c.Handler())
}
