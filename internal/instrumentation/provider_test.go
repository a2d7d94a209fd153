package instrumentation

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	require.NotNil(t, p.Metrics())

	// No-op recorders must be safe to call.
	p.Metrics().RecordMessage(context.Background(), "written")
	p.Metrics().RecordRun(context.Background(), time.Second, false)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderEnabled(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewProvider(context.Background(),
		Config{Enabled: true, ServiceName: "gmail2md-test"}, &buf)
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	assert.True(t, p.Enabled())

	ctx := context.Background()
	p.Metrics().RecordMessage(ctx, "written")
	p.Metrics().RecordMessage(ctx, "failed")
	p.Metrics().RecordRun(ctx, 2*time.Second, false)

	// Shutdown forces a final export.
	require.NoError(t, p.Shutdown(ctx))
	out := buf.String()
	assert.Contains(t, out, "gmail2md.messages")
	assert.Contains(t, out, "gmail2md.run.duration")
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, "gmail2md", c.ServiceName)
	assert.Equal(t, 60*time.Second, c.ExportInterval)

	c = Config{ServiceName: "custom", ExportInterval: time.Second}.withDefaults()
	assert.Equal(t, "custom", c.ServiceName)
	assert.Equal(t, time.Second, c.ExportInterval)
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.RecordMessage(context.Background(), "written")
	m.RecordRun(context.Background(), time.Second, true)
}
