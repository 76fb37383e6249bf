package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPressureLevels(t *testing.T) {
	mon := NewPressureMonitor(85, 95)
	now := time.Now()

	tests := []struct {
		usage float64
		want  PressureLevel
	}{
		{0, PressureNone},
		{84.9, PressureNone},
		{85, PressureWarning},
		{94.9, PressureWarning},
		{95, PressureCritical},
		{120, PressureCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mon.Check(tt.usage, now), "usage %.1f", tt.usage)
	}
}

func TestPressureLevelString(t *testing.T) {
	assert.Equal(t, "none", PressureNone.String())
	assert.Equal(t, "warning", PressureWarning.String())
	assert.Equal(t, "critical", PressureCritical.String())
}

func TestPressureCallbacksReceiveUsage(t *testing.T) {
	mon := NewPressureMonitor(85, 95)
	now := time.Now()

	var warnings, criticals []float64
	mon.AddWarningCallback(func(u float64) { warnings = append(warnings, u) })
	mon.AddCriticalCallback(func(u float64) { criticals = append(criticals, u) })

	mon.Check(90, now)
	mon.Check(97, now)
	mon.Check(50, now)

	assert.Equal(t, []float64{90}, warnings)
	assert.Equal(t, []float64{97}, criticals, "critical does not also fire warning")
}

func TestPressureRefiresWithoutHysteresis(t *testing.T) {
	mon := NewPressureMonitor(85, 95)
	now := time.Now()

	fired := 0
	mon.AddWarningCallback(func(float64) { fired++ })

	mon.Check(86, now)
	mon.Check(87, now)
	mon.Check(88, now)
	assert.Equal(t, 3, fired)
}

func TestPressureNotifier(t *testing.T) {
	mon := NewPressureMonitor(85, 95)
	n := NewPressureNotifier(4)
	mon.SetNotifier(n)
	at := time.Unix(1_700_000_000, 0)

	mon.Check(50, at)
	mon.Check(90, at)
	mon.Check(96, at)

	require.Len(t, n.Events(), 2, "below-threshold checks publish nothing")
	ev := <-n.Events()
	assert.Equal(t, PressureWarning, ev.Level)
	assert.Equal(t, 90.0, ev.UsagePercent)
	assert.Equal(t, at, ev.At)

	ev = <-n.Events()
	assert.Equal(t, PressureCritical, ev.Level)
}

func TestPressureNotifierDropsWhenFull(t *testing.T) {
	n := NewPressureNotifier(2)

	for i := 0; i < 5; i++ {
		n.publish(PressureEvent{Level: PressureWarning, UsagePercent: 90})
	}

	assert.Len(t, n.Events(), 2)
	assert.Equal(t, uint64(3), n.Dropped())
}

func TestPressureNotifierDefaultBuffer(t *testing.T) {
	n := NewPressureNotifier(0)
	assert.Equal(t, 64, cap(n.Events()))
}
