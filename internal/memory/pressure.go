package memory

import "time"

// PressureLevel grades current memory usage.
type PressureLevel int

const (
	PressureNone PressureLevel = iota
	PressureWarning
	PressureCritical
)

func (l PressureLevel) String() string {
	switch l {
	case PressureWarning:
		return "warning"
	case PressureCritical:
		return "critical"
	default:
		return "none"
	}
}

// PressureCallback receives the usage percentage that crossed a
// threshold. Callbacks run synchronously on the allocation path and
// re-fire on every allocation above threshold; keep them cheap or
// subscribe to the notifier instead.
type PressureCallback func(usagePercent float64)

// PressureEvent is the async form delivered through the notifier.
type PressureEvent struct {
	Level        PressureLevel
	UsagePercent float64
	At           time.Time
}

// PressureNotifier publishes pressure events to a buffered channel so
// subscribers drain off the hot path. Events are dropped, never
// blocked on, when the buffer is full.
type PressureNotifier struct {
	ch      chan PressureEvent
	dropped uint64
}

func NewPressureNotifier(buffer int) *PressureNotifier {
	if buffer <= 0 {
		buffer = 64
	}
	return &PressureNotifier{ch: make(chan PressureEvent, buffer)}
}

func (n *PressureNotifier) Events() <-chan PressureEvent {
	return n.ch
}

func (n *PressureNotifier) publish(ev PressureEvent) {
	select {
	case n.ch <- ev:
	default:
		n.dropped++
	}
}

// Dropped reports how many events were discarded on a full buffer.
func (n *PressureNotifier) Dropped() uint64 { return n.dropped }

// PressureMonitor compares usage against the warning and critical
// thresholds and fires the registered callbacks. No de-duplication or
// hysteresis: every check above threshold fires again.
type PressureMonitor struct {
	warningThreshold  float64
	criticalThreshold float64
	warningCallbacks  []PressureCallback
	criticalCallbacks []PressureCallback
	notifier          *PressureNotifier
}

func NewPressureMonitor(warningThreshold, criticalThreshold float64) *PressureMonitor {
	return &PressureMonitor{
		warningThreshold:  warningThreshold,
		criticalThreshold: criticalThreshold,
	}
}

func (m *PressureMonitor) AddWarningCallback(cb PressureCallback) {
	m.warningCallbacks = append(m.warningCallbacks, cb)
}

func (m *PressureMonitor) AddCriticalCallback(cb PressureCallback) {
	m.criticalCallbacks = append(m.criticalCallbacks, cb)
}

// SetNotifier attaches an async publisher alongside the synchronous
// callbacks.
func (m *PressureMonitor) SetNotifier(n *PressureNotifier) {
	m.notifier = n
}

// Check grades usagePercent, fires the matching callbacks inline and
// publishes to the notifier when one is attached.
func (m *PressureMonitor) Check(usagePercent float64, now time.Time) PressureLevel {
	level := PressureNone
	switch {
	case usagePercent >= m.criticalThreshold:
		level = PressureCritical
		for _, cb := range m.criticalCallbacks {
			cb(usagePercent)
		}
	case usagePercent >= m.warningThreshold:
		level = PressureWarning
		for _, cb := range m.warningCallbacks {
			cb(usagePercent)
		}
	}

	if level != PressureNone && m.notifier != nil {
		m.notifier.publish(PressureEvent{Level: level, UsagePercent: usagePercent, At: now})
	}
	return level
}
