package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks per-operation call counts and timings for the memory
// manager (allocate, deallocate, gc, compress, snapshot).
type Metrics struct {
	opCount   int64
	startTime time.Time
	opStats   map[string]*OperationStats
	mu        sync.RWMutex
}

type OperationStats struct {
	Calls        int64
	TotalTime    int64
	LastExecTime time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
		opStats:   make(map[string]*OperationStats),
	}
}

func (m *Metrics) IncrOpCount() {
	atomic.AddInt64(&m.opCount, 1)
}

func (m *Metrics) GetOpCount() int64 {
	return atomic.LoadInt64(&m.opCount)
}

func (m *Metrics) AddOperation(op string, duration time.Duration) {
	atomic.AddInt64(&m.opCount, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	stats, exists := m.opStats[op]
	if !exists {
		stats = &OperationStats{}
		m.opStats[op] = stats
	}

	stats.Calls++
	stats.TotalTime += duration.Nanoseconds()
	stats.LastExecTime = time.Now()
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["uptime_in_seconds"] = int(time.Since(m.startTime).Seconds())
	stats["total_operations"] = m.GetOpCount()

	opStats := make(map[string]map[string]interface{})
	for op, stat := range m.opStats {
		opStats[op] = map[string]interface{}{
			"calls":          stat.Calls,
			"total_time_us":  stat.TotalTime / 1000,
			"avg_time_us":    stat.TotalTime / stat.Calls / 1000,
			"last_exec_time": stat.LastExecTime,
		}
	}
	stats["opstats"] = opStats

	return stats
}
