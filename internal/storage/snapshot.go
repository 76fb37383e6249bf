// Package storage persists periodic stats snapshots so operators can
// inspect memory behavior after the fact. Snapshots are JSON, guarded
// by a file lock so external tooling can read them safely while the
// application runs.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

type Snapshotter struct {
	path    string
	fl      *flock.Flock
	limiter *rate.Limiter // nil: unpaced
	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSnapshotter writes snapshots to path. minInterval bounds how often
// Write actually hits the disk; zero disables pacing.
func NewSnapshotter(path string, minInterval time.Duration) *Snapshotter {
	s := &Snapshotter{
		path: path,
		fl:   flock.New(path + ".lock"),
		done: make(chan struct{}),
	}
	if minInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return s
}

// Write persists one snapshot. Writes arriving faster than the pacing
// interval are skipped silently.
func (s *Snapshotter) Write(v interface{}) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"taken_at": time.Now().UTC().Format(time.RFC3339Nano),
		"stats":    v,
	})
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fl.Lock(); err != nil {
		return fmt.Errorf("error locking snapshot file: %w", err)
	}
	defer s.fl.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("error writing snapshot: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Field reads one value out of the last snapshot using a gjson path,
// e.g. "stats.total_allocated_mb".
func (s *Snapshotter) Field(path string) (gjson.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fl.RLock(); err != nil {
		return gjson.Result{}, fmt.Errorf("error locking snapshot file: %w", err)
	}
	defer s.fl.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("error reading snapshot: %w", err)
	}
	return gjson.GetBytes(data, path), nil
}

// Start flushes a snapshot of collect() every interval until Close.
func (s *Snapshotter) Start(interval time.Duration, collect func() interface{}) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// Errors here are non-fatal; the next tick retries.
				_ = s.Write(collect())
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Snapshotter) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.wg.Wait()
	return nil
}
