// Package resource enforces the global memory cap as a hard limit and
// paces reclamation sweeps. The budget ledger stays the bookkeeping
// source of truth; the controller is the enforcement layer for callers
// that opt into a hard cap.
package resource

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type Config struct {
	// CapBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	CapBytes int64

	// SweepsPerSecond bounds how often reclamation may run through
	// AllowSweep. If 0, sweeps are never throttled.
	SweepsPerSecond float64
}

// Controller tracks managed bytes and gates oversubscription.
type Controller struct {
	capSem       *semaphore.Weighted // nil if unlimited
	used         atomic.Int64
	sweepLimiter *rate.Limiter
}

func NewController(cfg Config) *Controller {
	c := &Controller{}
	if cfg.CapBytes > 0 {
		c.capSem = semaphore.NewWeighted(cfg.CapBytes)
	}
	if cfg.SweepsPerSecond > 0 {
		c.sweepLimiter = rate.NewLimiter(rate.Limit(cfg.SweepsPerSecond), 1)
	}
	return c
}

// TryAcquire reserves bytes without blocking. Returns false if the hard
// cap would be exceeded.
func (c *Controller) TryAcquire(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.capSem != nil && !c.capSem.TryAcquire(bytes) {
		return false
	}
	c.used.Add(bytes)
	return true
}

// Release returns reserved bytes.
func (c *Controller) Release(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.capSem != nil {
		c.capSem.Release(bytes)
	}
	c.used.Add(-bytes)
}

// Used returns the bytes currently reserved through the controller.
func (c *Controller) Used() int64 {
	if c == nil {
		return 0
	}
	return c.used.Load()
}

// AllowSweep reports whether a reclamation sweep may run now.
func (c *Controller) AllowSweep() bool {
	if c == nil || c.sweepLimiter == nil {
		return true
	}
	return c.sweepLimiter.Allow()
}
