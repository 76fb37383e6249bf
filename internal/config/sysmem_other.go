//go:build !linux

package config

// systemMemoryMB is unknown off Linux; Resolve falls back to the
// default budget.
func systemMemoryMB() float64 { return 0 }
