//go:build linux

package config

import "golang.org/x/sys/unix"

// systemMemoryMB returns total physical memory in MB, or 0 if unknown.
func systemMemoryMB() float64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	total := uint64(info.Totalram) * uint64(info.Unit)
	return float64(total) / 1_048_576.0
}
