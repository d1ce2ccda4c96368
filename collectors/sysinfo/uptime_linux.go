//go:build linux

package sysinfo

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
)

// systemUptime returns the system uptime on Linux via sysinfo(2).
func systemUptime(_ context.Context) (time.Duration, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	return time.Duration(int64(info.Uptime)) * time.Second, nil
}
