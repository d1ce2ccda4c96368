//go:build !linux

package sysinfo

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// systemUptime returns the system uptime through gopsutil.
func systemUptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}
