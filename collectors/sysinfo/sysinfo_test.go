package sysinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeInspector() *Inspector {
	in := NewInspector(nil)
	in.hostInfo = func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{
			Hostname:        "devbox",
			OS:              "linux",
			Platform:        "ubuntu",
			PlatformVersion: "24.04",
			KernelVersion:   "6.8.0",
			KernelArch:      "x86_64",
			BootTime:        1_700_000_000,
			Uptime:          7200,
			Procs:           321,
		}, nil
	}
	in.cpuInfo = func(context.Context) ([]cpu.InfoStat, error) {
		return []cpu.InfoStat{{ModelName: "Ryzen 7"}}, nil
	}
	in.cpuCounts = func(_ context.Context, logical bool) (int, error) {
		if logical {
			return 16, nil
		}
		return 8, nil
	}
	in.virtualMemory = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 32 << 30}, nil
	}
	in.uptime = func(context.Context) (time.Duration, error) { return 3 * time.Hour, nil }
	return in
}

func TestHost(t *testing.T) {
	in := newFakeInspector()

	info, err := in.Host(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "devbox", info.Hostname)
	assert.Equal(t, "ubuntu 24.04", info.Platform)
	assert.Equal(t, "6.8.0", info.Kernel)
	assert.Equal(t, "Ryzen 7", info.CPUModel)
	assert.Equal(t, 8, info.PhysicalCores)
	assert.Equal(t, 16, info.LogicalCores)
	assert.Equal(t, uint64(32<<30), info.TotalMemory)
	assert.Equal(t, 3*time.Hour, info.Uptime)
	assert.Equal(t, 321, info.ProcessCount)
	assert.Equal(t, time.Unix(1_700_000_000, 0), info.BootTime)
}

func TestHost_FallbacksOnPartialFailure(t *testing.T) {
	in := newFakeInspector()
	in.uptime = func(context.Context) (time.Duration, error) { return 0, errors.New("no sysinfo") }
	in.cpuInfo = func(context.Context) ([]cpu.InfoStat, error) { return nil, errors.New("no cpuinfo") }

	info, err := in.Host(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, info.Uptime, "falls back to host uptime")
	assert.Equal(t, "Unknown", info.CPUModel)
}

func TestHost_Error(t *testing.T) {
	in := newFakeInspector()
	in.hostInfo = func(context.Context) (*host.InfoStat, error) { return nil, errors.New("denied") }

	_, err := in.Host(context.Background())
	assert.Error(t, err)
}

func TestProcesses_SortAndLimit(t *testing.T) {
	in := newFakeInspector()
	rows := map[int32]ProcessInfo{
		1: {PID: 1, Name: "init", CPUPercent: 0.1, RSS: 10},
		2: {PID: 2, Name: "firefox", CPUPercent: 30, RSS: 900},
		3: {PID: 3, Name: "cc1", CPUPercent: 80, RSS: 300},
		4: {PID: 4, Name: "gone"},
	}
	in.listProcesses = func(context.Context) ([]*process.Process, error) {
		return []*process.Process{{Pid: 1}, {Pid: 2}, {Pid: 3}, {Pid: 4}}, nil
	}
	in.readProcess = func(_ context.Context, p *process.Process) (ProcessInfo, error) {
		if p.Pid == 4 {
			return ProcessInfo{}, errors.New("process exited")
		}
		return rows[p.Pid], nil
	}

	byCPU, err := in.Processes(context.Background(), 2, SortByCPU)
	require.NoError(t, err)
	require.Len(t, byCPU, 2)
	assert.Equal(t, "cc1", byCPU[0].Name)
	assert.Equal(t, "firefox", byCPU[1].Name)

	byMem, err := in.Processes(context.Background(), 0, SortByMemory)
	require.NoError(t, err)
	require.Len(t, byMem, 3)
	assert.Equal(t, []int32{2, 3, 1}, []int32{byMem[0].PID, byMem[1].PID, byMem[2].PID})
}

func TestProcesses_ReusesHandles(t *testing.T) {
	in := newFakeInspector()
	first := &process.Process{Pid: 7}
	calls := 0
	in.listProcesses = func(context.Context) ([]*process.Process, error) {
		calls++
		if calls == 1 {
			return []*process.Process{first}, nil
		}
		return []*process.Process{{Pid: 7}}, nil
	}
	var seen []*process.Process
	in.readProcess = func(_ context.Context, p *process.Process) (ProcessInfo, error) {
		seen = append(seen, p)
		return ProcessInfo{PID: p.Pid}, nil
	}

	_, err := in.Processes(context.Background(), 0, SortByCPU)
	require.NoError(t, err)
	_, err = in.Processes(context.Background(), 0, SortByCPU)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Same(t, first, seen[1], "cached handle keeps cpu deltas")
}

func TestInterfaces(t *testing.T) {
	in := newFakeInspector()
	in.interfaces = func(context.Context) (net.InterfaceStatList, error) {
		return net.InterfaceStatList{
			{Name: "wlan0", HardwareAddr: "aa:bb:cc:dd:ee:ff", Addrs: net.InterfaceAddrList{
				{Addr: "192.168.1.20/24"}, {Addr: "fe80::1/64"}, {Addr: "10.0.0.2/8"},
			}},
			{Name: "lo", Addrs: net.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
		}, nil
	}
	in.ioCounters = func(context.Context) ([]net.IOCountersStat, error) {
		return []net.IOCountersStat{{Name: "wlan0", BytesSent: 100, BytesRecv: 2000}}, nil
	}

	ifaces, err := in.Interfaces(context.Background())
	require.NoError(t, err)
	require.Len(t, ifaces, 2)

	assert.Equal(t, InterfaceInfo{Name: "lo", IPv4: "127.0.0.1", IPv6: "-", MAC: "-"}, ifaces[0])
	assert.Equal(t, InterfaceInfo{
		Name: "wlan0", IPv4: "192.168.1.20", IPv6: "fe80::1", MAC: "aa:bb:cc:dd:ee:ff",
		BytesSent: 100, BytesRecv: 2000,
	}, ifaces[1])

	active, ok := ActiveInterface(ifaces)
	require.True(t, ok)
	assert.Equal(t, "wlan0", active.Name)
}

func TestCoreUsage(t *testing.T) {
	in := newFakeInspector()
	in.perCore = func(context.Context) ([]float64, error) { return []float64{10, 20}, nil }

	got, err := in.CoreUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, got)
}
