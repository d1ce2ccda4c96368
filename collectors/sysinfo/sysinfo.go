// Package sysinfo reads point-in-time system details that are shown next
// to the history charts but not sampled into history: host identity,
// per-core usage, the process table and network interfaces.
package sysinfo

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// HostInfo describes the machine.
type HostInfo struct {
	Hostname      string        `json:"hostname"`
	OS            string        `json:"os"`
	Platform      string        `json:"platform"`
	Kernel        string        `json:"kernel"`
	Arch          string        `json:"arch"`
	CPUModel      string        `json:"cpu_model"`
	PhysicalCores int           `json:"physical_cores"`
	LogicalCores  int           `json:"logical_cores"`
	TotalMemory   uint64        `json:"total_memory"`
	Uptime        time.Duration `json:"uptime"`
	BootTime      time.Time     `json:"boot_time"`
	ProcessCount  int           `json:"process_count"`
}

// ProcessInfo is one row of the process table.
type ProcessInfo struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	CPUPercent float64 `json:"cpu_percent"`
	RSS        uint64  `json:"rss"`
}

// SortBy selects the process table ordering.
type SortBy string

const (
	SortByCPU    SortBy = "cpu"
	SortByMemory SortBy = "memory"
)

// InterfaceInfo describes one network interface.
type InterfaceInfo struct {
	Name      string `json:"name"`
	IPv4      string `json:"ipv4"`
	IPv6      string `json:"ipv6"`
	MAC       string `json:"mac"`
	BytesSent uint64 `json:"bytes_sent"`
	BytesRecv uint64 `json:"bytes_recv"`
}

// Inspector reads system details. It caches process handles between calls
// so per-process CPU percentages are measured since the previous call.
type Inspector struct {
	logger *zap.Logger

	mu    sync.Mutex
	procs map[int32]*process.Process

	// Overridable gopsutil calls for testing.
	hostInfo      func(ctx context.Context) (*host.InfoStat, error)
	cpuInfo       func(ctx context.Context) ([]cpu.InfoStat, error)
	cpuCounts     func(ctx context.Context, logical bool) (int, error)
	perCore       func(ctx context.Context) ([]float64, error)
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	listProcesses func(ctx context.Context) ([]*process.Process, error)
	interfaces    func(ctx context.Context) (net.InterfaceStatList, error)
	ioCounters    func(ctx context.Context) ([]net.IOCountersStat, error)
	uptime        func(ctx context.Context) (time.Duration, error)
	readProcess   func(ctx context.Context, p *process.Process) (ProcessInfo, error)
}

// NewInspector creates an Inspector. A nil logger is replaced by a no-op logger.
func NewInspector(logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{
		logger:        logger,
		procs:         make(map[int32]*process.Process),
		hostInfo:      host.InfoWithContext,
		cpuInfo:       cpu.InfoWithContext,
		cpuCounts:     cpu.CountsWithContext,
		perCore:       func(ctx context.Context) ([]float64, error) { return cpu.PercentWithContext(ctx, 0, true) },
		virtualMemory: mem.VirtualMemoryWithContext,
		listProcesses: process.ProcessesWithContext,
		interfaces:    net.InterfacesWithContext,
		ioCounters: func(ctx context.Context) ([]net.IOCountersStat, error) {
			return net.IOCountersWithContext(ctx, true)
		},
		uptime:      systemUptime,
		readProcess: readProcess,
	}
}

// Host returns host identity and counters. Partial failures leave the
// affected fields zero; only a failed host lookup is returned as an error.
func (in *Inspector) Host(ctx context.Context) (HostInfo, error) {
	hi, err := in.hostInfo(ctx)
	if err != nil {
		return HostInfo{}, fmt.Errorf("sysinfo: host info: %w", err)
	}

	info := HostInfo{
		Hostname:     hi.Hostname,
		OS:           hi.OS,
		Platform:     strings.TrimSpace(hi.Platform + " " + hi.PlatformVersion),
		Kernel:       hi.KernelVersion,
		Arch:         hi.KernelArch,
		BootTime:     time.Unix(int64(hi.BootTime), 0),
		ProcessCount: int(hi.Procs),
		CPUModel:     "Unknown",
	}
	if info.Arch == "" {
		info.Arch = runtime.GOARCH
	}

	if up, err := in.uptime(ctx); err == nil {
		info.Uptime = up
	} else {
		info.Uptime = time.Duration(hi.Uptime) * time.Second
	}

	if cpus, err := in.cpuInfo(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	} else if err != nil {
		in.logger.Debug("cpu info unavailable", zap.Error(err))
	}
	if n, err := in.cpuCounts(ctx, false); err == nil {
		info.PhysicalCores = n
	}
	if n, err := in.cpuCounts(ctx, true); err == nil {
		info.LogicalCores = n
	}
	if vm, err := in.virtualMemory(ctx); err == nil {
		info.TotalMemory = vm.Total
	}
	return info, nil
}

// CoreUsage returns per-logical-core usage percentages since the previous call.
func (in *Inspector) CoreUsage(ctx context.Context) ([]float64, error) {
	pcts, err := in.perCore(ctx)
	if err != nil {
		return nil, fmt.Errorf("sysinfo: per-core usage: %w", err)
	}
	return pcts, nil
}

// Processes returns up to limit processes ordered by sortBy, highest
// first. limit <= 0 returns all. Processes that exit mid-read are skipped.
func (in *Inspector) Processes(ctx context.Context, limit int, sortBy SortBy) ([]ProcessInfo, error) {
	list, err := in.listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("sysinfo: list processes: %w", err)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	alive := make(map[int32]*process.Process, len(list))
	rows := make([]ProcessInfo, 0, len(list))
	for _, p := range list {
		// Reuse the cached handle so CPU percent is a delta.
		if cached, ok := in.procs[p.Pid]; ok {
			p = cached
		}
		alive[p.Pid] = p

		row, err := in.readProcess(ctx, p)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	in.procs = alive

	sortProcesses(rows, sortBy)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func sortProcesses(rows []ProcessInfo, sortBy SortBy) {
	sort.SliceStable(rows, func(i, j int) bool {
		if sortBy == SortByMemory {
			if rows[i].RSS != rows[j].RSS {
				return rows[i].RSS > rows[j].RSS
			}
		} else if rows[i].CPUPercent != rows[j].CPUPercent {
			return rows[i].CPUPercent > rows[j].CPUPercent
		}
		return rows[i].PID < rows[j].PID
	})
}

func readProcess(ctx context.Context, p *process.Process) (ProcessInfo, error) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ProcessInfo{}, err
	}
	row := ProcessInfo{PID: p.Pid, Name: name}
	if pct, err := p.PercentWithContext(ctx, 0); err == nil {
		row.CPUPercent = pct
	}
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		row.RSS = mi.RSS
	}
	return row, nil
}

// Interfaces lists network interfaces with their first IPv4/IPv6 address
// and cumulative traffic, sorted by name.
func (in *Inspector) Interfaces(ctx context.Context) ([]InterfaceInfo, error) {
	ifaces, err := in.interfaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("sysinfo: interfaces: %w", err)
	}

	counters := map[string]net.IOCountersStat{}
	if stats, err := in.ioCounters(ctx); err == nil {
		counters = lo.KeyBy(stats, func(s net.IOCountersStat) string { return s.Name })
	} else {
		in.logger.Debug("per-nic counters unavailable", zap.Error(err))
	}

	out := make([]InterfaceInfo, 0, len(ifaces))
	for _, ifc := range ifaces {
		info := InterfaceInfo{Name: ifc.Name, IPv4: "-", IPv6: "-", MAC: ifc.HardwareAddr}
		if info.MAC == "" {
			info.MAC = "-"
		}
		for _, a := range ifc.Addrs {
			ip := a.Addr
			if i := strings.IndexByte(ip, '/'); i >= 0 {
				ip = ip[:i]
			}
			if strings.Contains(ip, ":") {
				if info.IPv6 == "-" {
					info.IPv6 = ip
				}
			} else if info.IPv4 == "-" {
				info.IPv4 = ip
			}
		}
		if c, ok := counters[ifc.Name]; ok {
			info.BytesSent = c.BytesSent
			info.BytesRecv = c.BytesRecv
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ActiveInterface returns the first interface, by name, that has carried
// traffic in either direction.
func ActiveInterface(ifaces []InterfaceInfo) (InterfaceInfo, bool) {
	return lo.Find(ifaces, func(i InterfaceInfo) bool {
		return i.BytesSent > 0 || i.BytesRecv > 0
	})
}
