// Package sysmetrics is the local system metric source for sysmon. It reads
// CPU, memory, swap, disk, load, process count and network throughput
// through gopsutil and answers one metric id per read.
package sysmetrics

import "gitlab.com/tinyland/lab/sysmon/sampler"

// Metric ids served by this package.
const (
	CPUUsagePercent      sampler.MetricID = "cpu_usage_percent"
	MemoryUsedPercent    sampler.MetricID = "memory_used_percent"
	MemoryUsedBytes      sampler.MetricID = "memory_used_bytes"
	SwapUsedBytes        sampler.MetricID = "swap_used_bytes"
	DiskUsedPercent      sampler.MetricID = "disk_used_percent"
	LoadAvg1             sampler.MetricID = "load_avg_1"
	ProcessCount         sampler.MetricID = "process_count"
	NetUploadKiBPerSec   sampler.MetricID = "net_upload_kib_per_sec"
	NetDownloadKiBPerSec sampler.MetricID = "net_download_kib_per_sec"
)

// Descriptor pairs a metric id with its sample kind and a display label.
type Descriptor struct {
	ID    sampler.MetricID
	Kind  sampler.Kind
	Label string
}

var catalog = []Descriptor{
	{CPUUsagePercent, sampler.KindPercent, "CPU"},
	{MemoryUsedPercent, sampler.KindPercent, "Memory"},
	{MemoryUsedBytes, sampler.KindBytes, "Memory used"},
	{SwapUsedBytes, sampler.KindBytes, "Swap used"},
	{DiskUsedPercent, sampler.KindPercent, "Disk"},
	{LoadAvg1, sampler.KindLoad, "Load 1m"},
	{ProcessCount, sampler.KindCount, "Processes"},
	{NetUploadKiBPerSec, sampler.KindRate, "Upload"},
	{NetDownloadKiBPerSec, sampler.KindRate, "Download"},
}

// Catalog returns every metric this package can read, in display order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the descriptor for id.
func Lookup(id sampler.MetricID) (Descriptor, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}
