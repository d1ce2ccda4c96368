package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysinfo"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// detailsTimeout bounds one round of inspector reads.
const detailsTimeout = 2 * time.Second

// tickMsg fires every refresh interval.
type tickMsg time.Time

// snapshotMsg carries fresh history snapshots.
type snapshotMsg struct {
	snaps map[sampler.MetricID]sampler.Snapshot
	order []sampler.MetricID
	at    time.Time
}

// detailsMsg carries point-in-time system details.
type detailsMsg struct {
	host   *sysinfo.HostInfo
	cores  []float64
	procs  []sysinfo.ProcessInfo
	ifaces []sysinfo.InterfaceInfo
	err    error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// snapshotCmd copies every tracked metric's history. It only reads.
func snapshotCmd(r sampler.Reader, now func() time.Time) tea.Cmd {
	return func() tea.Msg {
		ids := r.Metrics()
		msg := snapshotMsg{
			snaps: make(map[sampler.MetricID]sampler.Snapshot, len(ids)),
			order: ids,
			at:    now(),
		}
		for _, id := range ids {
			if snap, err := r.Snapshot(id); err == nil {
				msg.snaps[id] = snap
			}
		}
		return msg
	}
}

// detailsCmd reads host, per-core, process and interface details. Partial
// results are kept; the failures are joined into err.
func detailsCmd(in Inspector, limit int, sortBy sysinfo.SortBy) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailsTimeout)
		defer cancel()

		var msg detailsMsg
		var errs []error
		if host, err := in.Host(ctx); err == nil {
			msg.host = &host
		} else {
			errs = append(errs, err)
		}
		if cores, err := in.CoreUsage(ctx); err == nil {
			msg.cores = cores
		} else {
			errs = append(errs, err)
		}
		if procs, err := in.Processes(ctx, limit, sortBy); err == nil {
			msg.procs = procs
		} else {
			errs = append(errs, err)
		}
		if ifaces, err := in.Interfaces(ctx); err == nil {
			msg.ifaces = ifaces
		} else {
			errs = append(errs, err)
		}
		msg.err = errors.Join(errs...)
		return msg
	}
}
