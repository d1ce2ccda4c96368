package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysinfo"
	"gitlab.com/tinyland/lab/sysmon/display/widgets"
	"gitlab.com/tinyland/lab/sysmon/internal/format"
	"gitlab.com/tinyland/lab/sysmon/sampler"
	"gitlab.com/tinyland/lab/sysmon/status"
)

// defaultOnceWidth is used when stdout is not a terminal.
const defaultOnceWidth = 80

// primeHistory runs n ticks, interval apart, so delta metrics have a value
// and the dump shows a short history.
func primeHistory(ctx context.Context, s *sampler.Sampler, n int, interval time.Duration) error {
	for i := 0; i < n; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		s.Tick(ctx)
	}
	return nil
}

// jsonDump is the -json output shape.
type jsonDump struct {
	Version   string             `json:"version"`
	Generated time.Time          `json:"generated"`
	Metrics   []sampler.Snapshot `json:"metrics"`
}

// writeJSON writes every snapshot as indented JSON.
func writeJSON(w io.Writer, snaps []sampler.Snapshot, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDump{Version: version, Generated: now, Metrics: snaps})
}

// writeSummary writes one line per metric: label, sparkline, latest value
// and gap count, fitted to width.
func writeSummary(w io.Writer, snaps []sampler.Snapshot, width int) error {
	const labelWidth, valueWidth, gapWidth = 12, 12, 9
	chartWidth := width - labelWidth - valueWidth - gapWidth - 3

	var sb strings.Builder
	for _, snap := range snaps {
		sb.WriteString(format.PadRight(labelFor(snap.Metric), labelWidth))
		if chartWidth > 0 {
			peak := snap.Max()
			if snap.Kind == sampler.KindPercent {
				peak = 100
			}
			sb.WriteByte(' ')
			sb.WriteString(widgets.RenderSparkline(snap.Values(), chartWidth, peak))
		}
		sb.WriteByte(' ')
		sb.WriteString(format.PadLeft(format.Latest(snap), valueWidth))
		sb.WriteByte(' ')
		sb.WriteString(format.PadLeft(fmt.Sprintf("gaps %d", snap.Gaps()), gapWidth))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// hostReader supplies the logical core count that scales load.
type hostReader interface {
	Host(ctx context.Context) (sysinfo.HostInfo, error)
}

// evaluateHealth grades snaps with load scaled by the host's logical
// cores. If the host cannot be read, load grades as unknown.
func evaluateHealth(ctx context.Context, in hostReader, snaps []sampler.Snapshot, logger *zap.Logger) status.SystemStatus {
	cfg := status.DefaultEvaluatorConfig()
	if host, err := in.Host(ctx); err == nil {
		cfg.LogicalCores = host.LogicalCores
	} else {
		logger.Warn("host info unavailable, load not graded", zap.Error(err))
	}
	return status.NewEvaluator(cfg).Evaluate(snaps)
}

// writeStatus writes the overall health line, naming the worst metric when
// it is not healthy.
func writeStatus(w io.Writer, st status.SystemStatus) error {
	line := "status: " + st.Overall.String()
	if worst, ok := st.Worst(); ok && worst.Level != status.LevelHealthy {
		line += " (" + worst.Reason + ")"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
