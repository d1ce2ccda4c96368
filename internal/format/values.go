package format

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// Gap is rendered in place of a value that was not observed.
const Gap = "--"

// Bytes renders a byte count in IEC units, e.g. "1.5 GiB".
func Bytes(n uint64) string {
	return humanize.IBytes(n)
}

// Rate renders a KiB/s throughput, switching to MiB/s above 1024.
func Rate(kibPerSec float64) string {
	if kibPerSec >= 1024 {
		return fmt.Sprintf("%.1f MiB/s", kibPerSec/1024)
	}
	return fmt.Sprintf("%.1f KiB/s", kibPerSec)
}

// Percent renders a percentage with one decimal.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Value renders v according to the metric kind. NaN renders as Gap.
func Value(kind sampler.Kind, v float64) string {
	if math.IsNaN(v) {
		return Gap
	}
	switch kind {
	case sampler.KindPercent:
		return Percent(v)
	case sampler.KindBytes:
		if v < 0 {
			v = 0
		}
		return Bytes(uint64(v))
	case sampler.KindRate:
		return Rate(v)
	case sampler.KindCount:
		return humanize.Comma(int64(v))
	case sampler.KindLoad:
		return fmt.Sprintf("%.2f", v)
	default:
		return humanize.FormatFloat("#,###.##", v)
	}
}

// Latest renders the newest sample of snap, or Gap when it is empty or a gap.
func Latest(snap sampler.Snapshot) string {
	s, ok := snap.Latest()
	if !ok || s.Gap {
		return Gap
	}
	return Value(snap.Kind, s.Value)
}
