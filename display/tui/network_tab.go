package tui

import (
	"strings"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysinfo"
	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/display/widgets"
	"gitlab.com/tinyland/lab/sysmon/internal/format"
)

// renderNetwork shows upload and download throughput charts and the interface list.
func (m Model) renderNetwork(width int, lay LayoutConfig) string {
	chartHeight := max(lay.ChartHeight/2, 2)
	sections := []string{
		m.bigChart(sysmetrics.NetDownloadKiBPerSec, width, chartHeight, m.opts.Theme.Download),
		"",
		m.bigChart(sysmetrics.NetUploadKiBPerSec, width, chartHeight, m.opts.Theme.Upload),
	}

	if len(m.ifaces) == 0 {
		return strings.Join(sections, "\n")
	}

	sections = append(sections, "", m.styles.title.Render(sectionTitle("Interfaces", width)))
	if active, ok := sysinfo.ActiveInterface(m.ifaces); ok {
		sections = append(sections, m.styles.muted.Render("active: "+active.Name))
	}

	tbl := widgets.NewTable(
		widgets.Column{Title: "Name"},
		widgets.Column{Title: "IPv4"},
		widgets.Column{Title: "IPv6"},
		widgets.Column{Title: "MAC"},
		widgets.Column{Title: "Sent", Right: true},
		widgets.Column{Title: "Received", Right: true},
	)
	tbl.MaxWidth = width
	for _, ifc := range m.ifaces {
		tbl.Rows = append(tbl.Rows, []string{
			ifc.Name, ifc.IPv4, ifc.IPv6, ifc.MAC,
			format.Bytes(ifc.BytesSent), format.Bytes(ifc.BytesRecv),
		})
	}
	sections = append(sections, tbl.Render())
	return strings.Join(sections, "\n")
}
