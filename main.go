// sysmon is a terminal system monitor that keeps a rolling history of
// CPU, memory, disk, load, process and network metrics.
//
// A single scheduler goroutine samples every tracked metric once per
// interval into fixed-capacity ring buffers; the dashboard only reads
// snapshots of that history.
//
// Usage:
//
//	sysmon [flags]
//
// Flags:
//
//	-config string    Path to configuration file (default: ~/.config/sysmon/config.yaml)
//	-once             Sample for a few ticks, print a summary and exit
//	-ticks int        Ticks to sample in -once mode (default 3)
//	-json             Print the -once dump as JSON
//	-verbose          Enable debug logging
//	-log-file string  Log file override
//	-version          Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"go.uber.org/zap"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysinfo"
	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/config"
	"gitlab.com/tinyland/lab/sysmon/display/tui"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file (default: ~/.config/sysmon/config.yaml)")
		once        = flag.Bool("once", false, "Sample for a few ticks, print a summary and exit")
		ticks       = flag.Int("ticks", 3, "Ticks to sample in -once mode")
		jsonOut     = flag.Bool("json", false, "Print the -once dump as JSON")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		logFile     = flag.String("log-file", "", "Log file override")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("sysmon %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	// ---------------------------------------------------------------
	// Configuration and logging
	// ---------------------------------------------------------------

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config %s: %v\n", path, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(cfg.Log.Level, cfg.Log.File, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("-------- new sysmon session --------",
		zap.String("version", version),
		zap.String("config", path),
	)

	mux, src := buildSource(cfg, logger)
	s, err := buildSampler(cfg, mux, src, logger)
	if err != nil {
		logger.Error("sampler setup failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "sampler setup failed: %v\n", err)
		os.Exit(1)
	}

	// ---------------------------------------------------------------
	// Context with signal handling
	// ---------------------------------------------------------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := runOnceMode(ctx, s, cfg, logger, *ticks, *jsonOut); err != nil {
			logger.Error("once mode failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "sysmon: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runDashboard(ctx, s, cfg, logger); err != nil {
		logger.Error("dashboard exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "sysmon: %v\n", err)
		os.Exit(1)
	}
}

// runOnceMode primes the history and prints it to stdout.
func runOnceMode(ctx context.Context, s *sampler.Sampler, cfg *config.Config, logger *zap.Logger, ticks int, asJSON bool) error {
	if ticks < 1 {
		ticks = 1
	}
	if err := primeHistory(ctx, s, ticks, cfg.Sampler.Interval.Duration); err != nil {
		return err
	}
	snaps := s.SnapshotAll()
	if asJSON {
		return writeJSON(os.Stdout, snaps, time.Now())
	}

	width := defaultOnceWidth
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		width = w
	}
	if err := writeSummary(os.Stdout, snaps, width); err != nil {
		return err
	}
	return writeStatus(os.Stdout, evaluateHealth(ctx, sysinfo.NewInspector(logger.Named("sysinfo")), snaps, logger))
}

// runDashboard starts the scheduler goroutine and blocks in the TUI until
// the user quits or ctx is cancelled.
func runDashboard(parent context.Context, s *sampler.Sampler, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, cfg.Sampler.Interval.Duration, nil)
	}()

	model := tui.NewModel(s, sysinfo.NewInspector(logger.Named("sysinfo")), tui.Options{
		Refresh:      cfg.Display.RefreshInterval.Duration,
		ProcessLimit: cfg.Display.ProcessLimit,
		ProcessSort:  sysinfo.SortBy(cfg.Display.ProcessSort),
		Mouse:        cfg.Display.Mouse,
		Theme:        tui.ThemeByName(cfg.Display.Theme),
	})

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.Display.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	_, err := tea.NewProgram(model, opts...).Run()

	cancel()
	<-done
	// A signal cancels the program; that is a clean exit.
	if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
		return nil
	}
	return err
}

// labelFor returns the catalog label for id, or the id itself.
func labelFor(id sampler.MetricID) string {
	if d, ok := sysmetrics.Lookup(id); ok {
		return d.Label
	}
	return string(id)
}
