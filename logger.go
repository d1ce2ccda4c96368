package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initializeLogger builds a JSON production logger writing to file. The
// dashboard owns the terminal, so nothing is written to stdout or stderr.
func initializeLogger(level, file string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logLevel := zap.NewAtomicLevelAt(lvl)
	if verbose {
		logLevel.SetLevel(zap.DebugLevel)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{file}
	loggerConfig.ErrorOutputPaths = []string{file}
	return loggerConfig.Build()
}
