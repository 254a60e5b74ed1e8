package seedevents

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/imobrank/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the logger writing to stdout and, when logFile is
// not "-", to a file. An empty logFile picks a timestamped name.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "-" {
		if logFile == "" {
			logFile = "seed_log_" + time.Now().Format("20060102_150405") + ".log"
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile != "-" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closer, nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Imobrank Seed Tool
==================

Creates reference data, registers action events through the API and checks
that the rankings the service reports add up.

Usage:
  go run ./cmd/seed-events [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -driver string
        Store driver, sqlite or postgres (default "sqlite")
  -dsn string
        Store data source shared with the service (default "file:imobrank.db")
  -events int
        Number of events to register (default 2000)
  -developers int
        Developers to create, two projects each (default 3)
  -agencies int
        Agencies to create (default 8)
  -replay float
        Share of events re-sent with the same Idempotency-Key (default 0.1)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Random seed, 0 picks one from the clock
  -log string
        Log file, "-" for stdout only (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed a local sqlite-backed service
  go run ./cmd/seed-events

  # Seed a postgres-backed service with a fixed seed
  go run ./cmd/seed-events -driver postgres -dsn postgres://imobrank@localhost/imobrank -seed 42
`)
}
