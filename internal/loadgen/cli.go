package loadgen

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nextwave678/launchit/pkg/logger"
)

// SetupLogging sends log records to stdout and to logFile. An empty logFile
// gets a timestamped name. The returned func closes the file.
func SetupLogging(logFile, format string) (func() error, error) {
	if logFile == "" {
		logFile = "loadgen_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithFormat(format), logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`LaunchIt Load Generator
=======================

Creates a project, sends synthetic landing page traffic and leads, then
checks GET /api/analytics against what the server accepted.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string        Base URL of the service (default "http://localhost:8080")
  -secret string     JWT secret of the service (default $LAUNCHIT_JWT_SECRET)
  -events int        Beacon events to send (default 500)
  -leads int         Leads to capture (default 20)
  -sessions int      Distinct visitor sessions (default events/4)
  -workers int       Concurrent submitters (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -seed uint         Traffic generator seed (default 1)
  -output string     Write the generated traffic as JSON
  -log string        Log file (default loadgen_TIMESTAMP.log)
  -verbose           Log progress
  -help              Show this help message

Requests rejected by the rate limiter are counted and left out of the
comparison. Runs above the server's max_events_per_report cannot match.
`)
}
