package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nextwave678/launchit/internal/loadgen"
)

const (
	defaultEvents      = 500
	defaultLeads       = 20
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Base URL of the service")
		secret   = flag.String("secret", os.Getenv("LAUNCHIT_JWT_SECRET"), "JWT secret of the service")
		events   = flag.Int("events", defaultEvents, "Beacon events to send")
		leads    = flag.Int("leads", defaultLeads, "Leads to capture")
		sessions = flag.Int("sessions", 0, "Distinct visitor sessions (0 means events/4)")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent submitters")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", 1, "Traffic generator seed")
		output   = flag.String("output", "", "Write the generated traffic as JSON")
		logFile  = flag.String("log", "", "Log file (default loadgen_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Log progress")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	closeLog, err := loadgen.SetupLogging(*logFile, "text")
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &loadgen.Config{
		BaseURL:    *baseURL,
		Secret:     *secret,
		Events:     *events,
		Leads:      *leads,
		Sessions:   *sessions,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		OutputFile: *output,
		Verbose:    *verbose,
	}

	if _, err := loadgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		stop()
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
