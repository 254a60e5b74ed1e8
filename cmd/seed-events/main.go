package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/imobrank/internal/config"
	"github.com/okian/imobrank/internal/seedevents"
)

const (
	defaultNumEvents   = 2000
	defaultDevelopers  = 3
	defaultAgencies    = 8
	defaultReplayRatio = 0.1
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	// Store defaults follow the service configuration so both processes
	// point at the same database.
	svc, err := config.Load(context.Background())
	if err != nil {
		svc = config.New()
	}

	var (
		baseURL     = flag.String("url", "http://localhost"+svc.Addr, "Base URL of the service")
		driver      = flag.String("driver", svc.DBDriver, "Store driver (sqlite or postgres)")
		dsn         = flag.String("dsn", svc.DBDSN, "Store data source")
		numEvents   = flag.Int("events", defaultNumEvents, "Number of events to register")
		developers  = flag.Int("developers", defaultDevelopers, "Developers to create")
		agencies    = flag.Int("agencies", defaultAgencies, "Agencies to create")
		replayRatio = flag.Float64("replay", defaultReplayRatio, "Share of events re-sent with the same Idempotency-Key")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed        = flag.Uint64("seed", 0, "Random seed, 0 picks one from the clock")
		logFile     = flag.String("log", "", `Log file, "-" for stdout only`)
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedevents.ShowHelp()
		return 0
	}

	closer, err := seedevents.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seedevents.Config{
		BaseURL:     *baseURL,
		Driver:      *driver,
		DSN:         *dsn,
		NumEvents:   *numEvents,
		Developers:  max(*developers, 1),
		Agencies:    max(*agencies, 1),
		ReplayRatio: *replayRatio,
		Workers:     *workers,
		Timeout:     *timeout,
		Seed:        *seed,
		Verbose:     *verbose,
	}

	if err := seedevents.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
