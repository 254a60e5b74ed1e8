package seedevents

import (
	"time"

	"github.com/okian/imobrank/internal/domain/model"
)

// Config holds configuration for a seed run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Driver      string        // Store driver used to create reference data
	DSN         string        // Store data source
	NumEvents   int           // Number of events to generate
	Developers  int           // Developers to create; each gets two projects
	Agencies    int           // Agencies to create
	ReplayRatio float64       // Share of events re-sent with the same Idempotency-Key
	Workers     int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	Seed        uint64        // Random seed; zero picks one from the clock
	Verbose     bool          // Enable verbose logging
}

// Fixtures is the reference data a run records events against.
type Fixtures struct {
	Developers  []model.Developer
	Projects    []model.Project
	Agencies    []model.Agency
	Agents      []model.Agent
	ActionTypes []model.ActionType
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated int
	EventsAccepted  int
	EventsReplayed  int
	EventsRejected  int
	EventsFailed    int
	RankingsChecked int
	Violations      int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
