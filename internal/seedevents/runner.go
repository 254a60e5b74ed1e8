package seedevents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/imobrank/internal/domain/catalog"
	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/pkg/logger"
)

// ErrVerification is returned when a ranking disagrees with the events the
// run recorded.
var ErrVerification = errors.New("ranking verification failed")

// Run seeds reference data, registers events through the API and checks the
// rankings the service then reports.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get()
	stats := &Stats{StartTime: time.Now()}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(stats.StartTime.UnixNano())
	}

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("driver", cfg.Driver),
		logger.Int("events", cfg.NumEvents),
		logger.Int("developers", cfg.Developers),
		logger.Int("agencies", cfg.Agencies),
		logger.Int("workers", cfg.Workers),
		logger.Float64("replayRatio", cfg.ReplayRatio),
		logger.Any("seed", cfg.Seed))

	c := newClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})
	if err := c.health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	types := catalog.New(store, catalog.WithLogger(log.Named("catalog")))
	fixtures, err := createFixtures(ctx, store, types, cfg)
	if cerr := store.Close(); cerr != nil {
		log.Warn(ctx, "failed to close store", logger.Error(cerr))
	}
	if err != nil {
		return err
	}

	events := generateEvents(fixtures, cfg.NumEvents, cfg.Seed, time.Now())
	stats.EventsGenerated = len(events)

	accepted, err := submitEvents(ctx, c, cfg, events, stats)
	if err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	if err := verify(ctx, c, cfg, fixtures, accepted, stats); err != nil {
		return err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return nil
}

// verify checks the global ranking for internal consistency and every run
// developer's ranking against the accepted events.
func verify(ctx context.Context, c *client, cfg *Config, f *Fixtures, accepted []model.ActionEvent, stats *Stats) error {
	log := logger.Get()

	report := func(scope string, errs []error) {
		stats.RankingsChecked++
		stats.Violations += len(errs)
		for _, err := range errs {
			log.Error(ctx, "ranking violation", logger.String("scope", scope), logger.Error(err))
		}
	}

	global, err := c.ranking(ctx, 0)
	if err != nil {
		return fmt.Errorf("fetch global ranking: %w", err)
	}
	report("global", checkInvariants(global))

	for _, d := range f.Developers {
		res, err := c.ranking(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("fetch ranking for developer %d: %w", d.ID, err)
		}
		scope := fmt.Sprintf("developer:%d", d.ID)
		errs := checkInvariants(res)
		errs = append(errs, compareScoped(res, expectedTotals(accepted, d.ID))...)
		report(scope, errs)

		if cfg.Verbose && len(res.Rows) > 0 {
			top := res.Rows[0]
			log.Info(ctx, "developer leader",
				logger.String("scope", scope),
				logger.String("agency", top.AgencyName),
				logger.Int64("points", top.Points),
				logger.Float64("percent", top.Percent))
		}
	}

	if stats.Violations > 0 {
		return fmt.Errorf("%w: %d violations across %d rankings", ErrVerification, stats.Violations, stats.RankingsChecked)
	}
	log.Info(ctx, "rankings verified", logger.Int("rankings", stats.RankingsChecked))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.EventsAccepted+stats.EventsReplayed) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsReplayed", stats.EventsReplayed),
		logger.Int("eventsRejected", stats.EventsRejected),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("rankingsChecked", stats.RankingsChecked),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", perSecond))
}
