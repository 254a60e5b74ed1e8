package seedevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/imobrank/internal/domain/actionlog"
	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/internal/domain/types"
	"github.com/okian/imobrank/pkg/logger"
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeReplayed
	outcomeRejected
	outcomeFailed
)

// client talks to the ranking service.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, httpClient *http.Client) *client {
	return &client{base: base, http: httpClient}
}

func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: status %d", resp.StatusCode)
	}
	return nil
}

// register posts one event under key.
func (c *client) register(ctx context.Context, key string, in actionlog.NewEvent) (model.ActionEvent, outcome, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return model.ActionEvent{}, outcomeFailed, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/registro-acoes", bytes.NewReader(body))
	if err != nil {
		return model.ActionEvent{}, outcomeFailed, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.ActionEvent{}, outcomeFailed, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ActionEvent{}, outcomeFailed, err
	}

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var ev model.ActionEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return model.ActionEvent{}, outcomeFailed, fmt.Errorf("decode event: %w", err)
		}
		if resp.StatusCode == http.StatusOK {
			return ev, outcomeReplayed, nil
		}
		return ev, outcomeAccepted, nil
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return model.ActionEvent{}, outcomeRejected, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	default:
		return model.ActionEvent{}, outcomeFailed, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
}

// ranking fetches the global ranking, or a developer's when developerID > 0.
func (c *client) ranking(ctx context.Context, developerID int64) (types.RankingResult, error) {
	path := "/api/dashboard/consultoria"
	q := url.Values{}
	if developerID > 0 {
		path = "/api/dashboard-incorporadora"
		q.Set("incorporadora_id", strconv.FormatInt(developerID, 10))
	}
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return types.RankingResult{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return types.RankingResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return types.RankingResult{}, fmt.Errorf("ranking status %d: %s", resp.StatusCode, raw)
	}
	var res types.RankingResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return types.RankingResult{}, fmt.Errorf("decode ranking: %w", err)
	}
	return res, nil
}

// submitEvents posts events concurrently. A ReplayRatio share of them is
// sent a second time under the same key; the service must answer those
// with the original event. Only accepted events are returned.
func submitEvents(ctx context.Context, c *client, cfg *Config, events []actionlog.NewEvent, stats *Stats) ([]model.ActionEvent, error) {
	log := logger.Get()
	log.Info(ctx, "submitting events", logger.Int("events", len(events)), logger.Int("workers", cfg.Workers))

	var (
		mu       sync.Mutex
		accepted = make([]model.ActionEvent, 0, len(events))

		nAccepted, nReplayed, nRejected, nFailed atomic.Int64
	)
	count := func(o outcome) {
		switch o {
		case outcomeAccepted:
			nAccepted.Add(1)
		case outcomeReplayed:
			nReplayed.Add(1)
		case outcomeRejected:
			nRejected.Add(1)
		default:
			nFailed.Add(1)
		}
	}

	r := rand.New(rand.NewPCG(cfg.Seed, ^cfg.Seed))
	replay := make([]bool, len(events))
	for i := range replay {
		replay[i] = r.Float64() < cfg.ReplayRatio
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, in := range events {
		g.Go(func() error {
			key := uuid.NewString()
			ev, o, err := c.register(gctx, key, in)
			count(o)
			if err != nil {
				if cfg.Verbose {
					log.Warn(gctx, "event not accepted", logger.Int("index", i), logger.Error(err))
				}
				return nil
			}
			mu.Lock()
			accepted = append(accepted, ev)
			mu.Unlock()

			if !replay[i] {
				return nil
			}
			again, o, err := c.register(gctx, key, in)
			if err != nil || o != outcomeReplayed {
				count(outcomeFailed)
				return fmt.Errorf("replay of key %s was not recognized: %v", key, err)
			}
			if again.ID != ev.ID {
				return fmt.Errorf("replay of key %s returned event %d, want %d", key, again.ID, ev.ID)
			}
			count(outcomeReplayed)
			return nil
		})
	}
	err := g.Wait()

	stats.EventsAccepted = int(nAccepted.Load())
	stats.EventsReplayed = int(nReplayed.Load())
	stats.EventsRejected = int(nRejected.Load())
	stats.EventsFailed = int(nFailed.Load())

	log.Info(ctx, "event submission completed",
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("replayed", stats.EventsReplayed),
		logger.Int("rejected", stats.EventsRejected),
		logger.Int("failed", stats.EventsFailed))
	return accepted, err
}
