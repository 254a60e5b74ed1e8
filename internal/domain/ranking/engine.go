// Package ranking computes agency leaderboards from the action event log.
//
// The engine never writes. Every read for a developer scope carries the
// tenant id as a hard constraint; the soft developer filter only exists on
// the global entry point.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/imobrank/internal/domain/scoring"
	"github.com/okian/imobrank/internal/domain/types"
	"github.com/okian/imobrank/pkg/logger"
	"github.com/okian/imobrank/pkg/metrics"
)

// Filter field names as reported in FilterError.
const (
	FieldDateFrom  = "data_inicio"
	FieldDateTo    = "data_fim"
	FieldProject   = "empreendimento_id"
	FieldDeveloper = "incorporadora_id"
)

// AgencyTotal is one agency's event count and summed snapshot points.
type AgencyTotal struct {
	AgencyID   int64
	AgencyName string
	Events     int64
	Points     int64
}

// ActionTotal is one (agency, action type) group of the breakdown.
type ActionTotal struct {
	AgencyID       int64
	ActionTypeID   int64
	ActionTypeName string
	Events         int64
	Points         int64
}

// Totals is the event count and point sum over the whole filtered set.
type Totals struct {
	Events int64
	Points int64
}

// Reader runs the aggregate reads. Implementations must apply every non-nil
// Criteria field.
type Reader interface {
	AgencyTotals(ctx context.Context, c Criteria) ([]AgencyTotal, error)
	ActionBreakdown(ctx context.Context, c Criteria) ([]ActionTotal, error)
	GrandTotal(ctx context.Context, c Criteria) (Totals, error)
}

// Directory resolves filter references and lists filter options.
type Directory interface {
	DeveloperExists(ctx context.Context, id int64) (bool, error)
	// ProjectOwner returns the owning developer id; found is false when the
	// project does not exist.
	ProjectOwner(ctx context.Context, id int64) (developerID int64, found bool, err error)
	ListDevelopers(ctx context.Context) ([]types.DeveloperOption, error)
	ListProjects(ctx context.Context, developerID *int64) ([]types.ProjectOption, error)
}

// Engine computes rankings.
type Engine struct {
	reader  Reader
	dir     Directory
	log     logger.Logger
	timeout time.Duration
	retries int
}

// NewEngine builds an engine over the given reader and directory.
func NewEngine(reader Reader, dir Directory, opts ...Option) *Engine {
	e := &Engine{
		reader:  reader,
		dir:     dir,
		log:     logger.Nop(),
		timeout: defaultQueryTimeout,
		retries: defaultConsistencyRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute returns the leaderboard for scope and filter. Zero matching events
// is a valid empty result. Store failures and timeouts surface as
// ErrStoreUnavailable; no partial result is ever returned.
func (e *Engine) Compute(ctx context.Context, scope Scope, f Filter) (types.RankingResult, error) {
	start := time.Now()
	res, err := e.compute(ctx, scope, f)
	metrics.RecordRankingComputed(scope.String(), outcome(err), time.Since(start))
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			e.log.Error(ctx, "ranking failed", logger.String("scope", scope.String()), logger.Error(err))
		}
		return types.RankingResult{}, err
	}
	metrics.RecordRankingRows(len(res.Rows))
	return res, nil
}

func (e *Engine) compute(ctx context.Context, scope Scope, f Filter) (types.RankingResult, error) {
	if err := scope.validate(); err != nil {
		return types.RankingResult{}, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	c, err := e.resolve(ctx, scope, f)
	if err != nil {
		return types.RankingResult{}, err
	}

	for attempt := 0; ; attempt++ {
		res, err := e.read(ctx, c)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrInconsistentRead) {
			return types.RankingResult{}, err
		}
		if attempt >= e.retries {
			return types.RankingResult{}, &StoreError{Op: "compute", Err: err}
		}
		metrics.RecordConsistencyRetry()
		e.log.Warn(ctx, "ranking reads disagreed, recomputing",
			logger.Int("attempt", attempt+1), logger.Error(err))
	}
}

// resolve validates the filter against the scope and builds store criteria.
func (e *Engine) resolve(ctx context.Context, scope Scope, f Filter) (Criteria, error) {
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return Criteria{}, &FilterError{Field: FieldDateTo, Reason: "must not be before " + FieldDateFrom}
	}

	c := Criteria{DateFrom: f.DateFrom, DateTo: f.DateTo, ProjectID: f.ProjectID}

	if tenant, ok := scope.DeveloperID(); ok {
		if f.DeveloperID != nil && *f.DeveloperID != tenant {
			return Criteria{}, &FilterError{Field: FieldDeveloper, Reason: "conflicts with the developer scope"}
		}
		c.DeveloperID = &tenant
	} else {
		c.DeveloperID = f.DeveloperID
	}

	if c.DeveloperID != nil {
		ok, err := e.dir.DeveloperExists(ctx, *c.DeveloperID)
		if err != nil {
			return Criteria{}, storeErr("developer_exists", err)
		}
		if !ok {
			return Criteria{}, &FilterError{Field: FieldDeveloper, Reason: fmt.Sprintf("developer %d does not exist", *c.DeveloperID)}
		}
	}

	if c.ProjectID != nil {
		owner, found, err := e.dir.ProjectOwner(ctx, *c.ProjectID)
		if err != nil {
			return Criteria{}, storeErr("project_owner", err)
		}
		if !found {
			return Criteria{}, &FilterError{Field: FieldProject, Reason: fmt.Sprintf("project %d does not exist", *c.ProjectID)}
		}
		if c.DeveloperID != nil && owner != *c.DeveloperID {
			return Criteria{}, &FilterError{Field: FieldProject, Reason: fmt.Sprintf("project %d does not belong to developer %d", *c.ProjectID, *c.DeveloperID)}
		}
	}
	return c, nil
}

// read issues the three independent aggregate reads concurrently and joins them.
func (e *Engine) read(ctx context.Context, c Criteria) (types.RankingResult, error) {
	var (
		totals    []AgencyTotal
		breakdown []ActionTotal
		grand     Totals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = e.reader.AgencyTotals(gctx, c)
		return storeErr("agency_totals", err)
	})
	g.Go(func() error {
		var err error
		breakdown, err = e.reader.ActionBreakdown(gctx, c)
		return storeErr("action_breakdown", err)
	})
	g.Go(func() error {
		var err error
		grand, err = e.reader.GrandTotal(gctx, c)
		return storeErr("grand_total", err)
	})
	if err := g.Wait(); err != nil {
		return types.RankingResult{}, err
	}

	return assemble(totals, breakdown, grand)
}

// assemble joins the reads, checks they describe the same event set and
// orders the rows.
func assemble(totals []AgencyTotal, breakdown []ActionTotal, grand Totals) (types.RankingResult, error) {
	rows := make([]types.RankingRow, 0, len(totals))
	index := make(map[int64]int, len(totals))
	for _, t := range totals {
		if _, dup := index[t.AgencyID]; dup {
			return types.RankingResult{}, fmt.Errorf("%w: agency %d listed twice", ErrInconsistentRead, t.AgencyID)
		}
		index[t.AgencyID] = len(rows)
		rows = append(rows, types.RankingRow{
			AgencyID:   t.AgencyID,
			AgencyName: t.AgencyName,
			EventCount: t.Events,
			Points:     t.Points,
			Breakdown:  []types.BreakdownEntry{},
		})
	}

	for _, b := range breakdown {
		i, ok := index[b.AgencyID]
		if !ok {
			return types.RankingResult{}, fmt.Errorf("%w: breakdown for unknown agency %d", ErrInconsistentRead, b.AgencyID)
		}
		rows[i].Breakdown = append(rows[i].Breakdown, types.BreakdownEntry{
			ActionTypeID:   b.ActionTypeID,
			ActionTypeName: b.ActionTypeName,
			Count:          b.Events,
			Points:         b.Points,
		})
	}

	var stats types.Statistics
	for i := range rows {
		var events, points int64
		for _, d := range rows[i].Breakdown {
			events += d.Count
			points += d.Points
		}
		if events != rows[i].EventCount || points != rows[i].Points {
			return types.RankingResult{}, fmt.Errorf("%w: agency %d breakdown %d/%d, row %d/%d",
				ErrInconsistentRead, rows[i].AgencyID, events, points, rows[i].EventCount, rows[i].Points)
		}
		sortBreakdown(rows[i].Breakdown)
		stats.Events += rows[i].EventCount
		stats.Points += rows[i].Points
	}

	if stats.Points != grand.Points || stats.Events != grand.Events {
		return types.RankingResult{}, fmt.Errorf("%w: rows sum to %d/%d, grand total %d/%d",
			ErrInconsistentRead, stats.Events, stats.Points, grand.Events, grand.Points)
	}

	sortRows(rows)
	for i := range rows {
		rows[i].Position = i + 1
		rows[i].Percent = scoring.PercentOfTotal(rows[i].Points, grand.Points)
	}
	stats.Agencies = len(rows)

	return types.RankingResult{Rows: rows, Stats: stats}, nil
}

// sortRows orders by points desc, then event count desc, then agency id so
// the order never depends on the store.
func sortRows(rows []types.RankingRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.EventCount != b.EventCount {
			return a.EventCount > b.EventCount
		}
		return a.AgencyID < b.AgencyID
	})
}

func sortBreakdown(entries []types.BreakdownEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ActionTypeID < b.ActionTypeID
	})
}

// FilterOptions lists what the filter UI of the given scope may choose from.
// The global view gets every developer and project; a developer scope gets
// only that developer's projects.
func (e *Engine) FilterOptions(ctx context.Context, scope Scope) (types.FilterOptions, error) {
	if err := scope.validate(); err != nil {
		return types.FilterOptions{}, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out := types.FilterOptions{
		Developers: []types.DeveloperOption{},
		Projects:   []types.ProjectOption{},
	}

	if tenant, ok := scope.DeveloperID(); ok {
		exists, err := e.dir.DeveloperExists(ctx, tenant)
		if err != nil {
			return types.FilterOptions{}, storeErr("developer_exists", err)
		}
		if !exists {
			return types.FilterOptions{}, &FilterError{Field: FieldDeveloper, Reason: fmt.Sprintf("developer %d does not exist", tenant)}
		}
		projects, err := e.dir.ListProjects(ctx, &tenant)
		if err != nil {
			return types.FilterOptions{}, storeErr("list_projects", err)
		}
		if projects != nil {
			out.Projects = projects
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		devs, err := e.dir.ListDevelopers(gctx)
		if err != nil {
			return storeErr("list_developers", err)
		}
		if devs != nil {
			out.Developers = devs
		}
		return nil
	})
	g.Go(func() error {
		projects, err := e.dir.ListProjects(gctx, nil)
		if err != nil {
			return storeErr("list_projects", err)
		}
		if projects != nil {
			out.Projects = projects
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return types.FilterOptions{}, err
	}
	return out, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingRequiredScope):
		return "missing_scope"
	case errors.Is(err, ErrInvalidFilter):
		return "invalid_filter"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
