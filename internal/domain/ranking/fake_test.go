package ranking_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-sql/civil"

	"github.com/okian/imobrank/internal/domain/ranking"
	"github.com/okian/imobrank/internal/domain/types"
)

type fakeEvent struct {
	dev, project, agency, action int64
	date                         civil.Date
	points                       int64
}

// fakeStore is an in-memory event log implementing Reader and Directory.
type fakeStore struct {
	mu         sync.Mutex
	events     []fakeEvent
	developers map[int64]string
	projects   map[int64]int64
	agencies   map[int64]string
	actions    map[int64]string
	seen       []ranking.Criteria
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		developers: map[int64]string{},
		projects:   map[int64]int64{},
		agencies:   map[int64]string{},
		actions:    map[int64]string{},
	}
}

func (s *fakeStore) add(ev fakeEvent) {
	s.events = append(s.events, ev)
}

func (s *fakeStore) criteria() []ranking.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ranking.Criteria(nil), s.seen...)
}

func (s *fakeStore) match(c ranking.Criteria) []fakeEvent {
	s.mu.Lock()
	s.seen = append(s.seen, c)
	s.mu.Unlock()

	var out []fakeEvent
	for _, ev := range s.events {
		if c.DeveloperID != nil && ev.dev != *c.DeveloperID {
			continue
		}
		if c.ProjectID != nil && ev.project != *c.ProjectID {
			continue
		}
		if c.DateFrom != nil && ev.date.Before(*c.DateFrom) {
			continue
		}
		if c.DateTo != nil && ev.date.After(*c.DateTo) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (s *fakeStore) AgencyTotals(_ context.Context, c ranking.Criteria) ([]ranking.AgencyTotal, error) {
	groups := map[int64]*ranking.AgencyTotal{}
	for _, ev := range s.match(c) {
		g, ok := groups[ev.agency]
		if !ok {
			g = &ranking.AgencyTotal{AgencyID: ev.agency, AgencyName: s.agencies[ev.agency]}
			groups[ev.agency] = g
		}
		g.Events++
		g.Points += ev.points
	}
	out := make([]ranking.AgencyTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out, nil
}

func (s *fakeStore) ActionBreakdown(_ context.Context, c ranking.Criteria) ([]ranking.ActionTotal, error) {
	type key struct{ agency, action int64 }
	groups := map[key]*ranking.ActionTotal{}
	for _, ev := range s.match(c) {
		k := key{ev.agency, ev.action}
		g, ok := groups[k]
		if !ok {
			g = &ranking.ActionTotal{AgencyID: ev.agency, ActionTypeID: ev.action, ActionTypeName: s.actions[ev.action]}
			groups[k] = g
		}
		g.Events++
		g.Points += ev.points
	}
	out := make([]ranking.ActionTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out, nil
}

func (s *fakeStore) GrandTotal(_ context.Context, c ranking.Criteria) (ranking.Totals, error) {
	var t ranking.Totals
	for _, ev := range s.match(c) {
		t.Events++
		t.Points += ev.points
	}
	return t, nil
}

func (s *fakeStore) DeveloperExists(_ context.Context, id int64) (bool, error) {
	_, ok := s.developers[id]
	return ok, nil
}

func (s *fakeStore) ProjectOwner(_ context.Context, id int64) (int64, bool, error) {
	dev, ok := s.projects[id]
	return dev, ok, nil
}

func (s *fakeStore) ListDevelopers(context.Context) ([]types.DeveloperOption, error) {
	out := make([]types.DeveloperOption, 0, len(s.developers))
	for id, name := range s.developers {
		out = append(out, types.DeveloperOption{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ListProjects(_ context.Context, developerID *int64) ([]types.ProjectOption, error) {
	var out []types.ProjectOption
	for id, dev := range s.projects {
		if developerID != nil && dev != *developerID {
			continue
		}
		out = append(out, types.ProjectOption{ID: id, DeveloperID: dev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// skewedReader reports a grand total that disagrees with the rows for the
// first `skew` calls, as if an event landed between the reads.
type skewedReader struct {
	*fakeStore
	skew  int32
	calls atomic.Int32
}

func (r *skewedReader) GrandTotal(ctx context.Context, c ranking.Criteria) (ranking.Totals, error) {
	t, err := r.fakeStore.GrandTotal(ctx, c)
	if r.calls.Add(1) <= r.skew {
		t.Events++
		t.Points += 10
	}
	return t, err
}

var errConnRefused = errors.New("dial tcp: connection refused")

type failingReader struct{ *fakeStore }

func (failingReader) ActionBreakdown(context.Context, ranking.Criteria) ([]ranking.ActionTotal, error) {
	return nil, errConnRefused
}

type blockingReader struct{ *fakeStore }

func (blockingReader) AgencyTotals(ctx context.Context, _ ranking.Criteria) ([]ranking.AgencyTotal, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func ptr[T any](v T) *T { return &v }

func day(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}
