package actionlog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/imobrank/internal/domain/actionlog"
	"github.com/okian/imobrank/internal/domain/catalog"
	"github.com/okian/imobrank/internal/domain/idempotency"
	"github.com/okian/imobrank/internal/domain/model"
)

type fakeCatalog map[int64]model.ActionType

func (c fakeCatalog) Lookup(_ context.Context, id int64) (model.ActionType, error) {
	a, ok := c[id]
	if !ok {
		return model.ActionType{}, catalog.ErrNotFound
	}
	return a, nil
}

type fakeStore struct {
	mu       sync.Mutex
	projects map[int64]int64
	agencies map[int64]bool
	agents   map[int64]bool
	events   []model.ActionEvent
	failWith error
	deadline time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: map[int64]int64{11: 1, 21: 2},
		agencies: map[int64]bool{100: true},
		agents:   map[int64]bool{7: true},
	}
}

func (s *fakeStore) ProjectOwner(_ context.Context, id int64) (int64, bool, error) {
	dev, ok := s.projects[id]
	return dev, ok, nil
}

func (s *fakeStore) AgencyExists(_ context.Context, id int64) (bool, error) { return s.agencies[id], nil }
func (s *fakeStore) AgentExists(_ context.Context, id int64) (bool, error)  { return s.agents[id], nil }

func (s *fakeStore) InsertEvent(ctx context.Context, ev *model.ActionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failWith != nil {
		return s.failWith
	}
	s.deadline, _ = ctx.Deadline()
	ev.ID = int64(len(s.events) + 1)
	s.events = append(s.events, *ev)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func validEvent() actionlog.NewEvent {
	return actionlog.NewEvent{
		DeveloperID:  1,
		ProjectID:    11,
		AgencyID:     100,
		AgentID:      7,
		ActionTypeID: 1,
		Date:         "2024-02-29",
		Quantity:     2,
		Value:        decimal.RequireFromString("1500.255"),
		Notes:        "  open house  ",
	}
}

func newRecorder(store *fakeStore) *actionlog.Recorder {
	types := fakeCatalog{
		1: {ID: 1, Name: "Visita", Points: 10, Active: true},
		2: {ID: 2, Name: "Legado", Points: 5, Active: false},
	}
	return actionlog.NewRecorder(types, store, actionlog.WithIdempotencyCache(idempotency.New(idempotency.WithMaxSize(16))))
}

func TestRecord(t *testing.T) {
	Convey("Given a recorder with an active and an inactive action type", t, func() {
		store := newFakeStore()
		rec := newRecorder(store)
		ctx := context.Background()

		Convey("When a valid event is recorded", func() {
			ev, err := rec.Record(ctx, validEvent())
			So(err, ShouldBeNil)

			Convey("Then the score is snapshotted from the catalog", func() {
				So(ev.ID, ShouldEqual, 1)
				So(ev.Points, ShouldEqual, 20)
				So(ev.Date.String(), ShouldEqual, "2024-02-29")
				So(ev.Value.String(), ShouldEqual, "1500.26")
				So(ev.Notes, ShouldEqual, "open house")
				So(store.count(), ShouldEqual, 1)
			})
		})

		Convey("When the action type is inactive", func() {
			in := validEvent()
			in.ActionTypeID = 2
			_, err := rec.Record(ctx, in)
			So(errors.Is(err, actionlog.ErrInactiveActionType), ShouldBeTrue)
			So(store.count(), ShouldEqual, 0)
		})

		Convey("When the project belongs to another developer", func() {
			in := validEvent()
			in.ProjectID = 21
			_, err := rec.Record(ctx, in)
			So(errors.Is(err, actionlog.ErrProjectMismatch), ShouldBeTrue)
		})

		Convey("When a reference is unknown", func() {
			cases := map[string]func(*actionlog.NewEvent){
				"acao_id":           func(e *actionlog.NewEvent) { e.ActionTypeID = 99 },
				"empreendimento_id": func(e *actionlog.NewEvent) { e.ProjectID = 99 },
				"imobiliaria_id":    func(e *actionlog.NewEvent) { e.AgencyID = 99 },
				"corretor_id":       func(e *actionlog.NewEvent) { e.AgentID = 99 },
			}
			for field, mutate := range cases {
				in := validEvent()
				mutate(&in)
				_, err := rec.Record(ctx, in)
				So(errors.Is(err, actionlog.ErrUnknownReference), ShouldBeTrue)
				var fe *actionlog.FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, field)
			}
		})

		Convey("When fields are invalid", func() {
			cases := map[string]func(*actionlog.NewEvent){
				"quantidade":       func(e *actionlog.NewEvent) { e.Quantity = 0 },
				"data_acao":        func(e *actionlog.NewEvent) { e.Date = "29/02/2024" },
				"incorporadora_id": func(e *actionlog.NewEvent) { e.DeveloperID = 0 },
				"vgv":              func(e *actionlog.NewEvent) { e.Value = decimal.NewFromInt(-1) },
			}
			for field, mutate := range cases {
				in := validEvent()
				mutate(&in)
				_, err := rec.Record(ctx, in)
				So(errors.Is(err, actionlog.ErrInvalidEvent), ShouldBeTrue)
				var fe *actionlog.FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, field)
			}
			So(store.count(), ShouldEqual, 0)
		})

		Convey("When the store fails", func() {
			store.failWith = model.ErrStoreUnavailable
			_, err := rec.Record(ctx, validEvent())
			So(errors.Is(err, model.ErrStoreUnavailable), ShouldBeTrue)
		})
	})
}

func TestRecordIdempotent(t *testing.T) {
	Convey("Given a recorder", t, func() {
		store := newFakeStore()
		rec := newRecorder(store)
		ctx := context.Background()

		Convey("When the same keyed request is sent twice", func() {
			first, replayed, err := rec.RecordIdempotent(ctx, "key-1", validEvent())
			So(err, ShouldBeNil)
			So(replayed, ShouldBeFalse)

			second, replayed, err := rec.RecordIdempotent(ctx, "key-1", validEvent())
			So(err, ShouldBeNil)

			Convey("Then the original event is returned and nothing is inserted", func() {
				So(replayed, ShouldBeTrue)
				So(second, ShouldResemble, first)
				So(store.count(), ShouldEqual, 1)
			})
		})

		Convey("When a key is reused for a different request", func() {
			_, _, err := rec.RecordIdempotent(ctx, "key-2", validEvent())
			So(err, ShouldBeNil)

			other := validEvent()
			other.Quantity = 3
			_, _, err = rec.RecordIdempotent(ctx, "key-2", other)
			So(errors.Is(err, actionlog.ErrKeyReuse), ShouldBeTrue)
			So(store.count(), ShouldEqual, 1)
		})

		Convey("When concurrent retries share a key", func() {
			var wg sync.WaitGroup
			ids := make([]int64, 20)
			for i := range ids {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					ev, _, err := rec.RecordIdempotent(ctx, "key-3", validEvent())
					if err == nil {
						ids[i] = ev.ID
					}
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one event is stored", func() {
				So(store.count(), ShouldEqual, 1)
				for _, id := range ids {
					So(id, ShouldEqual, 1)
				}
			})
		})

		Convey("When a keyed request fails", func() {
			in := validEvent()
			in.ActionTypeID = 2
			_, _, err := rec.RecordIdempotent(ctx, "key-4", in)
			So(errors.Is(err, actionlog.ErrInactiveActionType), ShouldBeTrue)

			Convey("Then the key stays free for a corrected request", func() {
				ev, replayed, err := rec.RecordIdempotent(ctx, "key-4", validEvent())
				So(err, ShouldBeNil)
				So(replayed, ShouldBeFalse)
				So(ev.ID, ShouldEqual, 1)
			})
		})

		Convey("When the first caller has already gone away", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			ev, replayed, err := rec.RecordIdempotent(cctx, "k-gone", validEvent())

			Convey("Then the shared insert still completes within a deadline", func() {
				So(err, ShouldBeNil)
				So(replayed, ShouldBeFalse)
				So(ev.ID, ShouldEqual, 1)
				So(store.count(), ShouldEqual, 1)
				So(store.deadline.IsZero(), ShouldBeFalse)
			})

			Convey("And an unkeyed request on the same context fails", func() {
				_, err := rec.Record(cctx, validEvent())
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When no key is given", func() {
			_, _, err := rec.RecordIdempotent(ctx, "", validEvent())
			So(err, ShouldBeNil)
			_, _, err = rec.RecordIdempotent(ctx, "", validEvent())
			So(err, ShouldBeNil)
			So(store.count(), ShouldEqual, 2)
		})
	})
}
