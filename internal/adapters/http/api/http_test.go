package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/imobrank/internal/adapters/http/api"
	"github.com/okian/imobrank/internal/domain/actionlog"
	"github.com/okian/imobrank/internal/domain/catalog"
	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/internal/domain/ranking"
	"github.com/okian/imobrank/internal/domain/types"
)

type mockRankings struct {
	scope  ranking.Scope
	filter ranking.Filter
	result types.RankingResult
	opts   types.FilterOptions
	err    error
}

func (m *mockRankings) Compute(_ context.Context, scope ranking.Scope, f ranking.Filter) (types.RankingResult, error) {
	m.scope, m.filter = scope, f
	if m.err != nil {
		return types.RankingResult{}, m.err
	}
	if err := validateScope(scope); err != nil {
		return types.RankingResult{}, err
	}
	return m.result, nil
}

func (m *mockRankings) FilterOptions(_ context.Context, scope ranking.Scope) (types.FilterOptions, error) {
	m.scope = scope
	if err := validateScope(scope); err != nil {
		return types.FilterOptions{}, err
	}
	return m.opts, m.err
}

func validateScope(s ranking.Scope) error {
	if id, ok := s.DeveloperID(); ok && id <= 0 {
		return ranking.ErrMissingRequiredScope
	}
	return nil
}

type mockCatalog struct{}

func (mockCatalog) Lookup(_ context.Context, id int64) (model.ActionType, error) {
	if id == 1 {
		return model.ActionType{ID: 1, Name: "Visita", Points: 10, Active: true}, nil
	}
	return model.ActionType{}, catalog.ErrNotFound
}

func (mockCatalog) List(context.Context) ([]model.ActionType, error) {
	return []model.ActionType{{ID: 1, Name: "Visita", Points: 10, Active: true}}, nil
}

func (mockCatalog) Create(_ context.Context, name string, points int, active bool) (model.ActionType, error) {
	switch {
	case name == "":
		return model.ActionType{}, catalog.ErrInvalidName
	case points <= 0:
		return model.ActionType{}, catalog.ErrInvalidPoints
	case name == "Visita":
		return model.ActionType{}, catalog.ErrDuplicateName
	}
	return model.ActionType{ID: 2, Name: name, Points: points, Active: active}, nil
}

func (mockCatalog) Update(_ context.Context, id int64, name string, points int, active bool) (model.ActionType, error) {
	if id != 1 {
		return model.ActionType{}, catalog.ErrNotFound
	}
	if points <= 0 {
		return model.ActionType{}, catalog.ErrInvalidPoints
	}
	return model.ActionType{ID: id, Name: name, Points: points, Active: active}, nil
}

type mockRecorder struct {
	key string
	in  actionlog.NewEvent
	err error
}

func (m *mockRecorder) RecordIdempotent(_ context.Context, key string, in actionlog.NewEvent) (model.ActionEvent, bool, error) {
	replayed := m.key != "" && key == m.key
	m.key, m.in = key, in
	if m.err != nil {
		return model.ActionEvent{}, false, m.err
	}
	return model.ActionEvent{ID: 9, DeveloperID: in.DeveloperID, Points: 20}, replayed, nil
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

type mockStats struct{}

func (mockStats) GetStats(context.Context) (map[string]any, error) {
	return map[string]any{"events": 3}, nil
}

type fixture struct {
	rankings *mockRankings
	recorder *mockRecorder
	handler  http.Handler
}

func newFixture(ping error) *fixture {
	f := &fixture{
		rankings: &mockRankings{
			result: types.RankingResult{
				Rows: []types.RankingRow{{Position: 1, AgencyID: 100, AgencyName: "Agency X", EventCount: 1, Points: 10, Percent: 100, Breakdown: []types.BreakdownEntry{}}},
				Stats: types.Statistics{Agencies: 1, Events: 1, Points: 10},
			},
			opts: types.FilterOptions{Developers: []types.DeveloperOption{}, Projects: []types.ProjectOption{{ID: 11, Name: "A1", DeveloperID: 1}}},
		},
		recorder: &mockRecorder{},
	}
	server := api.NewServer(api.Dependencies{
		Rankings: f.rankings,
		Catalog:  mockCatalog{},
		Recorder: f.recorder,
		Store:    mockPinger{err: ping},
		Stats:    mockStats{},
	}, nil)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	f.handler = server.Handler(mux)
	return f
}

func (f *fixture) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestRankingEndpoints(t *testing.T) {
	Convey("Given an API server", t, func() {
		f := newFixture(nil)

		Convey("When the global ranking is requested with filters", func() {
			w := f.do("GET", "/api/dashboard/consultoria?data_inicio=2024-01-01&data_fim=2024-01-31&incorporadora_id=2&empreendimento_id=21", "")

			Convey("Then the filters reach the engine and the result is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(f.rankings.scope.Kind(), ShouldEqual, ranking.ScopeGlobal)
				So(f.rankings.filter.DateFrom.String(), ShouldEqual, "2024-01-01")
				So(f.rankings.filter.DateTo.String(), ShouldEqual, "2024-01-31")
				So(*f.rankings.filter.DeveloperID, ShouldEqual, 2)
				So(*f.rankings.filter.ProjectID, ShouldEqual, 21)

				var res map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res, ShouldContainKey, "ranking")
				So(res, ShouldContainKey, "estatisticas")
			})
		})

		Convey("When a date is malformed", func() {
			w := f.do("GET", "/api/dashboard/consultoria?data_inicio=01/02/2024", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			body := decodeError(w)
			So(body["code"], ShouldEqual, "invalid_filter")
			So(body["field"], ShouldEqual, "data_inicio")
		})

		Convey("When the developer ranking omits the developer", func() {
			w := f.do("GET", "/api/dashboard-incorporadora", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "missing_scope")
		})

		Convey("When the developer ranking omits the developer and sends a malformed date", func() {
			w := f.do("GET", "/api/dashboard-incorporadora?data_inicio=01/02/2024", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			body := decodeError(w)
			So(body["code"], ShouldEqual, "missing_scope")
			So(body["field"], ShouldEqual, "incorporadora_id")
		})

		Convey("When the developer ranking names the developer", func() {
			w := f.do("GET", "/api/dashboard-incorporadora?incorporadora_id=1&empreendimento_id=11", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			id, ok := f.rankings.scope.DeveloperID()
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, 1)
			So(f.rankings.filter.DeveloperID, ShouldBeNil)
			So(*f.rankings.filter.ProjectID, ShouldEqual, 11)
		})

		Convey("When the engine cannot reach the store", func() {
			f.rankings.err = &ranking.StoreError{Op: "agency_totals", Err: errors.New("dial tcp: refused")}
			w := f.do("GET", "/api/dashboard/consultoria", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			body := decodeError(w)
			So(body["code"], ShouldEqual, "store_unavailable")
			So(body["message"], ShouldNotContainSubstring, "dial tcp")
		})

		Convey("When filter options are requested", func() {
			w := f.do("GET", "/api/dashboard-incorporadora/filtros?incorporadora_id=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"empreendimentos"`)

			w = f.do("GET", "/api/dashboard-incorporadora/filtros", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = f.do("GET", "/api/dashboard/consultoria/filtros", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the method is wrong", func() {
			w := f.do("POST", "/api/dashboard/consultoria", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestCatalogAndEventEndpoints(t *testing.T) {
	Convey("Given an API server", t, func() {
		f := newFixture(nil)

		Convey("When an action type is looked up", func() {
			So(f.do("GET", "/api/acoes/1", "").Code, ShouldEqual, http.StatusOK)
			So(f.do("GET", "/api/acoes/2", "").Code, ShouldEqual, http.StatusNotFound)
			So(f.do("GET", "/api/acoes/abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(f.do("GET", "/api/acoes", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("When an action type is created", func() {
			w := f.do("POST", "/api/acoes", `{"nome":"Proposta","pontuacao":30}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Header().Get("Location"), ShouldEqual, "/api/acoes/2")

			var a model.ActionType
			So(json.Unmarshal(w.Body.Bytes(), &a), ShouldBeNil)
			So(a.Points, ShouldEqual, 30)
			So(a.Active, ShouldBeTrue)
		})

		Convey("When an action type is created inactive", func() {
			w := f.do("POST", "/api/acoes", `{"nome":"Proposta","pontuacao":30,"ativa":false}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			var a model.ActionType
			So(json.Unmarshal(w.Body.Bytes(), &a), ShouldBeNil)
			So(a.Active, ShouldBeFalse)
		})

		Convey("When an action type is created with a taken name", func() {
			w := f.do("POST", "/api/acoes", `{"nome":"Visita","pontuacao":10}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
			body := decodeError(w)
			So(body["code"], ShouldEqual, "duplicate_name")
			So(body["field"], ShouldEqual, "nome")
		})

		Convey("When an action type is created with invalid fields", func() {
			w := f.do("POST", "/api/acoes", `{"nome":"Proposta","pontuacao":0}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["field"], ShouldEqual, "pontuacao")

			w = f.do("POST", "/api/acoes", `{"pontuacao":5}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["field"], ShouldEqual, "nome")

			w = f.do("POST", "/api/acoes", `{"nome":"x","pontos":5}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When an action type is updated", func() {
			w := f.do("PUT", "/api/acoes/1", `{"nome":"Visita","pontuacao":15,"ativa":false}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var a model.ActionType
			So(json.Unmarshal(w.Body.Bytes(), &a), ShouldBeNil)
			So(a.Points, ShouldEqual, 15)
			So(a.Active, ShouldBeFalse)

			So(f.do("PUT", "/api/acoes/2", `{"nome":"x","pontuacao":1}`).Code, ShouldEqual, http.StatusNotFound)
			So(f.do("PUT", "/api/acoes/abc", `{"nome":"x","pontuacao":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(f.do("PUT", "/api/acoes/1", `{"nome":"x","pontuacao":-1}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		body := `{"incorporadora_id":1,"empreendimento_id":11,"imobiliaria_id":100,"corretor_id":7,"acao_id":1,"data_acao":"2024-03-01","quantidade":2,"vgv":"1000.00"}`

		Convey("When an event is registered", func() {
			w := f.do("POST", "/api/registro-acoes", body, "Idempotency-Key", "k1")
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Header().Get("Location"), ShouldEqual, "/api/registro-acoes/9")
			So(f.recorder.key, ShouldEqual, "k1")
			So(f.recorder.in.Quantity, ShouldEqual, 2)
			So(f.recorder.in.Value.String(), ShouldEqual, "1000")

			Convey("And the same key is retried", func() {
				w := f.do("POST", "/api/registro-acoes", body, "Idempotency-Key", "k1")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Idempotent-Replayed"), ShouldEqual, "true")
			})
		})

		Convey("When the body is not valid JSON", func() {
			w := f.do("POST", "/api/registro-acoes", `{"quantidade":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body has unknown fields", func() {
			w := f.do("POST", "/api/registro-acoes", `{"pontuacao_total":999}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		errCases := []struct {
			err    error
			status int
			code   string
		}{
			{&actionlog.FieldError{Field: "acao_id", Reason: "inactive", Kind: actionlog.ErrInactiveActionType}, http.StatusUnprocessableEntity, "inactive_action_type"},
			{&actionlog.FieldError{Field: "empreendimento_id", Reason: "x", Kind: actionlog.ErrProjectMismatch}, http.StatusUnprocessableEntity, "project_mismatch"},
			{&actionlog.FieldError{Field: "quantidade", Reason: "x", Kind: actionlog.ErrInvalidEvent}, http.StatusBadRequest, "bad_request"},
			{actionlog.ErrKeyReuse, http.StatusConflict, "idempotency_key_reuse"},
			{model.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range errCases {
			Convey("When recording fails with "+tc.code, func() {
				f.recorder.err = tc.err
				w := f.do("POST", "/api/registro-acoes", body)
				So(w.Code, ShouldEqual, tc.status)
				So(decodeError(w)["code"], ShouldEqual, tc.code)
			})
		}
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a healthy store", t, func() {
		f := newFixture(nil)

		w := f.do("GET", "/healthz", "")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, `"ok"`)

		w = f.do("GET", "/stats", "")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, `"events":3`)
	})

	Convey("Given an unreachable store", t, func() {
		f := newFixture(errors.New("down"))
		So(f.do("GET", "/healthz", "").Code, ShouldEqual, http.StatusServiceUnavailable)
	})

	Convey("Given a request id from the caller", t, func() {
		f := newFixture(nil)

		w := f.do("GET", "/healthz", "", api.RequestIDHeader, "abc-123")
		So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")

		w = f.do("GET", "/healthz", "")
		So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
	})
}

func TestErrorWrapping(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		err := api.WrapKind("api.op", api.ErrBadRequest, errors.New("cause"))
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: cause")

		So(api.Wrap("api.op", nil), ShouldBeNil)
	})
}
