package api

import (
	"net/http"
	"net/url"

	"github.com/okian/imobrank/internal/domain/ranking"
	"github.com/okian/imobrank/pkg/logger"
)

// RankingHandler serves the consulting and developer dashboards.
type RankingHandler struct {
	rankings Rankings
	log      logger.Logger
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(rankings Rankings, log logger.Logger) *RankingHandler {
	return &RankingHandler{rankings: rankings, log: log}
}

// HandleGlobal handles GET /api/dashboard/consultoria.
func (h *RankingHandler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), true)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	res, err := h.rankings.Compute(r.Context(), ranking.Global(), f)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDeveloper handles GET /api/dashboard-incorporadora. The
// incorporadora_id parameter is the tenant scope and is required.
func (h *RankingHandler) HandleDeveloper(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := developerScope(q)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	f, err := parseFilter(q, false)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	res, err := h.rankings.Compute(r.Context(), scope, f)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGlobalFilters handles GET /api/dashboard/consultoria/filtros.
func (h *RankingHandler) HandleGlobalFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.rankings.FilterOptions(r.Context(), ranking.Global())
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandleDeveloperFilters handles GET /api/dashboard-incorporadora/filtros.
func (h *RankingHandler) HandleDeveloperFilters(w http.ResponseWriter, r *http.Request) {
	scope, err := developerScope(r.URL.Query())
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	opts, err := h.rankings.FilterOptions(r.Context(), scope)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func developerScope(q url.Values) (ranking.Scope, error) {
	id, err := ranking.ParseID(ranking.FieldDeveloper, q.Get(ranking.FieldDeveloper))
	if err != nil {
		return ranking.Scope{}, err
	}
	if id == nil {
		return ranking.Scope{}, ranking.ErrMissingRequiredScope
	}
	return ranking.ScopedToDeveloper(*id), nil
}

// parseFilter reads the optional filter parameters. The developer filter is
// only read on the global view; on the scoped view the same parameter is the
// scope itself.
func parseFilter(q url.Values, withDeveloper bool) (ranking.Filter, error) {
	var (
		f   ranking.Filter
		err error
	)
	if f.DateFrom, err = ranking.ParseDate(ranking.FieldDateFrom, q.Get(ranking.FieldDateFrom)); err != nil {
		return ranking.Filter{}, err
	}
	if f.DateTo, err = ranking.ParseDate(ranking.FieldDateTo, q.Get(ranking.FieldDateTo)); err != nil {
		return ranking.Filter{}, err
	}
	if f.ProjectID, err = ranking.ParseID(ranking.FieldProject, q.Get(ranking.FieldProject)); err != nil {
		return ranking.Filter{}, err
	}
	if withDeveloper {
		if f.DeveloperID, err = ranking.ParseID(ranking.FieldDeveloper, q.Get(ranking.FieldDeveloper)); err != nil {
			return ranking.Filter{}, err
		}
	}
	return f, nil
}
