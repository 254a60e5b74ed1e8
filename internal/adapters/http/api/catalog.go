package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okian/imobrank/pkg/logger"
)

const maxActionTypeBody = 4 << 10

// CatalogHandler serves and maintains action types.
type CatalogHandler struct {
	catalog ActionTypes
	log     logger.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog ActionTypes, log logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// actionTypeRequest is the body of POST and PUT /api/acoes. An omitted
// ativa means active.
type actionTypeRequest struct {
	Name   string `json:"nome"`
	Points int    `json:"pontuacao"`
	Active *bool  `json:"ativa"`
}

func (req actionTypeRequest) active() bool {
	return req.Active == nil || *req.Active
}

func decodeActionType(w http.ResponseWriter, r *http.Request) (actionTypeRequest, error) {
	var req actionTypeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionTypeBody))
	dec.DisallowUnknownFields()
	err := dec.Decode(&req)
	return req, err
}

// HandleGet handles GET /api/acoes/{id}.
func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_action_type"
	id, err := parsePathID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.catalog.Lookup(r.Context(), id)
	if err != nil {
		fail(r.Context(), h.log, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleList handles GET /api/acoes.
func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.List(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, Wrap("api.list_action_types", err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/acoes.
func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_action_type"
	req, err := decodeActionType(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.catalog.Create(r.Context(), req.Name, req.Points, req.active())
	if err != nil {
		fail(r.Context(), h.log, w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/api/acoes/"+strconv.FormatInt(a.ID, 10))
	writeJSON(w, http.StatusCreated, a)
}

// HandleUpdate handles PUT /api/acoes/{id}. Recorded events keep the points
// they were stored with.
func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_action_type"
	id, err := parsePathID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := decodeActionType(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.catalog.Update(r.Context(), id, req.Name, req.Points, req.active())
	if err != nil {
		fail(r.Context(), h.log, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
