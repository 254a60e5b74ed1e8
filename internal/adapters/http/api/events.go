package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/imobrank/internal/domain/actionlog"
	"github.com/okian/imobrank/pkg/logger"
)

// IdempotencyKeyHeader names the optional request header that makes event
// registration safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxEventBody = 64 << 10

// EventsHandler registers action events.
type EventsHandler struct {
	recorder EventRecorder
	log      logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(recorder EventRecorder, log logger.Logger) *EventsHandler {
	return &EventsHandler{recorder: recorder, log: log}
}

// HandlePost handles POST /api/registro-acoes. A new event answers 201; a
// replay of an earlier keyed request answers 200 with the original event.
func (h *EventsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_event"

	var req actionlog.NewEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	ev, replayed, err := h.recorder.RecordIdempotent(r.Context(), key, req)
	if err != nil {
		fail(r.Context(), h.log, w, Wrap(op, err))
		return
	}
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		writeJSON(w, http.StatusOK, ev)
		return
	}
	w.Header().Set("Location", "/api/registro-acoes/"+strconv.FormatInt(ev.ID, 10))
	writeJSON(w, http.StatusCreated, ev)
}
