package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/imobrank/internal/domain/actionlog"
	"github.com/okian/imobrank/internal/domain/catalog"
	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/internal/domain/ranking"
)

// ErrBadRequest marks requests that could not be decoded.
var ErrBadRequest = errors.New("bad request")

// Error carries the failing operation and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap attaches op to err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps an error to its HTTP status, error code and offending field.
func classify(err error) (status int, code, field string) {
	var fe *ranking.FilterError
	var ae *actionlog.FieldError
	if errors.As(err, &fe) {
		field = fe.Field
	} else if errors.As(err, &ae) {
		field = ae.Field
	}

	switch {
	case errors.Is(err, ranking.ErrMissingRequiredScope):
		return http.StatusBadRequest, "missing_scope", ranking.FieldDeveloper
	case errors.Is(err, ranking.ErrInvalidFilter):
		return http.StatusBadRequest, "invalid_filter", field
	case errors.Is(err, actionlog.ErrInvalidEvent), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request", field
	case errors.Is(err, actionlog.ErrKeyReuse):
		return http.StatusConflict, "idempotency_key_reuse", ""
	case errors.Is(err, actionlog.ErrInactiveActionType):
		return http.StatusUnprocessableEntity, "inactive_action_type", field
	case errors.Is(err, actionlog.ErrProjectMismatch):
		return http.StatusUnprocessableEntity, "project_mismatch", field
	case errors.Is(err, actionlog.ErrUnknownReference):
		return http.StatusUnprocessableEntity, "unknown_reference", field
	case errors.Is(err, catalog.ErrInvalidName):
		return http.StatusBadRequest, "invalid_action_type", "nome"
	case errors.Is(err, catalog.ErrInvalidPoints):
		return http.StatusBadRequest, "invalid_action_type", "pontuacao"
	case errors.Is(err, catalog.ErrDuplicateName):
		return http.StatusConflict, "duplicate_name", "nome"
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found", ""
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable", ""
	default:
		return http.StatusInternalServerError, "internal_error", ""
	}
}
