// Package actionlog records action events. Each event stores the points its
// action type was worth when it was recorded.
package actionlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/okian/imobrank/internal/domain/catalog"
	"github.com/okian/imobrank/internal/domain/idempotency"
	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/internal/domain/scoring"
	"github.com/okian/imobrank/pkg/logger"
	"github.com/okian/imobrank/pkg/metrics"
)

// NewEvent is a registration request.
type NewEvent struct {
	DeveloperID  int64           `json:"incorporadora_id" validate:"required,gt=0"`
	ProjectID    int64           `json:"empreendimento_id" validate:"required,gt=0"`
	AgencyID     int64           `json:"imobiliaria_id" validate:"required,gt=0"`
	AgentID      int64           `json:"corretor_id" validate:"required,gt=0"`
	ActionTypeID int64           `json:"acao_id" validate:"required,gt=0"`
	Date         string          `json:"data_acao" validate:"required,datetime=2006-01-02"`
	Quantity     int             `json:"quantidade" validate:"required,gt=0"`
	Value        decimal.Decimal `json:"vgv"`
	Notes        string          `json:"anotacoes,omitempty" validate:"max=2000"`
}

// ActionTypes resolves catalog entries.
type ActionTypes interface {
	Lookup(ctx context.Context, id int64) (model.ActionType, error)
}

// Store is the event log plus the reference checks recording needs.
type Store interface {
	ProjectOwner(ctx context.Context, id int64) (int64, bool, error)
	AgencyExists(ctx context.Context, id int64) (bool, error)
	AgentExists(ctx context.Context, id int64) (bool, error)
	InsertEvent(ctx context.Context, ev *model.ActionEvent) error
}

// Recorder validates and stores action events.
type Recorder struct {
	catalog  ActionTypes
	store    Store
	validate *validator.Validate
	log      logger.Logger

	keys    *idempotency.Cache
	flight  singleflight.Group
	timeout time.Duration
}

const defaultRecordTimeout = 5 * time.Second

// NewRecorder creates a Recorder.
func NewRecorder(types ActionTypes, store Store, opts ...Option) *Recorder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	r := &Recorder{
		catalog:  types,
		store:    store,
		validate: v,
		log:      logger.Nop(),
		timeout:  defaultRecordTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.keys == nil {
		r.keys = idempotency.New()
	}
	return r
}

// Record validates in, snapshots its score and appends it to the log.
func (r *Recorder) Record(ctx context.Context, in NewEvent) (model.ActionEvent, error) {
	ev, err := r.record(ctx, in)
	if err != nil {
		metrics.RecordEventRejected(reason(err))
		r.log.Warn(ctx, "action event rejected", logger.Error(err))
		return model.ActionEvent{}, err
	}
	metrics.RecordEventRecorded()
	r.log.Info(ctx, "action event recorded",
		logger.Int64("id", ev.ID),
		logger.Int64("developer_id", ev.DeveloperID),
		logger.Int64("agency_id", ev.AgencyID),
		logger.Int64("points", ev.Points))
	return ev, nil
}

// RecordIdempotent records in at most once per key. A retry with the same
// key and body returns the original event with replayed set; the same key
// with a different body fails with ErrKeyReuse. An empty key records
// unconditionally. Concurrent callers sharing a key share one insert; it runs
// detached from the first caller's cancellation, bounded by the recorder
// timeout.
func (r *Recorder) RecordIdempotent(ctx context.Context, key string, in NewEvent) (ev model.ActionEvent, replayed bool, err error) {
	if key == "" {
		ev, err = r.Record(ctx, in)
		return ev, false, err
	}

	fp, err := fingerprint(in)
	if err != nil {
		return model.ActionEvent{}, false, err
	}

	if e, ok := r.keys.Get(key); ok {
		return r.replay(ctx, key, fp, e)
	}

	ran := false
	v, err, _ := r.flight.Do(key, func() (any, error) {
		ran = true
		if e, ok := r.keys.Get(key); ok {
			return e, nil
		}
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		ev, err := r.Record(sctx, in)
		if err != nil {
			return nil, err
		}
		return r.keys.Put(key, idempotency.Entry{Fingerprint: fp, Event: ev}), nil
	})
	if err != nil {
		return model.ActionEvent{}, false, err
	}
	e := v.(idempotency.Entry)
	if !ran || e.Fingerprint != fp {
		return r.replay(ctx, key, fp, e)
	}
	return e.Event, false, nil
}

func (r *Recorder) replay(ctx context.Context, key, fp string, e idempotency.Entry) (model.ActionEvent, bool, error) {
	if e.Fingerprint != fp {
		metrics.RecordEventRejected("key_reuse")
		return model.ActionEvent{}, false, fmt.Errorf("%w: %q", ErrKeyReuse, key)
	}
	metrics.RecordIdempotentReplay()
	r.log.Debug(ctx, "idempotent replay", logger.String("key", key), logger.Int64("id", e.Event.ID))
	return e.Event, true, nil
}

func (r *Recorder) record(ctx context.Context, in NewEvent) (model.ActionEvent, error) {
	if err := r.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return model.ActionEvent{}, &FieldError{Field: fe.Field(), Reason: "failed " + fe.Tag(), Kind: ErrInvalidEvent}
		}
		return model.ActionEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if in.Value.IsNegative() {
		return model.ActionEvent{}, &FieldError{Field: "vgv", Reason: "must not be negative", Kind: ErrInvalidEvent}
	}
	date, err := civil.ParseDate(in.Date)
	if err != nil || !date.IsValid() {
		return model.ActionEvent{}, &FieldError{Field: "data_acao", Reason: "not a calendar date", Kind: ErrInvalidEvent}
	}

	at, err := r.catalog.Lookup(ctx, in.ActionTypeID)
	if errors.Is(err, catalog.ErrNotFound) {
		return model.ActionEvent{}, &FieldError{Field: "acao_id", Reason: fmt.Sprintf("action type %d does not exist", in.ActionTypeID), Kind: ErrUnknownReference}
	}
	if err != nil {
		return model.ActionEvent{}, err
	}
	if !at.Active {
		return model.ActionEvent{}, &FieldError{Field: "acao_id", Reason: fmt.Sprintf("action type %d is inactive", at.ID), Kind: ErrInactiveActionType}
	}

	if err := r.checkReferences(ctx, in); err != nil {
		return model.ActionEvent{}, err
	}

	points, err := scoring.Snapshot(in.Quantity, at.Points)
	if err != nil {
		return model.ActionEvent{}, &FieldError{Field: "quantidade", Reason: err.Error(), Kind: ErrInvalidEvent}
	}

	ev := model.ActionEvent{
		DeveloperID:  in.DeveloperID,
		ProjectID:    in.ProjectID,
		AgencyID:     in.AgencyID,
		AgentID:      in.AgentID,
		ActionTypeID: at.ID,
		Date:         date,
		Quantity:     in.Quantity,
		Points:       points,
		Value:        in.Value.Round(2),
		Notes:        strings.TrimSpace(in.Notes),
	}
	if err := r.store.InsertEvent(ctx, &ev); err != nil {
		if errors.Is(err, model.ErrForeignKey) {
			return model.ActionEvent{}, fmt.Errorf("%w: %w", ErrUnknownReference, err)
		}
		return model.ActionEvent{}, err
	}
	return ev, nil
}

func (r *Recorder) checkReferences(ctx context.Context, in NewEvent) error {
	owner, found, err := r.store.ProjectOwner(ctx, in.ProjectID)
	if err != nil {
		return err
	}
	if !found {
		return &FieldError{Field: "empreendimento_id", Reason: fmt.Sprintf("project %d does not exist", in.ProjectID), Kind: ErrUnknownReference}
	}
	if owner != in.DeveloperID {
		return &FieldError{Field: "empreendimento_id", Reason: fmt.Sprintf("project %d belongs to developer %d", in.ProjectID, owner), Kind: ErrProjectMismatch}
	}

	ok, err := r.store.AgencyExists(ctx, in.AgencyID)
	if err != nil {
		return err
	}
	if !ok {
		return &FieldError{Field: "imobiliaria_id", Reason: fmt.Sprintf("agency %d does not exist", in.AgencyID), Kind: ErrUnknownReference}
	}

	ok, err = r.store.AgentExists(ctx, in.AgentID)
	if err != nil {
		return err
	}
	if !ok {
		return &FieldError{Field: "corretor_id", Reason: fmt.Sprintf("agent %d does not exist", in.AgentID), Kind: ErrUnknownReference}
	}
	return nil
}

func fingerprint(in NewEvent) (string, error) {
	in.Value = in.Value.Round(2)
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("fingerprint request: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEvent):
		return "invalid"
	case errors.Is(err, ErrInactiveActionType):
		return "inactive_action"
	case errors.Is(err, ErrProjectMismatch):
		return "project_mismatch"
	case errors.Is(err, ErrUnknownReference):
		return "unknown_reference"
	default:
		return "store"
	}
}
