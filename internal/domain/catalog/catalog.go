// Package catalog maintains the action types agencies are scored on.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/pkg/logger"
	"github.com/okian/imobrank/pkg/metrics"
)

// Store persists action types.
type Store interface {
	GetActionType(ctx context.Context, id int64) (model.ActionType, error)
	ListActionTypes(ctx context.Context) ([]model.ActionType, error)
	CreateActionType(ctx context.Context, a *model.ActionType) error
	UpdateActionType(ctx context.Context, a model.ActionType) error
}

// Service validates catalog changes and translates store errors.
type Service struct {
	store Store
	log   logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a catalog service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns one action type.
func (s *Service) Lookup(ctx context.Context, id int64) (model.ActionType, error) {
	a, err := s.store.GetActionType(ctx, id)
	switch {
	case err == nil:
		metrics.RecordCatalogLookup("hit")
		return a, nil
	case errors.Is(err, model.ErrNotFound):
		metrics.RecordCatalogLookup("miss")
		return model.ActionType{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	default:
		metrics.RecordCatalogLookup("error")
		return model.ActionType{}, err
	}
}

// List returns every action type, active or not.
func (s *Service) List(ctx context.Context) ([]model.ActionType, error) {
	return s.store.ListActionTypes(ctx)
}

// Create adds an action type.
func (s *Service) Create(ctx context.Context, name string, points int, active bool) (model.ActionType, error) {
	a := model.ActionType{Name: strings.TrimSpace(name), Points: points, Active: active}
	if err := validate(a); err != nil {
		return model.ActionType{}, err
	}
	if err := s.store.CreateActionType(ctx, &a); err != nil {
		return model.ActionType{}, translate(err, a)
	}
	s.log.Info(ctx, "action type created",
		logger.Int64("id", a.ID), logger.String("name", a.Name), logger.Int("points", a.Points))
	return a, nil
}

// Update replaces an action type's name, points and active flag. Events
// already recorded are unaffected.
func (s *Service) Update(ctx context.Context, id int64, name string, points int, active bool) (model.ActionType, error) {
	a := model.ActionType{ID: id, Name: strings.TrimSpace(name), Points: points, Active: active}
	if err := validate(a); err != nil {
		return model.ActionType{}, err
	}
	if err := s.store.UpdateActionType(ctx, a); err != nil {
		return model.ActionType{}, translate(err, a)
	}
	s.log.Info(ctx, "action type updated",
		logger.Int64("id", a.ID), logger.Int("points", a.Points), logger.Bool("active", a.Active))
	return a, nil
}

func validate(a model.ActionType) error {
	if a.Name == "" {
		return ErrInvalidName
	}
	if a.Points <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPoints, a.Points)
	}
	return nil
}

func translate(err error, a model.ActionType) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("%w: %d", ErrNotFound, a.ID)
	case errors.Is(err, model.ErrDuplicate):
		return fmt.Errorf("%w: %q", ErrDuplicateName, a.Name)
	default:
		return err
	}
}
