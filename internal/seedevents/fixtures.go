package seedevents

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/imobrank/internal/adapters/repository"
	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/pkg/logger"
)

// ReferenceStore creates the entities events point at.
type ReferenceStore interface {
	CreateDeveloper(ctx context.Context, d *model.Developer) error
	CreateProject(ctx context.Context, p *model.Project) error
	CreateAgency(ctx context.Context, a *model.Agency) error
	CreateAgent(ctx context.Context, a *model.Agent) error
}

// ActionTypes adds entries to the action catalog; catalog.Service
// satisfies it.
type ActionTypes interface {
	Create(ctx context.Context, name string, points int, active bool) (model.ActionType, error)
}

var actionCatalog = []struct {
	name   string
	points int
}{
	{"Visita", 10},
	{"Proposta", 40},
	{"Venda", 100},
	{"Treinamento", 5},
}

// openStore connects to the service database and applies migrations.
func openStore(ctx context.Context, cfg *Config) (*repository.Store, error) {
	store, err := repository.Open(ctx, cfg.Driver, cfg.DSN, repository.WithLogger(logger.Get().Named("store")))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// createFixtures inserts a fresh set of developers, projects, agencies, one
// agent and the action catalog. Names carry a run tag so repeated runs
// against the same database do not collide.
func createFixtures(ctx context.Context, store ReferenceStore, types ActionTypes, cfg *Config) (*Fixtures, error) {
	run := uuid.NewString()[:8]
	f := &Fixtures{}

	for i := 0; i < cfg.Developers; i++ {
		d := model.Developer{DisplayName: fmt.Sprintf("Incorporadora %d (%s)", i+1, run)}
		if err := store.CreateDeveloper(ctx, &d); err != nil {
			return nil, fmt.Errorf("create developer: %w", err)
		}
		f.Developers = append(f.Developers, d)

		for j := 0; j < 2; j++ {
			p := model.Project{DeveloperID: d.ID, Name: fmt.Sprintf("Empreendimento %d.%d (%s)", i+1, j+1, run)}
			if err := store.CreateProject(ctx, &p); err != nil {
				return nil, fmt.Errorf("create project: %w", err)
			}
			f.Projects = append(f.Projects, p)
		}
	}

	for i := 0; i < cfg.Agencies; i++ {
		a := model.Agency{Name: fmt.Sprintf("Imobiliaria %d (%s)", i+1, run)}
		if err := store.CreateAgency(ctx, &a); err != nil {
			return nil, fmt.Errorf("create agency: %w", err)
		}
		f.Agencies = append(f.Agencies, a)
	}

	agent := model.Agent{FirstName: "Corretor", LastName: run}
	if err := store.CreateAgent(ctx, &agent); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	f.Agents = append(f.Agents, agent)

	for _, c := range actionCatalog {
		a, err := types.Create(ctx, c.name+" "+run, c.points, true)
		if err != nil {
			return nil, fmt.Errorf("create action type: %w", err)
		}
		f.ActionTypes = append(f.ActionTypes, a)
	}

	logger.Get().Info(ctx, "fixtures created",
		logger.Int("developers", len(f.Developers)),
		logger.Int("projects", len(f.Projects)),
		logger.Int("agencies", len(f.Agencies)),
		logger.Int("action_types", len(f.ActionTypes)))
	return f, nil
}
