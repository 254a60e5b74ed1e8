package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/okian/imobrank/internal/domain/types"
)

// DeveloperExists reports whether the developer id is known.
func (s *Store) DeveloperExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "developer_exists", `SELECT 1 FROM incorporadoras WHERE id = ?`, id)
}

// AgencyExists reports whether the agency id is known.
func (s *Store) AgencyExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "agency_exists", `SELECT 1 FROM imobiliarias WHERE id = ?`, id)
}

// AgentExists reports whether the agent id is known.
func (s *Store) AgentExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "agent_exists", `SELECT 1 FROM corretores WHERE id = ?`, id)
}

func (s *Store) exists(ctx context.Context, op, query string, id int64) (_ bool, err error) {
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	var one int
	err = s.db.QueryRowContext(ctx, s.rebind(query), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(op, err)
	}
	return true, nil
}

// ProjectOwner returns the developer owning the project.
func (s *Store) ProjectOwner(ctx context.Context, id int64) (_ int64, _ bool, err error) {
	const op = "project_owner"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	var owner int64
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT incorporadora_id FROM empreendimentos WHERE id = ?`), id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify(op, err)
	}
	return owner, true, nil
}

// ListDevelopers returns every developer ordered by display name.
func (s *Store) ListDevelopers(ctx context.Context) (_ []types.DeveloperOption, err error) {
	const op = "list_developers"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	var rows []struct {
		ID   int64  `db:"id"`
		Name string `db:"nome_exibicao"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, nome_exibicao FROM incorporadoras ORDER BY nome_exibicao, id`); err != nil {
		return nil, classify(op, err)
	}

	out := make([]types.DeveloperOption, len(rows))
	for i, r := range rows {
		out[i] = types.DeveloperOption{ID: r.ID, Name: r.Name}
	}
	return out, nil
}

// ListProjects returns projects ordered by name, optionally only those of
// one developer.
func (s *Store) ListProjects(ctx context.Context, developerID *int64) (_ []types.ProjectOption, err error) {
	const op = "list_projects"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	b := s.statements().
		Select("id", "nome", "incorporadora_id").
		From("empreendimentos").
		OrderBy("nome", "id")
	if developerID != nil {
		b = b.Where(sq.Eq{"incorporadora_id": *developerID})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, classify(op, err)
	}

	var rows []struct {
		ID          int64  `db:"id"`
		Name        string `db:"nome"`
		DeveloperID int64  `db:"incorporadora_id"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(op, err)
	}

	out := make([]types.ProjectOption, len(rows))
	for i, r := range rows {
		out[i] = types.ProjectOption{ID: r.ID, Name: r.Name, DeveloperID: r.DeveloperID}
	}
	return out, nil
}
