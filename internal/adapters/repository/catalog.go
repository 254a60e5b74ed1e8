package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/imobrank/internal/domain/model"
)

// GetActionType loads one catalog entry.
func (s *Store) GetActionType(ctx context.Context, id int64) (_ model.ActionType, err error) {
	const op = "get_action_type"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	var a model.ActionType
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT id, nome, pontuacao, ativa FROM acoes WHERE id = ?`), id).
		Scan(&a.ID, &a.Name, &a.Points, &a.Active)
	if err != nil {
		return model.ActionType{}, classify(op, err)
	}
	return a, nil
}

// ListActionTypes returns the catalog ordered by name.
func (s *Store) ListActionTypes(ctx context.Context) (_ []model.ActionType, err error) {
	const op = "list_action_types"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT id, nome, pontuacao, ativa FROM acoes ORDER BY nome, id`)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out := []model.ActionType{}
	for rows.Next() {
		var a model.ActionType
		if err := rows.Scan(&a.ID, &a.Name, &a.Points, &a.Active); err != nil {
			return nil, classify(op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// CreateActionType inserts a catalog entry and fills its id.
func (s *Store) CreateActionType(ctx context.Context, a *model.ActionType) (err error) {
	const op = "create_action_type"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	err = s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO acoes (nome, pontuacao, ativa, criado_em) VALUES (?, ?, ?, ?) RETURNING id`),
		a.Name, a.Points, a.Active, time.Now().UTC(),
	).Scan(&a.ID)
	return classify(op, err)
}

// UpdateActionType overwrites name, points and the active flag. Events
// already recorded keep their stored score.
func (s *Store) UpdateActionType(ctx context.Context, a model.ActionType) (err error) {
	const op = "update_action_type"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE acoes SET nome = ?, pontuacao = ?, ativa = ? WHERE id = ?`),
		a.Name, a.Points, a.Active, a.ID,
	)
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
