package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/okian/imobrank/internal/domain/ranking"
)

const pointsSum = "CAST(COALESCE(SUM(ra.pontuacao_total), 0) AS BIGINT) AS points"

type agencyRow struct {
	AgencyID   int64  `db:"agency_id"`
	AgencyName string `db:"agency_name"`
	Events     int64  `db:"events"`
	Points     int64  `db:"points"`
}

type actionRow struct {
	AgencyID       int64  `db:"agency_id"`
	ActionTypeID   int64  `db:"action_id"`
	ActionTypeName string `db:"action_name"`
	Events         int64  `db:"events"`
	Points         int64  `db:"points"`
}

type totalsRow struct {
	Events int64 `db:"events"`
	Points int64 `db:"points"`
}

// conditions renders criteria as a conjunction over registro_acoes aliased ra.
// The developer constraint comes first so a scoped read can never lose it.
func conditions(c ranking.Criteria) sq.And {
	var and sq.And
	if c.DeveloperID != nil {
		and = append(and, sq.Eq{"ra.incorporadora_id": *c.DeveloperID})
	}
	if c.ProjectID != nil {
		and = append(and, sq.Eq{"ra.empreendimento_id": *c.ProjectID})
	}
	if c.DateFrom != nil {
		and = append(and, sq.GtOrEq{"ra.data_acao": c.DateFrom.String()})
	}
	if c.DateTo != nil {
		and = append(and, sq.LtOrEq{"ra.data_acao": c.DateTo.String()})
	}
	return and
}

func filtered(b sq.SelectBuilder, c ranking.Criteria) sq.SelectBuilder {
	if and := conditions(c); len(and) > 0 {
		return b.Where(and)
	}
	return b
}

// AgencyTotals groups matching events by agency.
func (s *Store) AgencyTotals(ctx context.Context, c ranking.Criteria) (_ []ranking.AgencyTotal, err error) {
	const op = "agency_totals"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	query, args, err := filtered(s.statements().
		Select("i.id AS agency_id", "i.nome AS agency_name", "COUNT(ra.id) AS events", pointsSum).
		From("registro_acoes ra").
		Join("imobiliarias i ON i.id = ra.imobiliaria_id"), c).
		GroupBy("i.id", "i.nome").
		ToSql()
	if err != nil {
		return nil, classify(op, err)
	}

	var rows []agencyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(op, err)
	}
	out := make([]ranking.AgencyTotal, len(rows))
	for i, r := range rows {
		out[i] = ranking.AgencyTotal{AgencyID: r.AgencyID, AgencyName: r.AgencyName, Events: r.Events, Points: r.Points}
	}
	return out, nil
}

// ActionBreakdown groups matching events by agency and action type.
func (s *Store) ActionBreakdown(ctx context.Context, c ranking.Criteria) (_ []ranking.ActionTotal, err error) {
	const op = "action_breakdown"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	query, args, err := filtered(s.statements().
		Select("ra.imobiliaria_id AS agency_id", "a.id AS action_id", "a.nome AS action_name", "COUNT(ra.id) AS events", pointsSum).
		From("registro_acoes ra").
		Join("acoes a ON a.id = ra.acao_id"), c).
		GroupBy("ra.imobiliaria_id", "a.id", "a.nome").
		ToSql()
	if err != nil {
		return nil, classify(op, err)
	}

	var rows []actionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(op, err)
	}
	out := make([]ranking.ActionTotal, len(rows))
	for i, r := range rows {
		out[i] = ranking.ActionTotal{
			AgencyID:       r.AgencyID,
			ActionTypeID:   r.ActionTypeID,
			ActionTypeName: r.ActionTypeName,
			Events:         r.Events,
			Points:         r.Points,
		}
	}
	return out, nil
}

// GrandTotal counts and sums every matching event.
func (s *Store) GrandTotal(ctx context.Context, c ranking.Criteria) (_ ranking.Totals, err error) {
	const op = "grand_total"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	query, args, err := filtered(s.statements().
		Select("COUNT(ra.id) AS events", pointsSum).
		From("registro_acoes ra"), c).
		ToSql()
	if err != nil {
		return ranking.Totals{}, classify(op, err)
	}

	var t totalsRow
	if err := s.db.GetContext(ctx, &t, query, args...); err != nil {
		return ranking.Totals{}, classify(op, err)
	}
	return ranking.Totals{Events: t.Events, Points: t.Points}, nil
}
