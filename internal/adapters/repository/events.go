package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/okian/imobrank/internal/domain/model"
)

// Counts is a row count per table, reported by the stats endpoint.
type Counts struct {
	Developers  int64 `json:"incorporadoras"`
	Projects    int64 `json:"empreendimentos"`
	Agencies    int64 `json:"imobiliarias"`
	Agents      int64 `json:"corretores"`
	ActionTypes int64 `json:"acoes"`
	Events      int64 `json:"registro_acoes"`
}

// CreateDeveloper inserts a developer and fills its id and creation time.
func (s *Store) CreateDeveloper(ctx context.Context, d *model.Developer) (err error) {
	const op = "create_developer"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	d.CreatedAt = time.Now().UTC()
	err = s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO incorporadoras (nome_exibicao, razao_social, criado_em) VALUES (?, ?, ?) RETURNING id`),
		d.DisplayName, nullString(d.LegalName), d.CreatedAt,
	).Scan(&d.ID)
	return classify(op, err)
}

// CreateProject inserts a project under an existing developer.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) (err error) {
	const op = "create_project"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	err = s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO empreendimentos (incorporadora_id, nome, criado_em) VALUES (?, ?, ?) RETURNING id`),
		p.DeveloperID, p.Name, time.Now().UTC(),
	).Scan(&p.ID)
	return classify(op, err)
}

// CreateAgency inserts an agency.
func (s *Store) CreateAgency(ctx context.Context, a *model.Agency) (err error) {
	const op = "create_agency"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	err = s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO imobiliarias (nome, criado_em) VALUES (?, ?) RETURNING id`),
		a.Name, time.Now().UTC(),
	).Scan(&a.ID)
	return classify(op, err)
}

// CreateAgent inserts an agent.
func (s *Store) CreateAgent(ctx context.Context, a *model.Agent) (err error) {
	const op = "create_agent"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	err = s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO corretores (nome, sobrenome, criado_em) VALUES (?, ?, ?) RETURNING id`),
		a.FirstName, nullString(a.LastName), time.Now().UTC(),
	).Scan(&a.ID)
	return classify(op, err)
}

// InsertEvent appends an action event and fills its id and creation time.
// Points must already hold the snapshot score.
func (s *Store) InsertEvent(ctx context.Context, ev *model.ActionEvent) (err error) {
	const op = "insert_event"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	ev.CreatedAt = time.Now().UTC()
	err = s.db.QueryRowContext(ctx,
		s.rebind(`
			INSERT INTO registro_acoes (
				incorporadora_id, empreendimento_id, imobiliaria_id, corretor_id, acao_id,
				data_acao, quantidade, pontuacao_total, vgv, anotacoes, criado_em
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		ev.DeveloperID, ev.ProjectID, ev.AgencyID, ev.AgentID, ev.ActionTypeID,
		ev.Date.String(), ev.Quantity, ev.Points, ev.Value.StringFixed(2), nullString(ev.Notes), ev.CreatedAt,
	).Scan(&ev.ID)
	return classify(op, err)
}

// GetEvent loads one recorded event.
func (s *Store) GetEvent(ctx context.Context, id int64) (_ model.ActionEvent, err error) {
	const op = "get_event"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	var (
		ev    model.ActionEvent
		date  string
		value string
		notes sql.NullString
	)
	err = s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, incorporadora_id, empreendimento_id, imobiliaria_id, corretor_id, acao_id,
		       CAST(data_acao AS TEXT), quantidade, pontuacao_total, CAST(vgv AS TEXT), anotacoes, criado_em
		FROM registro_acoes WHERE id = ?`), id).Scan(
		&ev.ID, &ev.DeveloperID, &ev.ProjectID, &ev.AgencyID, &ev.AgentID, &ev.ActionTypeID,
		&date, &ev.Quantity, &ev.Points, &value, &notes, &ev.CreatedAt,
	)
	if err != nil {
		return model.ActionEvent{}, classify(op, err)
	}
	if ev.Date, err = civil.ParseDate(date); err != nil {
		return model.ActionEvent{}, fmt.Errorf("%s: data_acao %q: %w", op, date, err)
	}
	if ev.Value, err = decimal.NewFromString(value); err != nil {
		return model.ActionEvent{}, fmt.Errorf("%s: vgv %q: %w", op, value, err)
	}
	ev.Notes = notes.String
	ev.CreatedAt = ev.CreatedAt.UTC()
	return ev, nil
}

// Counts returns the number of rows in every table.
func (s *Store) Counts(ctx context.Context) (_ Counts, err error) {
	const op = "counts"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	var c Counts
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM incorporadoras),
			(SELECT COUNT(*) FROM empreendimentos),
			(SELECT COUNT(*) FROM imobiliarias),
			(SELECT COUNT(*) FROM corretores),
			(SELECT COUNT(*) FROM acoes),
			(SELECT COUNT(*) FROM registro_acoes)`).Scan(
		&c.Developers, &c.Projects, &c.Agencies, &c.Agents, &c.ActionTypes, &c.Events,
	)
	if err != nil {
		return Counts{}, classify(op, err)
	}
	return c, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
