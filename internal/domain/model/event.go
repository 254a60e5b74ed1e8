// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// ActionEvent is one recorded occurrence of an agency performing a scored
// action on a project. Points is the snapshot taken at recording time and is
// never recomputed from the catalog.
type ActionEvent struct {
	ID           int64           `json:"id"`
	DeveloperID  int64           `json:"incorporadora_id"`
	ProjectID    int64           `json:"empreendimento_id"`
	AgencyID     int64           `json:"imobiliaria_id"`
	AgentID      int64           `json:"corretor_id"`
	ActionTypeID int64           `json:"acao_id"`
	Date         civil.Date      `json:"data_acao"`
	Quantity     int             `json:"quantidade"`
	Points       int64           `json:"pontuacao_total"`
	Value        decimal.Decimal `json:"vgv"`
	Notes        string          `json:"anotacoes,omitempty"`
	CreatedAt    time.Time       `json:"criado_em"`
}

// ActionType is a catalog entry: a scorable activity and its current point value.
type ActionType struct {
	ID     int64  `json:"id"`
	Name   string `json:"nome"`
	Points int    `json:"pontuacao"`
	Active bool   `json:"ativa"`
}
