// Package types contains the derived ranking payloads returned to callers.
package types

// BreakdownEntry is one action type's share of an agency's ranking row.
type BreakdownEntry struct {
	ActionTypeID   int64  `json:"acao_id"`
	ActionTypeName string `json:"acao_nome"`
	Count          int64  `json:"quantidade"`
	Points         int64  `json:"pontuacao_acao"`
}

// RankingRow is one agency on the leaderboard.
type RankingRow struct {
	Position   int              `json:"posicao"`
	AgencyID   int64            `json:"imobiliaria_id"`
	AgencyName string           `json:"imobiliaria_nome"`
	EventCount int64            `json:"total_acoes"`
	Points     int64            `json:"pontuacao_total"`
	Percent    float64          `json:"percentual"`
	Breakdown  []BreakdownEntry `json:"detalhes_acoes"`
}

// Statistics summarizes the filtered event set.
type Statistics struct {
	Agencies int   `json:"total_imobiliarias"`
	Events   int64 `json:"total_acoes"`
	Points   int64 `json:"total_pontos"`
}

// RankingResult is the ordered leaderboard plus its statistics. Rows is never
// nil so an empty ranking encodes as [].
type RankingResult struct {
	Rows  []RankingRow `json:"ranking"`
	Stats Statistics   `json:"estatisticas"`
}

// DeveloperOption is a developer as listed by filter UIs.
type DeveloperOption struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

// ProjectOption is a project as listed by filter UIs.
type ProjectOption struct {
	ID          int64  `json:"id"`
	Name        string `json:"nome"`
	DeveloperID int64  `json:"incorporadora_id"`
}

// FilterOptions feeds the ranking filter dropdowns.
type FilterOptions struct {
	Developers []DeveloperOption `json:"incorporadoras"`
	Projects   []ProjectOption   `json:"empreendimentos"`
}
