package model

import "time"

// Developer (incorporadora) is the tenant owning projects.
type Developer struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"nome_exibicao"`
	LegalName   string    `json:"razao_social,omitempty"`
	CreatedAt   time.Time `json:"criado_em"`
}

// Project (empreendimento) belongs to exactly one developer.
type Project struct {
	ID          int64  `json:"id"`
	DeveloperID int64  `json:"incorporadora_id"`
	Name        string `json:"nome"`
}

// Agency (imobiliaria) is the ranked entity.
type Agency struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

// Agent (corretor) records actions; not bound to an agency.
type Agent struct {
	ID        int64  `json:"id"`
	FirstName string `json:"nome"`
	LastName  string `json:"sobrenome,omitempty"`
}
