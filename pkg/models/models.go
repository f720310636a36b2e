package models

import "time"

type Settings struct {
	DiasEscopo       int    `json:"diasEscopo"`
	SenhaAdmin       string `json:"senhaAdmin"`
	OcultarIgnorados bool   `json:"ocultarIgnorados"`
}

// SettingsPatch é uma atualização parcial: campos nil preservam o valor atual.
type SettingsPatch struct {
	DiasEscopo       *int    `json:"diasEscopo,omitempty"`
	SenhaAdmin       *string `json:"senhaAdmin,omitempty"`
	OcultarIgnorados *bool   `json:"ocultarIgnorados,omitempty"`
}

type Paciente struct {
	Telefone    string     `json:"telefone,omitempty"`
	InformadoEm *time.Time `json:"informadoEm"`
}

// Evento é derivado por requisição a partir da agenda; nunca é persistido.
type Evento struct {
	Titulo string `json:"titulo"`
	Data   string `json:"data"`
}
