package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"agenda-clinica/pkg/models"
)

// SettingsStore lê e grava o settings.json da clínica. Toda leitura vai ao
// disco; não há cache entre requisições, então edições externas valem já na
// próxima chamada. Gravações concorrentes não são coordenadas (última vence).
type SettingsStore struct {
	path string
}

func NewSettingsStore(dataDir string) *SettingsStore {
	return &SettingsStore{path: filepath.Join(dataDir, SettingsFile)}
}

func defaultSettings() models.Settings {
	return models.Settings{
		DiasEscopo:       1,
		SenhaAdmin:       "admin",
		OcultarIgnorados: true,
	}
}

// Get retorna as configurações atuais. Arquivo ausente, vazio ou corrompido
// nunca vira erro: o padrão é gravado de volta e devolvido (self-healing).
// Chaves ausentes num arquivo válido são preenchidas com o padrão, e o
// arquivo completo é gravado de volta.
func (s *SettingsStore) Get() models.Settings {
	settings := defaultSettings()

	data, err := os.ReadFile(s.path)
	if err != nil || len(data) == 0 {
		s.heal(settings)
		return settings
	}

	var parsed models.SettingsPatch
	if jsonErr := json.Unmarshal(data, &parsed); jsonErr != nil {
		log.Printf("⚠️  settings.json corrompido, restaurando padrão: %v", jsonErr)
		s.heal(settings)
		return settings
	}

	complete := parsed.DiasEscopo != nil && *parsed.DiasEscopo >= 1 &&
		parsed.SenhaAdmin != nil && parsed.OcultarIgnorados != nil
	if parsed.DiasEscopo != nil && *parsed.DiasEscopo >= 1 {
		settings.DiasEscopo = *parsed.DiasEscopo
	}
	if parsed.SenhaAdmin != nil {
		settings.SenhaAdmin = *parsed.SenhaAdmin
	}
	if parsed.OcultarIgnorados != nil {
		settings.OcultarIgnorados = *parsed.OcultarIgnorados
	}

	if !complete {
		s.heal(settings)
	}
	return settings
}

func (s *SettingsStore) heal(settings models.Settings) {
	if err := writeJSON(s.path, settings); err != nil {
		log.Printf("❌ Erro ao gravar settings padrão: %v", err)
	}
}

// Save aplica um merge raso do patch sobre as configurações atuais e persiste.
func (s *SettingsStore) Save(patch models.SettingsPatch) error {
	settings := s.Get()

	if patch.DiasEscopo != nil {
		settings.DiasEscopo = *patch.DiasEscopo
	}
	if patch.SenhaAdmin != nil {
		settings.SenhaAdmin = *patch.SenhaAdmin
	}
	if patch.OcultarIgnorados != nil {
		settings.OcultarIgnorados = *patch.OcultarIgnorados
	}

	return writeJSON(s.path, settings)
}
