package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Nomes canônicos dos arquivos dentro do diretório de dados. Uploads e
// edições externas sempre usam estes nomes.
const (
	SettingsFile    = "settings.json"
	PacientesFile   = "pacientes.json"
	CredentialsFile = "credentials.json"
	TokenFile       = "token.json"
)

// EnsureDataDir cria o diretório de dados na inicialização, se necessário.
func EnsureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	return nil
}

// writeJSON grava o valor pretty-printed (indentação de 2 espaços), para que
// os arquivos continuem legíveis e editáveis à mão.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
