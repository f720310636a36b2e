package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"agenda-clinica/pkg/models"
)

func TestSettingsDefaultOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	s := NewSettingsStore(dir)

	got := s.Get()

	want := models.Settings{DiasEscopo: 1, SenhaAdmin: "admin", OcultarIgnorados: true}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	// O padrão deve ter sido gravado em disco (self-healing).
	data, err := os.ReadFile(filepath.Join(dir, SettingsFile))
	if err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
	var onDisk models.Settings
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("settings file not valid JSON: %v", err)
	}
	if onDisk != want {
		t.Errorf("on-disk settings = %+v, want %+v", onDisk, want)
	}
}

func TestSettingsDefaultOnCorruptFile(t *testing.T) {
	casos := []string{"", "{not json", `"uma string"`, "null"}

	for _, conteudo := range casos {
		dir := t.TempDir()
		path := filepath.Join(dir, SettingsFile)
		if err := os.WriteFile(path, []byte(conteudo), 0o644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		s := NewSettingsStore(dir)
		got := s.Get()

		want := models.Settings{DiasEscopo: 1, SenhaAdmin: "admin", OcultarIgnorados: true}
		if got != want {
			t.Errorf("Get() with content %q = %+v, want defaults", conteudo, got)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("settings file missing after heal: %v", err)
		}
		var onDisk models.Settings
		if err := json.Unmarshal(data, &onDisk); err != nil {
			t.Errorf("healed file with content %q not valid JSON: %v", conteudo, err)
		}
	}
}

func TestSettingsHealsMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SettingsFile)
	if err := os.WriteFile(path, []byte(`{"senhaAdmin":"segredo"}`), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	s := NewSettingsStore(dir)
	got := s.Get()

	if got.SenhaAdmin != "segredo" {
		t.Errorf("existing key must be preserved, got senhaAdmin=%q", got.SenhaAdmin)
	}
	if got.DiasEscopo != 1 || !got.OcultarIgnorados {
		t.Errorf("missing keys must fall back to defaults, got %+v", got)
	}
}

func TestSettingsSavePartialMerge(t *testing.T) {
	dir := t.TempDir()
	s := NewSettingsStore(dir)

	dias := 7
	if err := s.Save(models.SettingsPatch{DiasEscopo: &dias}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := s.Get()
	if got.DiasEscopo != 7 {
		t.Errorf("diasEscopo = %d, want 7", got.DiasEscopo)
	}
	if got.SenhaAdmin != "admin" || !got.OcultarIgnorados {
		t.Errorf("untouched fields changed: %+v", got)
	}

	senha := "nova"
	if err := s.Save(models.SettingsPatch{SenhaAdmin: &senha}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got = s.Get()
	if got.DiasEscopo != 7 || got.SenhaAdmin != "nova" {
		t.Errorf("merge lost earlier value: %+v", got)
	}
}

func TestSettingsFileIsPrettyPrinted(t *testing.T) {
	dir := t.TempDir()
	s := NewSettingsStore(dir)
	s.Get()

	data, err := os.ReadFile(filepath.Join(dir, SettingsFile))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data[:4]) != "{\n  " {
		t.Errorf("expected 2-space pretty printing, got prefix %q", string(data[:4]))
	}
}
