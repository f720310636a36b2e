package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"agenda-clinica/internal/phone"
	"agenda-clinica/pkg/models"
)

// PacienteStore mantém o pacientes.json: nome do paciente → registro com
// telefone e carimbo de "informado". O arquivo inteiro é lido, alterado em
// memória e regravado a cada operação.
type PacienteStore struct {
	path       string
	normalizer *phone.Normalizer
}

func NewPacienteStore(dataDir string, normalizer *phone.Normalizer) *PacienteStore {
	return &PacienteStore{
		path:       filepath.Join(dataDir, PacientesFile),
		normalizer: normalizer,
	}
}

// GetAll retorna o mapa completo de pacientes; mapa vazio se o arquivo não
// existe. Versões antigas do banco gravavam valores que não eram objetos
// (telefone como string solta); esses valores são coagidos para um registro
// vazio antes de qualquer merge.
func (p *PacienteStore) GetAll() (map[string]models.Paciente, error) {
	pacientes := make(map[string]models.Paciente)

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return pacientes, nil
		}
		return nil, fmt.Errorf("failed to read pacientes: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pacientes: %w", err)
	}

	for nome, value := range raw {
		var registro models.Paciente
		if err := json.Unmarshal(value, &registro); err != nil {
			log.Printf("⚠️  Registro de paciente em formato antigo, coagindo para vazio: %s", nome)
			registro = models.Paciente{}
		}
		pacientes[nome] = registro
	}

	return pacientes, nil
}

// SetPhone normaliza o telefone e grava no registro do paciente, criando o
// registro se necessário. Telefone inválido falha com phone.ErrInvalidPhone
// e deixa o arquivo intocado.
func (p *PacienteStore) SetPhone(nome, rawPhone string) error {
	normalizado, err := p.normalizer.Normalize(rawPhone)
	if err != nil {
		return err
	}

	pacientes, err := p.GetAll()
	if err != nil {
		return err
	}

	registro := pacientes[nome]
	registro.Telefone = normalizado
	pacientes[nome] = registro

	return writeJSON(p.path, pacientes)
}

// SetInformed marca (ou desmarca) o paciente como informado. Marcar grava o
// horário atual; desmarcar zera o campo. Idempotente nos dois sentidos.
func (p *PacienteStore) SetInformed(nome string, informado bool) error {
	pacientes, err := p.GetAll()
	if err != nil {
		return err
	}

	registro := pacientes[nome]
	if informado {
		agora := time.Now()
		registro.InformadoEm = &agora
	} else {
		registro.InformadoEm = nil
	}
	pacientes[nome] = registro

	return writeJSON(p.path, pacientes)
}
