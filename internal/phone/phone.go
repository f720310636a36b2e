package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhone indica um telefone que não pôde ser interpretado como um
// número válido para a região detectada.
var ErrInvalidPhone = errors.New("INVALID_PHONE")

// Normalizer valida e canoniza telefones usando a região padrão da clínica.
type Normalizer struct {
	defaultRegion string
}

func NewNormalizer(defaultRegion string) *Normalizer {
	if defaultRegion == "" {
		defaultRegion = "BR"
	}
	return &Normalizer{defaultRegion: defaultRegion}
}

// Normalize converte um telefone bruto para o formato E.164 sem o '+'
// inicial, só dígitos (ex.: "11 99999-8888" → "5511999998888"). Entrada que
// não parseia ou não é um número válido para a região falha com
// ErrInvalidPhone em vez de chutar um resultado.
func (n *Normalizer) Normalize(raw string) (string, error) {
	parsed, err := phonenumbers.ParseAndKeepRawInput(raw, n.defaultRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", ErrInvalidPhone
	}

	formatted := phonenumbers.Format(parsed, phonenumbers.E164)
	return strings.TrimPrefix(formatted, "+"), nil
}
