package email

import (
	"fmt"
	"log"
	"time"

	"agenda-clinica/pkg/models"
)

// SendAgendaSummary envia o resumo da agenda de amanhã para o destinatário
// configurado.
func (s *EmailService) SendAgendaSummary(to string, eventos []models.Evento) error {
	amanha := time.Now().AddDate(0, 0, 1)
	subject := fmt.Sprintf("📅 Agenda de %s", amanha.Format("02/01/2006"))
	htmlBody := AgendaSummaryTemplate(eventos)

	if err := s.SendEmail(to, subject, htmlBody); err != nil {
		log.Printf("❌ Erro ao enviar resumo da agenda: %v", err)
		return err
	}

	log.Printf("📧 Resumo da agenda enviado para: %s", to)
	return nil
}
