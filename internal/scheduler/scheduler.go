package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"agenda-clinica/internal/config"
	"agenda-clinica/internal/email"
	"agenda-clinica/internal/gcal"
	"agenda-clinica/internal/notify"
	"agenda-clinica/internal/store"
)

// Scheduler verifica periodicamente a agenda autorizada e dispara lembretes
// para os navegadores conectados quando um atendimento está próximo. Quando o
// SMTP está configurado, também envia o resumo diário de amanhã por email.
type Scheduler struct {
	cfg          *config.Config
	tokens       *gcal.TokenManager
	settings     *store.SettingsStore
	hub          *notify.Hub
	emailService *email.EmailService
	stopChan     chan struct{}

	notified        map[string]struct{}
	notifiedDay     int
	lastSummaryDate string
}

func NewScheduler(cfg *config.Config, tokens *gcal.TokenManager, settings *store.SettingsStore, hub *notify.Hub) (*Scheduler, error) {
	var emailService *email.EmailService
	if cfg.EnableEmailSummary {
		var err error
		emailService, err = email.NewEmailService(cfg)
		if err != nil {
			log.Printf("⚠️ Email service not configured: %v", err)
			emailService = nil
		} else {
			log.Println("✅ Email service initialized")
		}
	}

	return &Scheduler{
		cfg:          cfg,
		tokens:       tokens,
		settings:     settings,
		hub:          hub,
		emailService: emailService,
		stopChan:     make(chan struct{}),
		notified:     make(map[string]struct{}),
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) {
	interval := time.Duration(s.cfg.SchedulerInterval) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("⏰ Scheduler iniciado (verifica lembretes a cada %s)", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.checkReminders(ctx)
			s.checkDailySummary(ctx)
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// checkReminders dispara um lembrete por evento que começa dentro da janela
// de antecedência, no máximo uma vez por dia por evento.
func (s *Scheduler) checkReminders(ctx context.Context) {
	if s.hub.ClientCount() == 0 {
		return
	}

	lister, err := s.lister(ctx)
	if err != nil {
		return
	}

	now := time.Now()
	window := time.Duration(s.cfg.ReminderWindowMin) * time.Minute
	eventos, err := lister.ListRange(now, now.Add(window))
	if err != nil {
		log.Printf("⚠️ Erro ao buscar eventos próximos: %v", err)
		return
	}

	if day := now.YearDay(); day != s.notifiedDay {
		s.notified = make(map[string]struct{})
		s.notifiedDay = day
	}

	for _, ev := range eventos {
		key := ev.Titulo + "|" + ev.Data
		if _, done := s.notified[key]; done {
			continue
		}
		s.notified[key] = struct{}{}

		s.hub.Broadcast(notify.Lembrete{
			Type:   "lembrete",
			Titulo: ev.Titulo,
			Data:   ev.Data,
		})
		log.Printf("🔔 Lembrete enviado: %s (%s)", ev.Titulo, ev.Data)
	}
}

// checkDailySummary envia o resumo de amanhã uma vez por dia, na hora
// configurada.
func (s *Scheduler) checkDailySummary(ctx context.Context) {
	if s.emailService == nil || s.cfg.SummaryEmailTo == "" {
		return
	}

	now := time.Now()
	hoje := now.Format("2006-01-02")
	if now.Hour() < s.cfg.SummaryHour || s.lastSummaryDate == hoje {
		return
	}

	lister, err := s.lister(ctx)
	if err != nil {
		return
	}

	// O resumo cobre a mesma janela de escopo que a tela da agenda.
	dias := s.settings.Get().DiasEscopo
	start, end := gcal.ScopeWindow(now, dias)
	eventos, err := lister.ListRange(start, end)
	if err != nil {
		log.Printf("⚠️ Erro ao montar resumo da agenda: %v", err)
		return
	}

	if err := s.emailService.SendAgendaSummary(s.cfg.SummaryEmailTo, eventos); err == nil {
		s.lastSummaryDate = hoje
	}
}

func (s *Scheduler) lister(ctx context.Context) (*gcal.Lister, error) {
	client, err := s.tokens.LoadAuthorizedClient(ctx)
	if err != nil {
		// Sem autorização não é falha do scheduler; o operador ainda não
		// fez login no Google.
		if !errors.Is(err, gcal.ErrAuthRequired) && !errors.Is(err, gcal.ErrCredentialsMissing) {
			log.Printf("⚠️ Erro ao carregar cliente autorizado: %v", err)
		}
		return nil, err
	}

	lister, err := gcal.NewLister(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to build lister: %w", err)
	}
	return lister, nil
}
