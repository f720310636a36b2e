package gcal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"agenda-clinica/pkg/models"
)

const semTitulo = "Sem Título"

// Lister busca os eventos da agenda primária dentro da janela de escopo.
type Lister struct {
	service *calendar.Service
}

func NewLister(ctx context.Context, client *http.Client) (*Lister, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Lister{service: service}, nil
}

// ScopeWindow devolve a janela de busca: da meia-noite local de amanhã até
// 23:59:59.999 de (amanhã + dias − 1).
func ScopeWindow(now time.Time, dias int) (time.Time, time.Time) {
	if dias < 1 {
		dias = 1
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	end := start.AddDate(0, 0, dias).Add(-time.Millisecond)
	return start, end
}

// ListUpcoming retorna os eventos da janela, ocorrências expandidas e em
// ordem de início. Nenhum filtro de "ignorados" é aplicado aqui; isso é
// responsabilidade da interface consumidora.
func (l *Lister) ListUpcoming(dias int) ([]models.Evento, error) {
	start, end := ScopeWindow(time.Now(), dias)
	return l.ListRange(start, end)
}

// ListRange busca eventos da agenda primária no intervalo dado.
func (l *Lister) ListRange(start, end time.Time) ([]models.Evento, error) {
	events, err := l.service.Events.List("primary").
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	eventos := make([]models.Evento, 0, len(events.Items))
	for _, item := range events.Items {
		eventos = append(eventos, models.Evento{
			Titulo: tituloDe(item),
			Data:   formatarData(item.Start),
		})
	}

	return eventos, nil
}

func tituloDe(item *calendar.Event) string {
	if item.Summary == "" {
		return semTitulo
	}
	return item.Summary
}

// formatarData converte o início do evento para "DD/MM às HH:MM" no fuso
// local. Eventos de dia inteiro só têm a data.
func formatarData(start *calendar.EventDateTime) string {
	if start == nil {
		return ""
	}

	if start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, start.DateTime)
		if err == nil {
			return t.Local().Format("02/01 às 15:04")
		}
	}

	if start.Date != "" {
		t, err := time.Parse("2006-01-02", start.Date)
		if err == nil {
			return t.Format("02/01 às 00:00")
		}
	}

	return ""
}
