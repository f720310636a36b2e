package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// Dados (arquivos JSON da clínica)
	DataDir string

	// OAuth / Google Calendar
	AuthFlow    string // "web" ou "local"
	RedirectURL string // endereço de callback registrado no provedor

	// Telefones
	DefaultRegion string

	// Scheduler de lembretes
	SchedulerInterval int // minutos entre verificações
	ReminderWindowMin int // antecedência do lembrete (minutos)

	// Resumo diário por email
	EnableEmailSummary bool
	SummaryHour        int // hora local do envio (0-23)
	SummaryEmailTo     string

	// SMTP
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromName  string
	SMTPFromEmail string
}

const (
	FlowWeb   = "web"
	FlowLocal = "local"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  Info: Ficheiro .env não encontrado ou não pôde ser carregado. Lendo variáveis de ambiente do sistema.")
	}

	return &Config{
		// Server
		Port:        getEnvWithDefault("PORT", "8080"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),

		// Dados
		DataDir: getEnvWithDefault("DATA_DIR", "./dados"),

		// OAuth
		AuthFlow:    getEnvWithDefault("AUTH_FLOW", FlowWeb),
		RedirectURL: getEnvWithDefault("REDIRECT_URL", "http://localhost:8080/oauth2callback"),

		// Telefones
		DefaultRegion: getEnvWithDefault("DEFAULT_REGION", "BR"),

		// Scheduler
		SchedulerInterval: getEnvInt("SCHEDULER_INTERVAL", 1),
		ReminderWindowMin: getEnvInt("REMINDER_WINDOW_MIN", 30),

		// Resumo por email
		EnableEmailSummary: getEnvBool("ENABLE_EMAIL_SUMMARY", false),
		SummaryHour:        getEnvInt("SUMMARY_HOUR", 18),
		SummaryEmailTo:     os.Getenv("SUMMARY_EMAIL_TO"),

		// SMTP
		SMTPHost:      getEnvWithDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFromName:  getEnvWithDefault("SMTP_FROM_NAME", "Agenda da Clínica"),
		SMTPFromEmail: getEnvWithDefault("SMTP_FROM_EMAIL", "agenda@clinica.local"),
	}, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// Validate valida se todas as configurações obrigatórias estão presentes
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.AuthFlow != FlowWeb && c.AuthFlow != FlowLocal {
		return fmt.Errorf("AUTH_FLOW must be %q or %q, got %q", FlowWeb, FlowLocal, c.AuthFlow)
	}

	if c.SchedulerInterval < 1 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be >= 1")
	}

	if c.EnableEmailSummary && (c.SMTPUsername == "" || c.SMTPPassword == "") {
		log.Println("⚠️  Resumo por email habilitado mas credenciais SMTP não configuradas")
	}

	return nil
}
