package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"agenda-clinica/internal/api"
	"agenda-clinica/internal/config"
	"agenda-clinica/internal/gcal"
	"agenda-clinica/internal/notify"
	"agenda-clinica/internal/phone"
	"agenda-clinica/internal/scheduler"
	"agenda-clinica/internal/store"

	"github.com/gorilla/mux"
)

var (
	tokenManager *gcal.TokenManager
	hub          *notify.Hub
	startTime    time.Time
	serverLogs   []string
	logsMutex    sync.RWMutex
)

const maxLogs = 100

type logWriter struct{}

func (lw logWriter) Write(p []byte) (n int, err error) {
	logsMutex.Lock()
	defer logsMutex.Unlock()

	msg := string(p)
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}

	timestamp := time.Now().Format("15:04:05")
	logEntry := fmt.Sprintf("[%s] %s", timestamp, msg)

	serverLogs = append(serverLogs, logEntry)
	if len(serverLogs) > maxLogs {
		serverLogs = serverLogs[1:]
	}

	// Imprimir no console também
	fmt.Println(logEntry)

	return len(p), nil
}

func main() {
	log.SetFlags(0)
	log.SetOutput(logWriter{})

	startTime = time.Now()
	log.Println("🚀 Iniciando Servidor da Agenda da Clínica...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erro config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Configuração inválida: %v", err)
	}

	if err := store.EnsureDataDir(cfg.DataDir); err != nil {
		log.Fatalf("❌ Erro ao criar diretório de dados: %v", err)
	}

	settingsStore := store.NewSettingsStore(cfg.DataDir)
	normalizer := phone.NewNormalizer(cfg.DefaultRegion)
	pacienteStore := store.NewPacienteStore(cfg.DataDir, normalizer)
	tokenManager = gcal.NewTokenManager(cfg.DataDir, cfg.RedirectURL)

	// No fluxo local não há callback web: o operador autoriza pelo terminal
	// na subida do servidor, se ainda não houver token.
	if cfg.AuthFlow == config.FlowLocal && !tokenManager.HasToken() {
		if err := tokenManager.AuthorizeViaTerminal(context.Background()); err != nil {
			log.Printf("⚠️ Autorização pelo terminal falhou: %v", err)
		}
	}

	hub = notify.NewHub()

	sch, err := scheduler.NewScheduler(cfg, tokenManager, settingsStore, hub)
	if err != nil {
		log.Printf("⚠️ Erro ao criar scheduler: %v", err)
	} else if sch != nil {
		go sch.Start(context.Background())
		log.Println("✅ Scheduler iniciado")
	}

	router := mux.NewRouter()
	router.HandleFunc("/ws", hub.HandleWS)

	handler := api.NewHandler(settingsStore, pacienteStore, tokenManager, cfg.DataDir)
	handler.RegisterRoutes(router)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/stats", statsHandler).Methods("GET")
	apiRouter.HandleFunc("/health", healthCheckHandler(cfg.DataDir)).Methods("GET")
	apiRouter.HandleFunc("/logs", logsHandler).Methods("GET")

	router.PathPrefix("/").Handler(http.FileServer(http.Dir("./web")))

	log.Printf("✅ Servidor pronto na porta %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, corsMiddleware(router)))
}

// --- API HANDLERS ---

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept")

		// Responde preflight imediatamente
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	response := map[string]interface{}{
		"connected_clients": hub.ClientCount(),
		"uptime":            formatDuration(time.Since(startTime)),
		"authorized":        tokenManager.HasToken(),
		"timestamp":         time.Now().Unix(),
	}

	json.NewEncoder(w).Encode(response)
}

func logsHandler(w http.ResponseWriter, r *http.Request) {
	logsMutex.RLock()
	defer logsMutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(map[string]interface{}{
		"logs": serverLogs,
	})
}

func healthCheckHandler(dataDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status := "healthy"
		httpStatus := http.StatusOK

		// O sistema inteiro depende do diretório de dados ser gravável.
		probe := dataDir + "/.health"
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			os.Remove(probe)
		}

		w.WriteHeader(httpStatus)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
