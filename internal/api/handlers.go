package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"agenda-clinica/internal/gcal"
	"agenda-clinica/internal/phone"
	"agenda-clinica/internal/store"
	"agenda-clinica/pkg/models"
)

// Handler concentra os endpoints JSON da aplicação. Os colaboradores são
// injetados na construção; nenhum estado é compartilhado fora deles.
type Handler struct {
	Settings  *store.SettingsStore
	Pacientes *store.PacienteStore
	Tokens    *gcal.TokenManager
	DataDir   string
}

func NewHandler(settings *store.SettingsStore, pacientes *store.PacienteStore, tokens *gcal.TokenManager, dataDir string) *Handler {
	return &Handler{
		Settings:  settings,
		Pacientes: pacientes,
		Tokens:    tokens,
		DataDir:   dataDir,
	}
}

// RegisterRoutes registra os endpoints da API e o callback OAuth.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/oauth2callback", h.OAuthCallback).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth-url", h.AuthURL).Methods("GET")
	api.HandleFunc("/pacientes", h.GetPacientes).Methods("GET")
	api.HandleFunc("/salvar", h.SalvarTelefone).Methods("POST")
	api.HandleFunc("/marcar-informado", h.MarcarInformado).Methods("POST")
	api.HandleFunc("/agenda", h.Agenda).Methods("GET")
	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.SaveSettings).Methods("POST")
	api.HandleFunc("/upload", h.Upload).Methods("POST")
	api.HandleFunc("/delete-token", h.DeleteToken).Methods("POST")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// AuthURL devolve a URL de consentimento do Google para o front iniciar o
// login. Falha com 500 genérico quando o credentials.json não foi enviado ou
// não parseia.
func (h *Handler) AuthURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.Tokens.AuthURL()
	if err != nil {
		log.Printf("❌ Erro ao montar URL de autorização: %v", err)
		writeError(w, http.StatusInternalServerError, "Credenciais do provedor ausentes ou inválidas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// OAuthCallback completa a troca do código de autorização e volta para a
// tela inicial. Erros aqui são texto puro: o navegador está no meio do
// redirect do Google, não numa chamada JSON do front.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Código de autorização ausente", http.StatusBadRequest)
		return
	}

	if _, err := h.Tokens.ExchangeCode(r.Context(), code); err != nil {
		log.Printf("❌ Erro na troca do código: %v", err)
		http.Error(w, fmt.Sprintf("Erro ao completar autorização: %v", err), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) GetPacientes(w http.ResponseWriter, r *http.Request) {
	pacientes, err := h.Pacientes.GetAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, pacientes)
}

func (h *Handler) SalvarTelefone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nome     string `json:"nome"`
		Telefone string `json:"telefone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Nome == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Requisição inválida"})
		return
	}

	if err := h.Pacientes.SetPhone(req.Nome, req.Telefone); err != nil {
		if errors.Is(err, phone.ErrInvalidPhone) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Telefone inválido"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) MarcarInformado(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nome      string `json:"nome"`
		Informado bool   `json:"informado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Nome == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
		return
	}

	if err := h.Pacientes.SetInformed(req.Nome, req.Informado); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Agenda lista os eventos da janela de escopo. Token ausente ou rejeitado
// pelo provedor vira 401 com o sentinelo AUTH_REQUIRED, para o front saber
// que deve mandar o operador para o login — e o token velho é apagado para a
// próxima tentativa já recomeçar limpa.
func (h *Handler) Agenda(w http.ResponseWriter, r *http.Request) {
	client, err := h.Tokens.LoadAuthorizedClient(r.Context())
	if err != nil {
		if errors.Is(err, gcal.ErrAuthRequired) {
			writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lister, err := gcal.NewLister(r.Context(), client)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	settings := h.Settings.Get()
	eventos, err := lister.ListUpcoming(settings.DiasEscopo)
	if err != nil {
		if gcal.IsAuthError(err) {
			log.Println("⚠️  Token rejeitado pelo provedor, apagando para forçar novo login")
			if remErr := h.Tokens.Invalidate(); remErr != nil {
				log.Printf("❌ Erro ao apagar token: %v", remErr)
			}
			writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, eventos)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Settings.Get())
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	if err := h.Settings.Save(patch); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := h.Tokens.Invalidate(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Token removido"})
}
