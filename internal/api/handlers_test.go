package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"agenda-clinica/internal/gcal"
	"agenda-clinica/internal/phone"
	"agenda-clinica/internal/store"
	"agenda-clinica/pkg/models"
)

const credencialTeste = `{
  "web": {
    "client_id": "id-de-teste.apps.googleusercontent.com",
    "client_secret": "segredo-de-teste",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost:8080/oauth2callback"]
  }
}`

func newTestServer(t *testing.T) (*mux.Router, string) {
	t.Helper()
	dir := t.TempDir()

	settings := store.NewSettingsStore(dir)
	pacientes := store.NewPacienteStore(dir, phone.NewNormalizer("BR"))
	tokens := gcal.NewTokenManager(dir, "http://localhost:8080/oauth2callback")

	router := mux.NewRouter()
	NewHandler(settings, pacientes, tokens, dir).RegisterRoutes(router)
	return router, dir
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAgendaWithoutTokenIsAuthRequired(t *testing.T) {
	router, dir := newTestServer(t)
	if err := os.WriteFile(filepath.Join(dir, store.CredentialsFile), []byte(credencialTeste), 0o644); err != nil {
		t.Fatalf("failed to seed credentials: %v", err)
	}

	rec := doJSON(t, router, "GET", "/api/agenda", nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp["error"] != "AUTH_REQUIRED" {
		t.Errorf("error = %q, want AUTH_REQUIRED", resp["error"])
	}
}

func TestAuthURLWithoutCredentialsIs500(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "GET", "/api/auth-url", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestAuthURLWithCredentials(t *testing.T) {
	router, dir := newTestServer(t)
	if err := os.WriteFile(filepath.Join(dir, store.CredentialsFile), []byte(credencialTeste), 0o644); err != nil {
		t.Fatalf("failed to seed credentials: %v", err)
	}

	rec := doJSON(t, router, "GET", "/api/auth-url", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if !strings.Contains(resp["url"], "access_type=offline") {
		t.Errorf("url = %q, must request offline access", resp["url"])
	}
}

func TestOAuthCallbackWithoutCode(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/oauth2callback", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("callback errors are plain text, got %q", ct)
	}
}

func TestPacientesEmptyWhenStoreAbsent(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "GET", "/api/pacientes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "{}" {
		t.Errorf("body = %q, want {}", got)
	}
}

func TestSalvarEServirPaciente(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/salvar", map[string]string{
		"nome":     "Maria",
		"telefone": "11999998888",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/pacientes", nil)
	var pacientes map[string]models.Paciente
	if err := json.Unmarshal(rec.Body.Bytes(), &pacientes); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if pacientes["Maria"].Telefone != "5511999998888" {
		t.Errorf("telefone = %q, want normalized form", pacientes["Maria"].Telefone)
	}
}

func TestSalvarTelefoneInvalido(t *testing.T) {
	router, dir := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/salvar", map[string]string{
		"nome":     "Maria",
		"telefone": "123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if success, _ := resp["success"].(bool); success {
		t.Error("success must be false for invalid phone")
	}

	if _, err := os.Stat(filepath.Join(dir, store.PacientesFile)); !os.IsNotExist(err) {
		t.Error("store must stay untouched on invalid phone")
	}
}

func TestMarcarInformado(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/marcar-informado", map[string]any{
		"nome":      "João",
		"informado": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/pacientes", nil)
	var pacientes map[string]models.Paciente
	json.Unmarshal(rec.Body.Bytes(), &pacientes)
	if pacientes["João"].InformadoEm == nil {
		t.Error("informadoEm must be set")
	}

	rec = doJSON(t, router, "POST", "/api/marcar-informado", map[string]any{
		"nome":      "João",
		"informado": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = doJSON(t, router, "GET", "/api/pacientes", nil)
	json.Unmarshal(rec.Body.Bytes(), &pacientes)
	if pacientes["João"].InformadoEm != nil {
		t.Error("informadoEm must be null after unmarking")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "GET", "/api/settings", nil)
	var settings models.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if settings.DiasEscopo != 1 || settings.SenhaAdmin != "admin" {
		t.Errorf("defaults = %+v", settings)
	}

	rec = doJSON(t, router, "POST", "/api/settings", map[string]int{"diasEscopo": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/api/settings", nil)
	json.Unmarshal(rec.Body.Bytes(), &settings)
	if settings.DiasEscopo != 5 {
		t.Errorf("diasEscopo = %d, want 5", settings.DiasEscopo)
	}
	if settings.SenhaAdmin != "admin" {
		t.Errorf("partial update touched senhaAdmin: %q", settings.SenhaAdmin)
	}
}

func uploadRequest(t *testing.T, senha string, arquivos map[string]string) (*http.Request, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("senha", senha); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	for campo, conteudo := range arquivos {
		fw, err := w.CreateFormFile(campo, campo+".json")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		fmt.Fprint(fw, conteudo)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, buf.String()
}

func TestUploadWrongPassword(t *testing.T) {
	router, dir := newTestServer(t)

	req, _ := uploadRequest(t, "errada", map[string]string{"credenciais": credencialTeste})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, store.CredentialsFile)); !os.IsNotExist(err) {
		t.Error("wrong password must not write any file")
	}
}

func TestUploadStoresCanonicalFiles(t *testing.T) {
	router, dir := newTestServer(t)

	req, _ := uploadRequest(t, "admin", map[string]string{
		"credenciais": credencialTeste,
		"banco":       `{"Maria": {"telefone": "5511999998888", "informadoEm": null}}`,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, store.CredentialsFile))
	if err != nil {
		t.Fatalf("credentials not stored: %v", err)
	}
	if string(data) != credencialTeste {
		t.Error("stored credentials differ from upload")
	}
	if _, err := os.Stat(filepath.Join(dir, store.PacientesFile)); err != nil {
		t.Errorf("banco not stored under canonical name: %v", err)
	}
}

func TestDeleteTokenIsIdempotent(t *testing.T) {
	router, dir := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/delete-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even without token", rec.Code)
	}

	if err := os.WriteFile(filepath.Join(dir, store.TokenFile), []byte(`{"access_token":"x"}`), 0o600); err != nil {
		t.Fatalf("failed to seed token: %v", err)
	}

	rec = doJSON(t, router, "POST", "/api/delete-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, store.TokenFile)); !os.IsNotExist(err) {
		t.Error("token file must be removed")
	}

	rec = doJSON(t, router, "POST", "/api/delete-token", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("repeated delete must stay 200, got %d", rec.Code)
	}
}
