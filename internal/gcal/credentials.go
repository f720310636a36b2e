package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"agenda-clinica/internal/store"
)

var (
	// ErrCredentialsMissing: credentials.json ainda não foi enviado.
	ErrCredentialsMissing = errors.New("CREDENTIALS_MISSING")
	// ErrCredentialsInvalid: o arquivo existe mas não tem a chave "web" nem "installed".
	ErrCredentialsInvalid = errors.New("CREDENTIALS_INVALID")
	// ErrAuthRequired: não há token de usuário válido; o operador precisa autorizar de novo.
	ErrAuthRequired = errors.New("AUTH_REQUIRED")
)

// TokenManager cuida do ciclo credencial → autorização → cliente: lê o
// credentials.json enviado pelo operador, persiste o token OAuth2 em disco e
// decide quando uma nova autorização é necessária.
type TokenManager struct {
	credentialsPath string
	tokenPath       string
	redirectURL     string
}

func NewTokenManager(dataDir, redirectURL string) *TokenManager {
	return &TokenManager{
		credentialsPath: filepath.Join(dataDir, store.CredentialsFile),
		tokenPath:       filepath.Join(dataDir, store.TokenFile),
		redirectURL:     redirectURL,
	}
}

// BuildConfig monta o oauth2.Config a partir do credentials.json. O redirect
// é sempre o endereço fixo registrado no provedor, nunca derivado da
// requisição: o Google exige casamento exato com o que foi cadastrado.
func (m *TokenManager) BuildConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(m.credentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsMissing
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	// ConfigFromJSON aceita as variantes "web" e "installed" do arquivo
	// emitido pelo console do Google.
	config, err := google.ConfigFromJSON(data, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, ErrCredentialsInvalid
	}

	config.RedirectURL = m.redirectURL
	return config, nil
}

// AuthURL devolve a URL de consentimento. Acesso offline + consentimento
// forçado garantem refresh token a cada autorização, já que o Google omite o
// refresh token em consentimentos repetidos.
func (m *TokenManager) AuthURL() (string, error) {
	config, err := m.BuildConfig()
	if err != nil {
		return "", err
	}
	return config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

// ExchangeCode troca o código de autorização por um token, persiste o bundle
// em disco e o devolve.
func (m *TokenManager) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	config, err := m.BuildConfig()
	if err != nil {
		return nil, err
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := m.saveToken(token); err != nil {
		return nil, err
	}

	log.Println("✅ Token de autorização persistido")
	return token, nil
}

// LoadAuthorizedClient lê o token salvo e devolve um *http.Client autenticado.
// Token ausente falha com ErrAuthRequired; token ilegível é tratado igual
// (loga e pede nova autorização), sem tentar reautorizar sozinho no modo web.
func (m *TokenManager) LoadAuthorizedClient(ctx context.Context) (*http.Client, error) {
	config, err := m.BuildConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(m.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAuthRequired
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		log.Printf("⚠️  Token em disco ilegível, nova autorização necessária: %v", err)
		return nil, ErrAuthRequired
	}

	return config.Client(ctx, &token), nil
}

// HasToken informa se existe um token em disco, sem validá-lo contra o provedor.
func (m *TokenManager) HasToken() bool {
	_, err := os.Stat(m.tokenPath)
	return err == nil
}

// Invalidate apaga o token em disco. Chamar sem token existente é no-op.
func (m *TokenManager) Invalidate() error {
	if err := os.Remove(m.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

func (m *TokenManager) saveToken(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(m.tokenPath, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// AuthorizeViaTerminal é o fluxo "local": imprime a URL de consentimento e lê
// o código pelo terminal, para instalações sem callback web acessível.
// Selecionado por AUTH_FLOW=local, nunca inferido.
func (m *TokenManager) AuthorizeViaTerminal(ctx context.Context) error {
	authURL, err := m.AuthURL()
	if err != nil {
		return err
	}

	fmt.Printf("Abra o link no navegador e cole aqui o código de autorização:\n%v\n", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	_, err = m.ExchangeCode(ctx, code)
	return err
}

// IsAuthError reconhece respostas do provedor que significam token rejeitado
// (invalid_grant / 401). Quem chama deve invalidar o token nesse caso, para
// que a próxima tentativa volte ao estado de "precisa autorizar" em vez de
// repetir a mesma falha.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized
	}

	msg := err.Error()
	return strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "Token has been expired or revoked")
}
