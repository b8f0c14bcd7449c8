// Package auth owns the OAuth credential lifecycle for the ads platform:
// authorization URL, code exchange, refresh-on-expiry, and the single
// persisted credential record. All writes to the backing store go through
// the Manager; everything else reads tokens via AccessToken.
package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scopes required for ad creation.
var Scopes = []string{"ad_management", "ad_creation"}

// Credential is the persisted token bundle. It is either fully present or
// absent; a partially-initialized record is never written.
type Credential struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	AdvertiserIDs []string  `json:"advertiser_ids"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Config wires the Manager to the platform's OAuth endpoints.
type Config struct {
	AppID          string
	AppSecret      string
	AuthURL        string // authorization page shown to the user
	TokenURL       string // code exchange endpoint
	RefreshURL     string // refresh endpoint
	RedirectURI    string
	CredentialFile string
	Timeout        time.Duration
}

// Manager is the token lifecycle state machine. States: Absent (no stored
// credential), Valid (now < expiry), Expired (refresh attempted on read).
type Manager struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	mu   sync.Mutex
	cred *Credential

	now func() time.Time // test seam
}

// NewManager creates a Manager and loads any stored credential. A missing
// or unparsable file is the Absent state, not an error.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	m := &Manager{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  logger.Named("auth"),
		now:  time.Now,
	}
	if err := m.load(); err != nil && !os.IsNotExist(err) {
		m.log.Warn("could not load stored credential", zap.Error(err))
	}
	return m
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.cfg.CredentialFile)
	if err != nil {
		return err
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return err
	}
	if cred.AccessToken == "" || cred.ExpiresAt.IsZero() {
		return errors.New("stored credential is incomplete")
	}
	m.mu.Lock()
	m.cred = &cred
	m.mu.Unlock()
	return nil
}

// save persists cred to disk. Callers commit the in-memory copy only after
// save succeeds, so the persisted record stays the source of truth across
// a crash between the API response and the write.
func (m *Manager) save(cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.cfg.CredentialFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(m.cfg.CredentialFile, data, 0o600)
}

// Credential returns a copy of the current credential, or nil when absent.
func (m *Manager) Credential() *Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil
	}
	c := *m.cred
	c.AdvertiserIDs = append([]string(nil), m.cred.AdvertiserIDs...)
	return &c
}

// AccessToken is the single read path for every API-calling component.
// Expiry is checked on every call; an expired credential triggers an
// implicit refresh. It never returns a token known to be expired.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	cred := m.cred
	m.mu.Unlock()

	if cred == nil {
		return "", &Error{
			Kind:       KindNoValidToken,
			Message:    "No valid access token available",
			Suggestion: "Please run the authorization flow first",
		}
	}
	if m.now().Before(cred.ExpiresAt) {
		return cred.AccessToken, nil
	}

	m.log.Debug("access token expired, attempting refresh")
	if err := m.refresh(ctx); err != nil {
		m.log.Warn("token refresh failed", zap.Error(err))
		return "", &Error{
			Kind:       KindNoValidToken,
			Message:    "Access token expired and refresh failed",
			Suggestion: "A full re-authorization is required",
			Err:        err,
		}
	}

	m.mu.Lock()
	token := m.cred.AccessToken
	m.mu.Unlock()
	return token, nil
}

// HasValidCredential reports whether a usable (unexpired) credential is
// loaded, without triggering a refresh.
func (m *Manager) HasValidCredential() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred != nil && m.now().Before(m.cred.ExpiresAt)
}

// AuthorizeURL builds the authorization page URL and a random state value
// the callback listener must see echoed back.
func (m *Manager) AuthorizeURL() (authURL, state string, err error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	state = base64.RawURLEncoding.EncodeToString(raw)

	u, err := url.Parse(m.cfg.AuthURL)
	if err != nil {
		return "", "", err
	}
	q := u.Query()
	q.Set("app_id", m.cfg.AppID)
	q.Set("state", state)
	q.Set("redirect_uri", m.cfg.RedirectURI)
	q.Set("scope", strings.Join(Scopes, ","))
	u.RawQuery = q.Encode()
	return u.String(), state, nil
}

// tokenEnvelope is the platform's token endpoint response. code == 0
// signals success; anything else is an error consulted by classify.
type tokenEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		AccessToken   string   `json:"access_token"`
		RefreshToken  string   `json:"refresh_token"`
		AdvertiserIDs []string `json:"advertiser_ids"`
		ExpiresIn     int64    `json:"expires_in"`
	} `json:"data"`
}

// ExchangeCode exchanges an authorization code for a credential. Failure
// never creates or mutates a credential; prior state is preserved.
func (m *Manager) ExchangeCode(ctx context.Context, code string) (*Credential, error) {
	env, err := m.postToken(ctx, m.cfg.TokenURL, map[string]string{
		"app_id":    m.cfg.AppID,
		"secret":    m.cfg.AppSecret,
		"auth_code": code,
	})
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, classify(env.Code, env.Message)
	}

	expiresIn := env.Data.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 86400
	}
	now := m.now()
	cred := &Credential{
		AccessToken:   env.Data.AccessToken,
		RefreshToken:  env.Data.RefreshToken,
		AdvertiserIDs: env.Data.AdvertiserIDs,
		ExpiresAt:     now.Add(time.Duration(expiresIn) * time.Second),
		CreatedAt:     now,
	}
	if err := m.save(cred); err != nil {
		return nil, fmt.Errorf("persisting credential: %w", err)
	}
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
	m.log.Info("token exchange succeeded",
		zap.Int("advertiser_ids", len(cred.AdvertiserIDs)),
		zap.Time("expires_at", cred.ExpiresAt))
	return m.Credential(), nil
}

// refresh replaces the access token using the stored refresh token. On any
// failure the stored credential is left unchanged, not cleared: a later
// re-authorization still sees the prior advertiser IDs.
func (m *Manager) refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.cred == nil || m.cred.RefreshToken == "" {
		m.mu.Unlock()
		return errors.New("no refresh token available")
	}
	refreshToken := m.cred.RefreshToken
	m.mu.Unlock()

	env, err := m.postToken(ctx, m.cfg.RefreshURL, map[string]string{
		"app_id":        m.cfg.AppID,
		"secret":        m.cfg.AppSecret,
		"refresh_token": refreshToken,
	})
	if err != nil {
		return err
	}
	if env.Code != 0 {
		return classify(env.Code, env.Message)
	}

	expiresIn := env.Data.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 86400
	}

	m.mu.Lock()
	updated := *m.cred
	m.mu.Unlock()
	updated.AccessToken = env.Data.AccessToken
	updated.ExpiresAt = m.now().Add(time.Duration(expiresIn) * time.Second)
	if env.Data.RefreshToken != "" {
		updated.RefreshToken = env.Data.RefreshToken
	}

	if err := m.save(&updated); err != nil {
		return fmt.Errorf("persisting refreshed credential: %w", err)
	}
	m.mu.Lock()
	m.cred = &updated
	m.mu.Unlock()
	m.log.Info("token refreshed", zap.Time("expires_at", updated.ExpiresAt))
	return nil
}

func (m *Manager) postToken(ctx context.Context, endpoint string, payload map[string]string) (*tokenEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, &Error{
			Kind:       KindNetworkError,
			Message:    fmt.Sprintf("Failed to connect to the ads platform: %v", err),
			Suggestion: "Check your internet connection and try again",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	var env tokenEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &Error{
			Kind:       KindNetworkError,
			Message:    fmt.Sprintf("Malformed response from the ads platform: %v", err),
			Suggestion: "Check your internet connection and try again",
			Err:        err,
		}
	}
	return &env, nil
}

// classify maps a platform error code plus message substrings onto the
// OAuth error taxonomy.
func classify(code int, message string) *Error {
	lower := strings.ToLower(message)
	switch code {
	case 40100:
		switch {
		case strings.Contains(lower, "client_id") || strings.Contains(lower, "app_id"):
			return &Error{
				Kind:       KindInvalidClientID,
				Message:    "Your app ID is invalid",
				Suggestion: "Check that TIKTOK_APP_ID matches your app in the developer dashboard",
			}
		case strings.Contains(lower, "secret"):
			return &Error{
				Kind:       KindInvalidClientSecret,
				Message:    "Your app secret is invalid",
				Suggestion: "Check that TIKTOK_APP_SECRET matches your app secret",
			}
		default:
			return &Error{
				Kind:       KindUnknown,
				Message:    message,
				Suggestion: "Verify your app credentials in the developer dashboard",
			}
		}
	case 40101:
		return &Error{
			Kind:       KindInvalidCode,
			Message:    "Authorization code is invalid or expired",
			Suggestion: "Please restart the authorization flow",
		}
	case 40104:
		return &Error{
			Kind:       KindInsufficientScopes,
			Message:    "Your app doesn't have the required permissions",
			Suggestion: "Add these scopes in the developer dashboard: " + strings.Join(Scopes, ", "),
		}
	default:
		return &Error{
			Kind:       KindUnknown,
			Message:    message,
			Suggestion: fmt.Sprintf("Check the ads platform documentation for error code %d", code),
		}
	}
}
