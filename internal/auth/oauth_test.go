package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// tokenHandler fakes the platform's token endpoints with a fixed response.
func tokenHandler(t *testing.T, code int, message string, data map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code":    code,
			"message": message,
			"data":    data,
		})
	}
}

func newTestManager(t *testing.T, tokenURL, refreshURL string) *Manager {
	t.Helper()
	return NewManager(Config{
		AppID:          "app",
		AppSecret:      "secret",
		TokenURL:       tokenURL,
		RefreshURL:     refreshURL,
		CredentialFile: filepath.Join(t.TempDir(), "credentials.json"),
	}, nil)
}

func TestExchangeCodeRoundTrip(t *testing.T) {
	srv := httptest.NewServer(tokenHandler(t, 0, "OK", map[string]any{
		"access_token":   "tok_abc",
		"refresh_token":  "ref_abc",
		"advertiser_ids": []string{"111", "222"},
		"expires_in":     3600,
	}))
	defer srv.Close()

	m := newTestManager(t, srv.URL, srv.URL)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return start }

	cred, err := m.ExchangeCode(context.Background(), "good_code")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if cred.AccessToken != "tok_abc" || cred.RefreshToken != "ref_abc" {
		t.Errorf("unexpected tokens: %+v", cred)
	}
	if want := start.Add(time.Hour); !cred.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", cred.ExpiresAt, want)
	}
	if len(cred.AdvertiserIDs) != 2 {
		t.Errorf("AdvertiserIDs = %v", cred.AdvertiserIDs)
	}

	// The record on disk is readable by a fresh Manager.
	m2 := NewManager(m.cfg, nil)
	token, err := m2.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken on reloaded manager: %v", err)
	}
	if token != "tok_abc" {
		t.Errorf("reloaded token = %q", token)
	}
}

func TestExchangeCodeDefaultExpiry(t *testing.T) {
	srv := httptest.NewServer(tokenHandler(t, 0, "OK", map[string]any{
		"access_token": "tok",
	}))
	defer srv.Close()

	m := newTestManager(t, srv.URL, srv.URL)
	start := time.Now()
	m.now = func() time.Time { return start }

	cred, err := m.ExchangeCode(context.Background(), "code")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if want := start.Add(86400 * time.Second); !cred.ExpiresAt.Equal(want) {
		t.Errorf("default expiry = %v, want %v", cred.ExpiresAt, want)
	}
}

func TestExchangeCodeFailurePreservesState(t *testing.T) {
	srv := httptest.NewServer(tokenHandler(t, 40101, "Invalid authorization code", nil))
	defer srv.Close()

	m := newTestManager(t, srv.URL, srv.URL)
	_, err := m.ExchangeCode(context.Background(), "bad")
	var oerr *Error
	if !errors.As(err, &oerr) || oerr.Kind != KindInvalidCode {
		t.Fatalf("expected invalid_code error, got %v", err)
	}
	if m.Credential() != nil {
		t.Error("failed exchange must not create a credential")
	}
	if _, statErr := os.Stat(m.cfg.CredentialFile); !os.IsNotExist(statErr) {
		t.Error("failed exchange must not write the credential file")
	}
}

func TestAccessTokenAbsent(t *testing.T) {
	m := newTestManager(t, "http://unused", "http://unused")
	_, err := m.AccessToken(context.Background())
	var oerr *Error
	if !errors.As(err, &oerr) || oerr.Kind != KindNoValidToken {
		t.Fatalf("expected no_valid_token, got %v", err)
	}
}

func TestAccessTokenRefreshesExpired(t *testing.T) {
	refreshed := tokenHandler(t, 0, "OK", map[string]any{
		"access_token": "tok_new",
		"expires_in":   3600,
	})
	srv := httptest.NewServer(refreshed)
	defer srv.Close()

	m := newTestManager(t, srv.URL, srv.URL)
	now := time.Now()
	m.now = func() time.Time { return now }
	m.cred = &Credential{
		AccessToken:   "tok_old",
		RefreshToken:  "ref_old",
		AdvertiserIDs: []string{"111"},
		ExpiresAt:     now.Add(-time.Minute),
	}

	token, err := m.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != "tok_new" {
		t.Errorf("token = %q, want tok_new", token)
	}
	cred := m.Credential()
	if cred.RefreshToken != "ref_old" {
		t.Errorf("refresh token should survive when the response omits one, got %q", cred.RefreshToken)
	}
	if len(cred.AdvertiserIDs) != 1 {
		t.Errorf("advertiser IDs lost on refresh: %v", cred.AdvertiserIDs)
	}
}

func TestAccessTokenRefreshFailureKeepsCredential(t *testing.T) {
	srv := httptest.NewServer(tokenHandler(t, 40101, "Invalid refresh token", nil))
	defer srv.Close()

	m := newTestManager(t, srv.URL, srv.URL)
	now := time.Now()
	m.now = func() time.Time { return now }
	expired := &Credential{
		AccessToken:  "tok_old",
		RefreshToken: "ref_dead",
		ExpiresAt:    now.Add(-time.Minute),
	}
	m.cred = expired
	if err := m.save(expired); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(m.cfg.CredentialFile)
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.AccessToken(context.Background())
	var oerr *Error
	if !errors.As(err, &oerr) || oerr.Kind != KindNoValidToken {
		t.Fatalf("expected no_valid_token, got %v", err)
	}

	// Stored credential survives so a later re-auth keeps context.
	after, err := os.ReadFile(m.cfg.CredentialFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("failed refresh must leave the credential file untouched")
	}
	if m.Credential() == nil || m.Credential().RefreshToken != "ref_dead" {
		t.Error("failed refresh must leave the in-memory credential untouched")
	}
}

func TestHasValidCredential(t *testing.T) {
	m := newTestManager(t, "http://unused", "http://unused")
	if m.HasValidCredential() {
		t.Error("absent credential reported valid")
	}
	now := time.Now()
	m.now = func() time.Time { return now }
	m.cred = &Credential{AccessToken: "tok", ExpiresAt: now.Add(time.Hour)}
	if !m.HasValidCredential() {
		t.Error("unexpired credential reported invalid")
	}
	m.cred.ExpiresAt = now.Add(-time.Hour)
	if m.HasValidCredential() {
		t.Error("expired credential reported valid")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		message string
		want    Kind
	}{
		{"bad app id", 40100, "Invalid client_id", KindInvalidClientID},
		{"bad app id alt wording", 40100, "unknown app_id", KindInvalidClientID},
		{"bad secret", 40100, "Invalid client_secret", KindInvalidClientSecret},
		{"40100 without hint", 40100, "Authentication failed", KindUnknown},
		{"bad code", 40101, "Invalid authorization code", KindInvalidCode},
		{"missing scopes", 40104, "Scope not granted", KindInsufficientScopes},
		{"unmapped code", 50000, "Internal error", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.code, tt.message); got.Kind != tt.want {
				t.Errorf("classify(%d, %q).Kind = %v, want %v", tt.code, tt.message, got.Kind, tt.want)
			}
		})
	}
}

func TestNewManagerIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(file, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewManager(Config{CredentialFile: file}, nil)
	if m.Credential() != nil {
		t.Error("corrupt file should load as the absent state")
	}
}
