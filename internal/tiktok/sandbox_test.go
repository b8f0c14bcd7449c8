package tiktok

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireEnvelope struct {
	Code    json.Number     `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func postJSON(t *testing.T, url string, payload map[string]string) wireEnvelope {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var env wireEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestSandboxTokenExchange(t *testing.T) {
	sb := NewSandbox()
	srv := httptest.NewServer(sb.Handler())
	defer srv.Close()
	endpoint := srv.URL + "/oauth2/access_token/"

	t.Run("success", func(t *testing.T) {
		env := postJSON(t, endpoint, map[string]string{
			"app_id": "app", "secret": "secret", "auth_code": sb.IssueAuthCode(),
		})
		require.Equal(t, "0", env.Code.String())
		var data struct {
			AccessToken   string   `json:"access_token"`
			RefreshToken  string   `json:"refresh_token"`
			AdvertiserIDs []string `json:"advertiser_ids"`
			ExpiresIn     int      `json:"expires_in"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.NotEmpty(t, data.AccessToken)
		assert.NotEmpty(t, data.RefreshToken)
		assert.Equal(t, []string{"123456789"}, data.AdvertiserIDs)
		assert.Equal(t, 86400, data.ExpiresIn)
	})

	// Magic inputs reproduce the platform's documented failures.
	t.Run("invalid app id", func(t *testing.T) {
		env := postJSON(t, endpoint, map[string]string{
			"app_id": "invalid_app_id", "secret": "secret", "auth_code": "x",
		})
		assert.Equal(t, "40100", env.Code.String())
		assert.Contains(t, env.Message, "client_id")
	})

	t.Run("invalid secret", func(t *testing.T) {
		env := postJSON(t, endpoint, map[string]string{
			"app_id": "app", "secret": "invalid_secret", "auth_code": "x",
		})
		assert.Equal(t, "40100", env.Code.String())
		assert.Contains(t, env.Message, "client_secret")
	})

	t.Run("invalid code", func(t *testing.T) {
		env := postJSON(t, endpoint, map[string]string{
			"app_id": "app", "secret": "secret", "auth_code": "invalid_code",
		})
		assert.Equal(t, "40101", env.Code.String())
	})
}

func TestSandboxRefresh(t *testing.T) {
	sb := NewSandbox()
	srv := httptest.NewServer(sb.Handler())
	defer srv.Close()

	exchange := postJSON(t, srv.URL+"/oauth2/access_token/", map[string]string{
		"app_id": "app", "secret": "secret", "auth_code": sb.IssueAuthCode(),
	})
	require.Equal(t, "0", exchange.Code.String())
	var issued struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(exchange.Data, &issued))

	env := postJSON(t, srv.URL+"/oauth2/refresh_token/", map[string]string{
		"refresh_token": issued.RefreshToken,
	})
	assert.Equal(t, "0", env.Code.String())

	env = postJSON(t, srv.URL+"/oauth2/refresh_token/", map[string]string{
		"refresh_token": "never_issued",
	})
	assert.Equal(t, "40101", env.Code.String())
}

func TestSandboxRequiresToken(t *testing.T) {
	sb := NewSandbox()
	srv := httptest.NewServer(sb.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/music/info/?music_id=music_123")
	require.NoError(t, err)
	defer resp.Body.Close()
	var env wireEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "40100", env.Code.String())
}
