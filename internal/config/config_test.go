package config

import (
	"os"
	"path/filepath"
	"testing"

	"adgent/internal/llm"
)

// clearEnv blanks every variable the config reads so host settings can't
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ADGENT_LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL",
		"TIKTOK_APP_ID", "TIKTOK_APP_SECRET", "TIKTOK_REDIRECT_URI",
		"TIKTOK_API_BASE_URL", "TIKTOK_AUTH_URL",
		"OAUTH_SERVER_HOST", "OAUTH_SERVER_PORT",
		"ADGENT_SANDBOX", "ADGENT_DEBUG", "ADGENT_CREDENTIALS_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADGENT_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "creds.json"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://business-api.tiktok.com/open_api/v1.3" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.RedirectURI != "http://localhost:8080/callback" {
		t.Errorf("RedirectURI = %q", cfg.RedirectURI)
	}
	if cfg.CallbackAddr() != "localhost:8080" {
		t.Errorf("CallbackAddr = %q", cfg.CallbackAddr())
	}
	if cfg.TokenURL() != cfg.APIBaseURL+"/oauth2/access_token/" {
		t.Errorf("TokenURL = %q", cfg.TokenURL())
	}
}

func TestLoadEnvValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIKTOK_APP_ID", "app123")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OAUTH_SERVER_PORT", "9999")
	t.Setenv("ADGENT_SANDBOX", "true")
	t.Setenv("ADGENT_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "creds.json"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppID != "app123" || cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("env values not applied: %+v", cfg)
	}
	if cfg.CallbackPort != 9999 || !cfg.Sandbox {
		t.Errorf("typed env values not applied: port=%d sandbox=%v", cfg.CallbackPort, cfg.Sandbox)
	}
}

func TestLoadYAMLOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIKTOK_APP_ID", "from_env")
	t.Setenv("ADGENT_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "creds.json"))

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "app_id: from_file\nopenai_api_key: sk-file\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppID != "from_file" {
		t.Errorf("file value should win: AppID = %q", cfg.AppID)
	}
	if cfg.OpenAIAPIKey != "sk-file" {
		t.Errorf("OpenAIAPIKey = %q", cfg.OpenAIAPIKey)
	}
	// Keys absent from the file keep their env/default values.
	if cfg.RedirectURI != "http://localhost:8080/callback" {
		t.Errorf("RedirectURI = %q", cfg.RedirectURI)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADGENT_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "creds.json"))
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("a missing config file should not fail: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk", AppID: "a", AppSecret: "s"}
	if problems := cfg.Validate(); len(problems) != 0 {
		t.Errorf("complete config flagged: %v", problems)
	}

	cfg = &Config{}
	problems := cfg.Validate()
	if len(problems) != 3 {
		t.Errorf("expected app id, secret, and LLM key problems, got %v", problems)
	}

	// Sandbox mode waives the platform credentials but not the LLM key.
	cfg = &Config{Sandbox: true}
	problems = cfg.Validate()
	if len(problems) != 1 {
		t.Errorf("sandbox config should only need an LLM key, got %v", problems)
	}
}

func TestLLMOptions(t *testing.T) {
	cfg := &Config{
		OpenAIAPIKey:    "sk-o",
		OpenAIModel:     "gpt-test",
		AnthropicAPIKey: "sk-a",
		AnthropicModel:  "claude-test",
	}

	// First configured key wins without an explicit provider.
	opts, err := cfg.LLMOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Provider != llm.ProviderOpenAI || opts.Model != "gpt-test" {
		t.Errorf("opts = %+v", opts)
	}

	// An explicit provider overrides the precedence order.
	cfg.Provider = "anthropic"
	opts, err = cfg.LLMOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Provider != llm.ProviderAnthropic || opts.APIKey != "sk-a" {
		t.Errorf("opts = %+v", opts)
	}

	if _, err := (&Config{}).LLMOptions(); err == nil {
		t.Error("no keys configured must be an error")
	}
	if _, err := (&Config{Provider: "carrier-pigeon", OpenAIAPIKey: "sk"}).LLMOptions(); err == nil {
		t.Error("unknown provider must be an error")
	}
}
