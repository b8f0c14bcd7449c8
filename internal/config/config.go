// Package config loads application configuration from environment
// variables, with an optional YAML file overlay taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"adgent/internal/llm"
)

// Config is the full application configuration.
type Config struct {
	// Language model providers. The first configured key wins unless
	// Provider pins one explicitly.
	Provider        string `env:"ADGENT_LLM_PROVIDER" yaml:"provider"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY" yaml:"openai_api_key"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4-turbo-preview" yaml:"openai_model"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" yaml:"anthropic_api_key"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-sonnet-20241022" yaml:"anthropic_model"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY" yaml:"gemini_api_key"`
	GeminiModel     string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash" yaml:"gemini_model"`

	// Ads platform app credentials and endpoints.
	AppID       string `env:"TIKTOK_APP_ID" yaml:"app_id"`
	AppSecret   string `env:"TIKTOK_APP_SECRET" yaml:"app_secret"`
	RedirectURI string `env:"TIKTOK_REDIRECT_URI" envDefault:"http://localhost:8080/callback" yaml:"redirect_uri"`
	APIBaseURL  string `env:"TIKTOK_API_BASE_URL" envDefault:"https://business-api.tiktok.com/open_api/v1.3" yaml:"api_base_url"`
	AuthPageURL string `env:"TIKTOK_AUTH_URL" envDefault:"https://business-api.tiktok.com/portal/auth" yaml:"auth_page_url"`

	// Callback listener for the interactive authorization flow.
	CallbackHost string `env:"OAUTH_SERVER_HOST" envDefault:"localhost" yaml:"callback_host"`
	CallbackPort int    `env:"OAUTH_SERVER_PORT" envDefault:"8080" yaml:"callback_port"`

	// Modes.
	Sandbox bool `env:"ADGENT_SANDBOX" yaml:"sandbox"`
	Debug   bool `env:"ADGENT_DEBUG" yaml:"debug"`

	// CredentialFile is where the single OAuth credential record lives.
	// Defaults to ~/.adgent/credentials.json.
	CredentialFile string `env:"ADGENT_CREDENTIALS_FILE" yaml:"credential_file"`
}

// Load parses the environment, then overlays the YAML file at path when
// it exists (file values win, matching keys only). Pass "" to skip the
// file entirely.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if cfg.CredentialFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.CredentialFile = filepath.Join(home, ".adgent", "credentials.json")
	}
	return cfg, nil
}

// Validate returns the list of configuration problems, empty when the
// config is usable.
func (c *Config) Validate() []string {
	var problems []string
	if !c.Sandbox {
		if c.AppID == "" {
			problems = append(problems, "TIKTOK_APP_ID not set")
		}
		if c.AppSecret == "" {
			problems = append(problems, "TIKTOK_APP_SECRET not set")
		}
	}
	if c.OpenAIAPIKey == "" && c.AnthropicAPIKey == "" && c.GeminiAPIKey == "" {
		problems = append(problems, "one of OPENAI_API_KEY, ANTHROPIC_API_KEY, or GEMINI_API_KEY must be set")
	}
	return problems
}

// LLMOptions resolves the provider selection. An explicit Provider wins;
// otherwise the first configured key in openai, anthropic, gemini order.
func (c *Config) LLMOptions() (llm.Options, error) {
	provider := llm.Provider(c.Provider)
	if provider == "" {
		switch {
		case c.OpenAIAPIKey != "":
			provider = llm.ProviderOpenAI
		case c.AnthropicAPIKey != "":
			provider = llm.ProviderAnthropic
		case c.GeminiAPIKey != "":
			provider = llm.ProviderGemini
		default:
			return llm.Options{}, fmt.Errorf("no LLM API key configured")
		}
	}

	opts := llm.Options{Provider: provider, Timeout: 120 * time.Second}
	switch provider {
	case llm.ProviderOpenAI:
		opts.APIKey, opts.Model = c.OpenAIAPIKey, c.OpenAIModel
	case llm.ProviderAnthropic:
		opts.APIKey, opts.Model = c.AnthropicAPIKey, c.AnthropicModel
	case llm.ProviderGemini:
		opts.APIKey, opts.Model = c.GeminiAPIKey, c.GeminiModel
	default:
		return llm.Options{}, fmt.Errorf("unknown LLM provider %q", provider)
	}
	return opts, nil
}

// TokenURL is the platform's code exchange endpoint.
func (c *Config) TokenURL() string { return c.APIBaseURL + "/oauth2/access_token/" }

// RefreshURL is the platform's token refresh endpoint.
func (c *Config) RefreshURL() string { return c.APIBaseURL + "/oauth2/refresh_token/" }

// CallbackAddr is the listen address for the one-shot callback server.
func (c *Config) CallbackAddr() string {
	return fmt.Sprintf("%s:%d", c.CallbackHost, c.CallbackPort)
}
