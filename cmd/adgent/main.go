// adgent is a conversational assistant for creating TikTok ad campaigns.
// It collects campaign parameters through chat, enforces the platform's
// business rules before submission, and translates API failures into
// actionable guidance.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"adgent/internal/agent"
	"adgent/internal/auth"
	"adgent/internal/config"
	"adgent/internal/llm"
	"adgent/internal/tiktok"
)

var (
	// Global flags
	verbose     bool
	sandboxMode bool
	configPath  string

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "adgent",
	Short: "adgent - conversational TikTok ad campaign assistant",
	Long: `adgent creates TikTok ad campaigns through natural conversation.

A language model drives the dialogue and extracts campaign parameters;
a deterministic rule engine gates every submission so predictable
rejections never reach the platform. Music is validated against the
platform before use, and API errors come back as plain-language
explanations with suggested fixes.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The chat TUI owns the terminal; give it a silent logger unless
		// debugging was asked for.
		if cmd.CalledAs() == "adgent" && !verbose {
			logger = zap.NewNop()
			return nil
		}
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&sandboxMode, "sandbox", false, "run against the in-process platform sandbox")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file overlaying the environment")
	rootCmd.AddCommand(authCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired collaborators for one run.
type app struct {
	cfg      *config.Config
	agent    *agent.Agent
	creds    *auth.Manager
	shutdown func()
}

// buildApp loads configuration and wires the agent. In sandbox mode it
// starts the in-process platform simulator, points every endpoint at it,
// and completes the authorization flow with a synthetic code.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if sandboxMode {
		cfg.Sandbox = true
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, "  -", p)
		}
		return nil, fmt.Errorf("configuration is incomplete")
	}

	var (
		sb       *tiktok.Sandbox
		shutdown = func() {}
	)
	if cfg.Sandbox {
		var baseURL string
		sb, baseURL, shutdown, err = startSandbox()
		if err != nil {
			return nil, err
		}
		cfg.APIBaseURL = baseURL
		cfg.AppID = "sandbox_app"
		cfg.AppSecret = "sandbox_secret"
	}

	mgr := auth.NewManager(auth.Config{
		AppID:          cfg.AppID,
		AppSecret:      cfg.AppSecret,
		AuthURL:        cfg.AuthPageURL,
		TokenURL:       cfg.TokenURL(),
		RefreshURL:     cfg.RefreshURL(),
		RedirectURI:    cfg.RedirectURI,
		CredentialFile: cfg.CredentialFile,
	}, logger)

	// The sandbox needs no browser round trip; exchange a synthetic code.
	if sb != nil && !mgr.HasValidCredential() {
		if _, err := mgr.ExchangeCode(ctx, sb.IssueAuthCode()); err != nil {
			shutdown()
			return nil, fmt.Errorf("sandbox authorization failed: %w", err)
		}
	}

	opts, err := cfg.LLMOptions()
	if err != nil {
		shutdown()
		return nil, err
	}
	model, err := llm.New(ctx, opts)
	if err != nil {
		shutdown()
		return nil, err
	}

	api := tiktok.NewClient(cfg.APIBaseURL, mgr, logger)
	return &app{
		cfg:      cfg,
		agent:    agent.New(model, api, mgr, logger),
		creds:    mgr,
		shutdown: shutdown,
	}, nil
}

// startSandbox serves the platform simulator on an ephemeral local port.
func startSandbox() (*tiktok.Sandbox, string, func(), error) {
	sb := tiktok.NewSandbox()
	sb.GeoRestrictRate = 0.05
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", nil, fmt.Errorf("starting sandbox listener: %w", err)
	}
	srv := &http.Server{Handler: sb.Handler()}
	go func() { _ = srv.Serve(ln) }()
	return sb, "http://" + ln.Addr().String(), func() { _ = srv.Close() }, nil
}
