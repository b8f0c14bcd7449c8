package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"adgent/internal/auth"
	"adgent/internal/config"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage platform authorization",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Run the authorization flow and store the credential",
	Long: `Opens the platform's authorization page URL, waits for the redirect on
the local callback server, exchanges the authorization code, and stores
the resulting credential. With --sandbox, authorization completes
against the in-process simulator without a browser.`,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored credential's state",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd, authStatusCmd)
}

func authManager(cfg *config.Config) *auth.Manager {
	return auth.NewManager(auth.Config{
		AppID:          cfg.AppID,
		AppSecret:      cfg.AppSecret,
		AuthURL:        cfg.AuthPageURL,
		TokenURL:       cfg.TokenURL(),
		RefreshURL:     cfg.RefreshURL(),
		RedirectURI:    cfg.RedirectURI,
		CredentialFile: cfg.CredentialFile,
	}, logger)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if sandboxMode {
		cfg.Sandbox = true
	}

	if cfg.Sandbox {
		return sandboxLogin(ctx, cfg)
	}

	if cfg.AppID == "" || cfg.AppSecret == "" {
		return fmt.Errorf("TIKTOK_APP_ID and TIKTOK_APP_SECRET must be set (or use --sandbox)")
	}

	mgr := authManager(cfg)
	authURL, state, err := mgr.AuthorizeURL()
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in your browser to authorize:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Printf("Waiting for the callback on %s ...\n", cfg.CallbackAddr())

	callbackPath := "/callback"
	if u, err := url.Parse(cfg.RedirectURI); err == nil && u.Path != "" {
		callbackPath = u.Path
	}

	ctx, cancel := context.WithTimeout(ctx, auth.CallbackTimeout)
	defer cancel()
	code, err := auth.WaitForCallback(ctx, cfg.CallbackAddr(), callbackPath, state)
	if err != nil {
		return err
	}

	cred, err := mgr.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}
	printCredential(cred)
	return nil
}

func sandboxLogin(ctx context.Context, cfg *config.Config) error {
	sb, baseURL, shutdown, err := startSandbox()
	if err != nil {
		return err
	}
	defer shutdown()

	cfg.APIBaseURL = baseURL
	cfg.AppID = "sandbox_app"
	cfg.AppSecret = "sandbox_secret"

	mgr := authManager(cfg)
	cred, err := mgr.ExchangeCode(ctx, sb.IssueAuthCode())
	if err != nil {
		return err
	}
	fmt.Println("Sandbox authorization complete.")
	printCredential(cred)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	mgr := authManager(cfg)

	cred := mgr.Credential()
	if cred == nil {
		fmt.Println("No stored credential. Run 'adgent auth login' first.")
		return nil
	}

	state := "valid"
	if !time.Now().Before(cred.ExpiresAt) {
		state = "expired (will refresh on next use)"
	}
	fmt.Printf("Credential:     %s\n", state)
	fmt.Printf("Expires at:     %s\n", cred.ExpiresAt.Format(time.RFC3339))
	fmt.Printf("Created at:     %s\n", cred.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Advertiser IDs: %s\n", strings.Join(cred.AdvertiserIDs, ", "))
	return nil
}

func printCredential(cred *auth.Credential) {
	fmt.Println("Authorization successful.")
	fmt.Printf("  Advertiser IDs: %s\n", strings.Join(cred.AdvertiserIDs, ", "))
	fmt.Printf("  Token expires:  %s\n", cred.ExpiresAt.Format(time.RFC3339))
}
