// Package tiktok is the ads-platform boundary: the HTTP client for music
// validation, music upload, and ad submission, the error interpreter that
// turns platform codes into user-facing guidance, and an injectable
// sandbox implementation of the platform API for credential-free runs.
package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"adgent/internal/campaign"
)

// TokenSource supplies a valid access token. *auth.Manager satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Code is a platform error code. The API is inconsistent about the JSON
// type: token endpoints return numbers, music endpoints sometimes return
// strings, so both decode into the same value.
type Code string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (c *Code) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

// OK reports whether the code signals success.
func (c Code) OK() bool { return c == "0" || c == "" }

// envelope is the platform's standard response wrapper.
type envelope struct {
	Code    Code            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// MusicInfo describes a validated library track.
type MusicInfo struct {
	MusicID      string `json:"music_id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Duration     int    `json:"duration"`
	IsCommercial bool   `json:"is_commercial"`
}

// MusicResult is the outcome of a music validation call. Transport
// failures fold into Error rather than propagating.
type MusicResult struct {
	Valid bool
	Error string
	Info  *MusicInfo
}

// UploadResult is the outcome of a custom music upload.
type UploadResult struct {
	Success bool
	MusicID string
	Error   string
}

// SubmitResult is the outcome of an ad submission. Details carries the
// raw platform code and message for the error-interpretation prompt.
type SubmitResult struct {
	Success bool
	AdID    string
	Error   string
	Details *ErrorDetails
}

// ErrorDetails is the raw platform failure, preserved for prompting.
type ErrorDetails struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Client talks to the ads platform. All calls attach the access token
// from the TokenSource; the token is re-checked on every request.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a platform client rooted at baseURL.
func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logger.Named("tiktok"),
	}
}

// ValidateMusic checks a music ID against the platform library. The
// returned error is non-nil only for token acquisition failures; platform
// rejections and network problems are reported inside the result.
func (c *Client) ValidateMusic(ctx context.Context, musicID string) (MusicResult, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return MusicResult{}, err
	}

	u := fmt.Sprintf("%s/music/info/?%s", c.baseURL, url.Values{"music_id": {musicID}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return MusicResult{}, err
	}
	req.Header.Set("Access-Token", token)

	env, err := c.do(req)
	if err != nil {
		return MusicResult{Error: fmt.Sprintf("Network error: %v", err)}, nil
	}
	if !env.Code.OK() {
		c.log.Debug("music validation rejected",
			zap.String("music_id", musicID), zap.String("code", string(env.Code)))
		return MusicResult{Error: InterpretMusic(env.Code, env.Message).Text()}, nil
	}

	var info MusicInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return MusicResult{Error: fmt.Sprintf("Network error: malformed response: %v", err)}, nil
	}
	return MusicResult{Valid: true, Info: &info}, nil
}

// UploadMusic uploads a custom track and returns the assigned music ID.
func (c *Client) UploadMusic(ctx context.Context, path string) (UploadResult, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return UploadResult{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return UploadResult{Error: fmt.Sprintf("Cannot read music file: %v", err)}, nil
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("music_file", filepath.Base(path))
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResult{Error: fmt.Sprintf("Cannot read music file: %v", err)}, nil
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/file/music/upload/", &body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Access-Token", token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	env, err := c.do(req)
	if err != nil {
		return UploadResult{Error: fmt.Sprintf("Network error: %v", err)}, nil
	}
	if !env.Code.OK() {
		msg := env.Message
		if msg == "" {
			msg = "Upload failed"
		}
		return UploadResult{Error: msg}, nil
	}

	var data struct {
		MusicID string `json:"music_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return UploadResult{Error: fmt.Sprintf("Network error: malformed response: %v", err)}, nil
	}
	return UploadResult{Success: true, MusicID: data.MusicID}, nil
}

// CreateAd submits a validated draft. Callers are expected to have run
// the rule engine first; the platform will still reject bad payloads and
// the rejection is interpreted into Result.Error.
func (c *Client) CreateAd(ctx context.Context, draft *campaign.Draft, advertiserID string) (SubmitResult, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	payload := buildAdPayload(draft, advertiserID)
	body, err := json.Marshal(payload)
	if err != nil {
		return SubmitResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ad/create/", bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("Access-Token", token)
	req.Header.Set("Content-Type", "application/json")

	env, err := c.do(req)
	if err != nil {
		return SubmitResult{Error: fmt.Sprintf("Network error: %v", err)}, nil
	}
	if !env.Code.OK() {
		c.log.Info("ad submission rejected",
			zap.String("code", string(env.Code)), zap.String("message", env.Message))
		return SubmitResult{
			Error:   InterpretSubmission(env.Code, env.Message).Text(),
			Details: &ErrorDetails{Code: env.Code, Message: env.Message},
		}, nil
	}

	var data struct {
		AdID   string `json:"ad_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return SubmitResult{Error: fmt.Sprintf("Network error: malformed response: %v", err)}, nil
	}
	c.log.Info("ad created", zap.String("ad_id", data.AdID), zap.String("status", data.Status))
	return SubmitResult{Success: true, AdID: data.AdID}, nil
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return &env, nil
}

// adPayload is the platform submission shape.
type adPayload struct {
	AdvertiserID string     `json:"advertiser_id"`
	CampaignName string     `json:"campaign_name"`
	Objective    string     `json:"objective"`
	Creative     adCreative `json:"creative"`
}

type adCreative struct {
	AdText       string `json:"ad_text"`
	CallToAction string `json:"call_to_action"`
	MusicID      string `json:"music_id,omitempty"`
}

func buildAdPayload(d *campaign.Draft, advertiserID string) adPayload {
	return adPayload{
		AdvertiserID: advertiserID,
		CampaignName: d.CampaignName,
		Objective:    string(d.Objective),
		Creative: adCreative{
			AdText:       d.AdText,
			CallToAction: string(d.CTA),
			MusicID:      d.MusicID,
		},
	}
}
