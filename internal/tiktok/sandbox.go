package tiktok

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Sandbox simulates the ads platform API so the agent can run end to end
// without real credentials. It is an explicitly constructed instance, not
// process-global state: tests build their own and run in parallel.
//
// Magic inputs reproduce the platform's documented failure modes:
// app ID "invalid_app_id", secret "invalid_secret", auth code
// "invalid_code", and the music IDs in errorMusicIDs.
type Sandbox struct {
	mu           sync.Mutex
	accessTokens map[string]bool
	refresh      map[string]bool
	uploaded     map[string]string // file name -> music id

	// GeoRestrictRate is the probability that an otherwise valid ad
	// submission fails with a region error. Zero by default so tests are
	// deterministic; the CLI sandbox sets a small rate.
	GeoRestrictRate float64
	rng             *rand.Rand
}

// validMusicIDs is the sandbox music library.
var validMusicIDs = map[string]bool{
	"music_123": true,
	"music_456": true,
	"music_789": true,
	"music_abc": true,
	"music_xyz": true,
}

// errorMusicIDs trigger specific validation failures.
var errorMusicIDs = map[string]struct {
	code    string
	message string
}{
	"music_not_found": {"40300", "Music not found"},
	"music_geo_001":   {"40301", "Music not available in your region"},
	"music_copyright": {"40302", "Copyright restricted music"},
}

// NewSandbox creates an empty sandbox with a fixed RNG seed.
func NewSandbox() *Sandbox {
	return &Sandbox{
		accessTokens: make(map[string]bool),
		refresh:      make(map[string]bool),
		uploaded:     make(map[string]string),
		rng:          rand.New(rand.NewSource(1)),
	}
}

// Handler exposes the sandbox as the platform's HTTP surface, so clients
// exercise the real wire protocol against it.
func (s *Sandbox) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/access_token/", s.handleExchange)
	mux.HandleFunc("POST /oauth2/refresh_token/", s.handleRefresh)
	mux.HandleFunc("GET /music/info/", s.handleMusicInfo)
	mux.HandleFunc("POST /file/music/upload/", s.handleMusicUpload)
	mux.HandleFunc("POST /ad/create/", s.handleCreateAd)
	return mux
}

// IssueAuthCode simulates the user completing the authorization page.
func (s *Sandbox) IssueAuthCode() string {
	return "sandbox_auth_code_" + uuid.NewString()
}

func writeEnvelope(w http.ResponseWriter, code any, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func (s *Sandbox) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppID    string `json:"app_id"`
		Secret   string `json:"secret"`
		AuthCode string `json:"auth_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, 40000, "Malformed request body", nil)
		return
	}
	switch {
	case req.AppID == "invalid_app_id":
		writeEnvelope(w, 40100, "Invalid client_id", nil)
	case req.Secret == "invalid_secret":
		writeEnvelope(w, 40100, "Invalid client_secret", nil)
	case req.AuthCode == "invalid_code":
		writeEnvelope(w, 40101, "Invalid authorization code", nil)
	default:
		access, refresh := s.issueTokens()
		writeEnvelope(w, 0, "OK", map[string]any{
			"access_token":       access,
			"refresh_token":      refresh,
			"advertiser_ids":     []string{"123456789"},
			"expires_in":         86400,
			"refresh_expires_in": 2592000,
		})
	}
}

func (s *Sandbox) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, 40000, "Malformed request body", nil)
		return
	}
	s.mu.Lock()
	known := s.refresh[req.RefreshToken]
	s.mu.Unlock()
	if !known {
		writeEnvelope(w, 40101, "Invalid refresh token", nil)
		return
	}
	access, refresh := s.issueTokens()
	writeEnvelope(w, 0, "OK", map[string]any{
		"access_token":       access,
		"refresh_token":      refresh,
		"expires_in":         86400,
		"refresh_expires_in": 2592000,
	})
}

func (s *Sandbox) issueTokens() (access, refresh string) {
	access = "sandbox_access_" + uuid.NewString()
	refresh = "sandbox_refresh_" + uuid.NewString()
	s.mu.Lock()
	s.accessTokens[access] = true
	s.refresh[refresh] = true
	s.mu.Unlock()
	return access, refresh
}

// authorized gates business endpoints on a previously issued token.
func (s *Sandbox) authorized(w http.ResponseWriter, r *http.Request) bool {
	token := r.Header.Get("Access-Token")
	s.mu.Lock()
	ok := token != "" && s.accessTokens[token]
	s.mu.Unlock()
	if !ok {
		writeEnvelope(w, 40100, "Invalid or expired access token", nil)
	}
	return ok
}

func (s *Sandbox) handleMusicInfo(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	musicID := r.URL.Query().Get("music_id")
	if spec, ok := errorMusicIDs[musicID]; ok {
		writeEnvelope(w, spec.code, spec.message, nil)
		return
	}
	s.mu.Lock()
	isUploaded := false
	for _, id := range s.uploaded {
		if id == musicID {
			isUploaded = true
			break
		}
	}
	s.mu.Unlock()
	if validMusicIDs[musicID] || isUploaded {
		writeEnvelope(w, 0, "OK", map[string]any{
			"music_id":      musicID,
			"title":         fmt.Sprintf("Sample Music %s", musicID),
			"artist":        "Sample Artist",
			"duration":      180,
			"is_commercial": true,
		})
		return
	}
	writeEnvelope(w, "40300", "Music not found", nil)
}

func (s *Sandbox) handleMusicUpload(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeEnvelope(w, 40000, "Malformed upload", nil)
		return
	}
	file, header, err := r.FormFile("music_file")
	if err != nil {
		writeEnvelope(w, 40000, "Missing music_file", nil)
		return
	}
	file.Close()

	musicID := "music_custom_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	s.mu.Lock()
	s.uploaded[header.Filename] = musicID
	s.mu.Unlock()
	writeEnvelope(w, 0, "OK", map[string]any{
		"music_id":      musicID,
		"upload_status": "completed",
	})
}

func (s *Sandbox) handleCreateAd(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var payload struct {
		AdvertiserID string `json:"advertiser_id"`
		CampaignName string `json:"campaign_name"`
		Objective    string `json:"objective"`
		Creative     struct {
			AdText       string `json:"ad_text"`
			CallToAction string `json:"call_to_action"`
			MusicID      string `json:"music_id"`
		} `json:"creative"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeEnvelope(w, 40000, "Malformed request body", nil)
		return
	}

	// Music is re-checked server side: a submission can carry an ID that
	// was never validated in conversation.
	if id := payload.Creative.MusicID; id != "" {
		if spec, ok := errorMusicIDs[id]; ok {
			writeEnvelope(w, 40300, fmt.Sprintf("Invalid music_id: %s", spec.message), nil)
			return
		}
		s.mu.Lock()
		isUploaded := false
		for _, uploaded := range s.uploaded {
			if uploaded == id {
				isUploaded = true
				break
			}
		}
		s.mu.Unlock()
		if !validMusicIDs[id] && !isUploaded {
			writeEnvelope(w, 40300, "Invalid music_id: Music not found", nil)
			return
		}
	}

	s.mu.Lock()
	geoFail := s.GeoRestrictRate > 0 && s.rng.Float64() < s.GeoRestrictRate
	s.mu.Unlock()
	if geoFail {
		writeEnvelope(w, 40104, "Ad creation not available in your region", nil)
		return
	}

	writeEnvelope(w, 0, "OK", map[string]any{
		"ad_id":  "ad_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		"status": "PENDING_REVIEW",
	})
}
