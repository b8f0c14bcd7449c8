package tiktok

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is the interpreter's advisory classification of a platform
// failure. Downstream code must not branch on it beyond display.
type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryPermission Category = "permission"
	CategoryGeo        Category = "geo"
	CategoryMusic      Category = "music"
	CategoryRateLimit  Category = "rate_limit"
	CategoryServer     Category = "server"
	CategoryUnknown    Category = "unknown"
)

// Interpretation is a human-readable reading of a platform error: what
// happened and what the user can do about it.
type Interpretation struct {
	Category   Category
	Message    string
	Suggestion string
}

// Text renders the interpretation as user-facing prose.
func (i Interpretation) Text() string {
	if i.Suggestion == "" {
		return i.Message
	}
	return i.Message + i.Suggestion
}

// musicErrorTable maps music validation codes to explanations. Both the
// numeric and symbolic spellings appear in the wild.
var musicErrorTable = map[Code]string{
	"40300":                "This Music ID doesn't exist in the platform's music library.",
	"40301":                "This music is not available in your target region due to licensing restrictions.",
	"40302":                "This music has copyright restrictions and cannot be used.",
	"40303":                "This music has been removed or is no longer available.",
	"MUSIC_NOT_FOUND":      "This Music ID doesn't exist in the platform's music library.",
	"MUSIC_GEO_RESTRICTED": "This music is not available in your region.",
	"MUSIC_COPYRIGHT":      "This music has copyright restrictions.",
}

// musicRemedies is the fixed three-option suffix appended to every music
// error: the user can always try another ID, upload their own, or drop
// music when the objective allows it.
const musicRemedies = "\n\nWhat would you like to do?\n" +
	"1. Try a different Music ID\n" +
	"2. Upload your own custom music\n" +
	"3. Continue without music (only for Traffic campaigns)"

// InterpretMusic maps a music validation failure to guidance. Unrecognized
// codes fall back to the raw platform message.
func InterpretMusic(code Code, message string) Interpretation {
	if explanation, ok := musicErrorTable[code]; ok {
		return Interpretation{Category: CategoryMusic, Message: explanation, Suggestion: musicRemedies}
	}
	if message == "" {
		message = "Unknown music validation error"
	}
	return Interpretation{Category: CategoryMusic, Message: message, Suggestion: musicRemedies}
}

// InterpretSubmission maps an ad submission failure to guidance.
func InterpretSubmission(code Code, message string) Interpretation {
	lower := strings.ToLower(message)
	switch {
	case code == "40100":
		return Interpretation{
			Category: CategoryAuth,
			Message:  "Your access token is invalid or expired. Let me help you re-authenticate.",
		}
	case code == "40104" && (strings.Contains(lower, "permission") || strings.Contains(lower, "scope")):
		return Interpretation{
			Category: CategoryPermission,
			Message: "Your app doesn't have permission for ad creation. " +
				"Please add the required scopes in the developer dashboard.",
		}
	case code == "40104" && (strings.Contains(lower, "region") || strings.Contains(lower, "geo")):
		return Interpretation{
			Category: CategoryGeo,
			Message: "Ad creation is not available in your region. " +
				"You may need to use a VPN or a regional account.",
		}
	case code == "40104":
		return Interpretation{
			Category: CategoryPermission,
			Message:  fmt.Sprintf("Access denied: %s", message),
		}
	case code == "40300":
		return Interpretation{
			Category: CategoryMusic,
			Message:  fmt.Sprintf("Invalid music: %s", message),
		}
	case code == "429":
		return Interpretation{
			Category: CategoryRateLimit,
			Message:  "The platform is rate limiting requests. Let's wait a moment and try again.",
		}
	case serverError(code):
		return Interpretation{
			Category: CategoryServer,
			Message:  "The ads platform is experiencing issues. Would you like to retry or save as draft?",
		}
	default:
		return Interpretation{
			Category: CategoryUnknown,
			Message:  fmt.Sprintf("Submission failed: %s", message),
		}
	}
}

func serverError(code Code) bool {
	n, err := strconv.Atoi(string(code))
	return err == nil && n >= 500 && n < 40000
}
