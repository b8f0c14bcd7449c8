package campaign

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Business rule limits.
const (
	NameMinLength   = 3
	AdTextMaxLength = 100
)

// Issue is a single field-scoped rule violation with a human-readable
// remedy. Issues are values, never errors: the caller decides how to
// surface them.
type Issue struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

func (i Issue) String() string {
	if i.Suggestion == "" {
		return fmt.Sprintf("%s: %s", i.Field, i.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", i.Field, i.Message, i.Suggestion)
}

// Validate checks the draft against every business rule and returns the
// violations in fixed field order: campaign_name, objective, ad_text,
// cta, then the cross-field music rule. An empty slice means the draft
// is submittable. Pure function; no I/O.
func Validate(d *Draft) []Issue {
	var issues []Issue
	appendIf := func(iss *Issue) {
		if iss != nil {
			issues = append(issues, *iss)
		}
	}
	appendIf(checkCampaignName(d.CampaignName))
	appendIf(checkObjective(d.Objective))
	appendIf(checkAdText(d.AdText))
	appendIf(checkCTA(d.CTA))
	appendIf(checkMusic(d.Objective, d.MusicID))
	return issues
}

// IsComplete reports whether every required field is collected and the
// music-eligibility rule passes. The rule is re-derived from Objective
// and MusicID; MusicStatus is deliberately ignored, so a Traffic draft
// with music never requested still counts as complete.
func IsComplete(d *Draft) bool {
	if d.CampaignName == "" || d.Objective == "" || d.AdText == "" || d.CTA == "" {
		return false
	}
	return checkMusic(d.Objective, d.MusicID) == nil
}

func checkCampaignName(name string) *Issue {
	if name == "" {
		return &Issue{
			Field:      "campaign_name",
			Message:    "Campaign name is required",
			Suggestion: "Please provide a name for your campaign",
		}
	}
	if trimmed := strings.TrimSpace(name); utf8.RuneCountInString(trimmed) < NameMinLength {
		return &Issue{
			Field:      "campaign_name",
			Message:    fmt.Sprintf("Campaign name must be at least %d characters", NameMinLength),
			Suggestion: fmt.Sprintf("Current length: %d characters", utf8.RuneCountInString(trimmed)),
		}
	}
	return nil
}

func checkObjective(o Objective) *Issue {
	if o == "" {
		return &Issue{
			Field:      "objective",
			Message:    "Campaign objective is required",
			Suggestion: "Choose either: " + objectiveList(),
		}
	}
	if !o.Valid() {
		return &Issue{
			Field:      "objective",
			Message:    fmt.Sprintf("Invalid objective: %s", o),
			Suggestion: "Must be one of: " + objectiveList(),
		}
	}
	return nil
}

func checkAdText(text string) *Issue {
	if text == "" {
		return &Issue{
			Field:      "ad_text",
			Message:    "Ad text is required",
			Suggestion: "Please provide text for your ad",
		}
	}
	// Runes, not bytes: multi-byte ad copy is not penalized.
	if n := utf8.RuneCountInString(text); n > AdTextMaxLength {
		return &Issue{
			Field:   "ad_text",
			Message: fmt.Sprintf("Ad text exceeds maximum length of %d characters", AdTextMaxLength),
			Suggestion: fmt.Sprintf("Current length: %d characters. Please shorten by %d characters.",
				n, n-AdTextMaxLength),
		}
	}
	return nil
}

func checkCTA(c CTA) *Issue {
	if c == "" {
		return &Issue{
			Field:      "cta",
			Message:    "CTA (Call to Action) is required",
			Suggestion: "Choose one of: " + ctaList(),
		}
	}
	if !c.Valid() {
		return &Issue{
			Field:      "cta",
			Message:    fmt.Sprintf("Invalid CTA: %s", c),
			Suggestion: "Must be one of: " + ctaList(),
		}
	}
	return nil
}

// checkMusic is the one cross-field rule. A nil objective skips the check
// entirely: the rule cannot be evaluated until the objective is known.
func checkMusic(o Objective, musicID string) *Issue {
	if o == "" {
		return nil
	}
	if o.RequiresMusic() && musicID == "" {
		return &Issue{
			Field:   "music_id",
			Message: fmt.Sprintf("%s campaigns require music", o),
			Suggestion: "Please provide a Music ID or upload custom music. " +
				"Alternatively, change objective to Traffic.",
		}
	}
	return nil
}

// FormatIssues renders violations as a user-facing rejection block.
// Returns "" when there is nothing to report.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return ""
	}
	lines := make([]string, 0, len(issues)+1)
	lines = append(lines, "Validation Errors:")
	for _, iss := range issues {
		lines = append(lines, "  • "+iss.String())
	}
	return strings.Join(lines, "\n")
}
