// Package campaign holds the ad-campaign draft record and the business
// rules it must satisfy before submission. Rules run locally, before any
// platform call, so predictable rejections never cost a network round-trip.
package campaign

import (
	"fmt"
	"strings"
)

// Objective is the campaign objective. Closed set: music is mandatory for
// Conversions and optional for Traffic, so the rule engine can branch
// exhaustively.
type Objective string

const (
	ObjectiveTraffic     Objective = "Traffic"
	ObjectiveConversions Objective = "Conversions"
)

// Objectives lists the valid objectives in display order.
var Objectives = []Objective{ObjectiveTraffic, ObjectiveConversions}

// Valid reports whether o is a known objective.
func (o Objective) Valid() bool {
	return o == ObjectiveTraffic || o == ObjectiveConversions
}

// RequiresMusic reports whether this objective mandates a music track.
func (o Objective) RequiresMusic() bool {
	return o == ObjectiveConversions
}

// CTA is the ad's call-to-action button.
type CTA string

const (
	CTALearnMore CTA = "LEARN_MORE"
	CTAShopNow   CTA = "SHOP_NOW"
	CTASignUp    CTA = "SIGN_UP"
	CTADownload  CTA = "DOWNLOAD"
	CTABookNow   CTA = "BOOK_NOW"
	CTAContactUs CTA = "CONTACT_US"
	CTAGetQuote  CTA = "GET_QUOTE"
	CTAApplyNow  CTA = "APPLY_NOW"
	CTAWatchMore CTA = "WATCH_MORE"
)

// CTAs lists the valid call-to-action values in display order.
var CTAs = []CTA{
	CTALearnMore, CTAShopNow, CTASignUp, CTADownload, CTABookNow,
	CTAContactUs, CTAGetQuote, CTAApplyNow, CTAWatchMore,
}

// Valid reports whether c is one of the nine platform CTAs.
func (c CTA) Valid() bool {
	for _, v := range CTAs {
		if c == v {
			return true
		}
	}
	return false
}

// MusicStatus tracks the last known outcome of music validation. It is
// advisory only: completeness and the submission gate re-derive music
// eligibility from Objective and MusicID rather than trusting this field.
type MusicStatus string

const (
	StatusNotRequested      MusicStatus = "not_requested"
	StatusPendingValidation MusicStatus = "pending_validation"
	StatusValidated         MusicStatus = "validated"
	StatusNotRequired       MusicStatus = "not_required"
	StatusError             MusicStatus = "error"
)

// Valid reports whether s is a known music status.
func (s MusicStatus) Valid() bool {
	switch s {
	case StatusNotRequested, StatusPendingValidation, StatusValidated,
		StatusNotRequired, StatusError:
		return true
	}
	return false
}

// Draft is the campaign record accumulated over a conversation. Empty
// string means "not collected yet". Failed validation never rolls fields
// back; issues are surfaced separately as data.
type Draft struct {
	CampaignName string      `json:"campaign_name"`
	Objective    Objective   `json:"objective"`
	AdText       string      `json:"ad_text"`
	CTA          CTA         `json:"cta"`
	MusicID      string      `json:"music_id"`
	MusicStatus  MusicStatus `json:"music_status"`
}

// NewDraft returns an empty draft ready to accumulate conversation data.
func NewDraft() *Draft {
	return &Draft{MusicStatus: StatusNotRequested}
}

// Patch carries the per-field updates extracted from one model reply.
// Nil pointers leave the corresponding draft field unchanged.
type Patch struct {
	CampaignName *string `json:"campaign_name"`
	Objective    *string `json:"objective"`
	AdText       *string `json:"ad_text"`
	CTA          *string `json:"cta"`
	MusicID      *string `json:"music_id"`
	MusicStatus  *string `json:"music_status"`
}

// Apply merges a patch into the draft. Later values overwrite earlier ones
// per field; there is no conflict detection. Changing MusicID away from a
// previously validated value drops the stale validated status so the
// advisory field cannot claim an outcome that was never checked.
func (d *Draft) Apply(p Patch) {
	if p.CampaignName != nil {
		d.CampaignName = *p.CampaignName
	}
	if p.Objective != nil {
		d.Objective = Objective(*p.Objective)
	}
	if p.AdText != nil {
		d.AdText = *p.AdText
	}
	if p.CTA != nil {
		d.CTA = CTA(*p.CTA)
	}
	if p.MusicID != nil && *p.MusicID != d.MusicID {
		d.MusicID = *p.MusicID
		if d.MusicStatus == StatusValidated || d.MusicStatus == StatusError {
			d.MusicStatus = StatusNotRequested
		}
	}
	if p.MusicStatus != nil && MusicStatus(*p.MusicStatus).Valid() {
		d.MusicStatus = MusicStatus(*p.MusicStatus)
	}
}

// Reset clears the draft for a new campaign.
func (d *Draft) Reset() {
	*d = Draft{MusicStatus: StatusNotRequested}
}

// Summary renders the collected fields for the CLI `summary` command.
func (d *Draft) Summary() string {
	var b strings.Builder
	b.WriteString("Current Campaign Data:\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	write := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
	}
	write("campaign_name", d.CampaignName)
	write("objective", string(d.Objective))
	write("ad_text", d.AdText)
	write("cta", string(d.CTA))
	write("music_id", d.MusicID)
	b.WriteString(strings.Repeat("=", 40))
	return b.String()
}

func objectiveList() string {
	names := make([]string, len(Objectives))
	for i, o := range Objectives {
		names[i] = string(o)
	}
	return strings.Join(names, ", ")
}

func ctaList() string {
	names := make([]string, len(CTAs))
	for i, c := range CTAs {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
