// Package agent is the conversation driver. It feeds user input and a
// bounded history window to the language model, merges the model's
// structured output into the campaign draft, and dispatches side effects
// (music validation, submission) with the rule engine as the final gate.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"adgent/internal/auth"
	"adgent/internal/campaign"
	"adgent/internal/llm"
	"adgent/internal/tiktok"
)

// historyWindow bounds how many history entries accompany each model
// call. The full transcript is kept; only the window is sent.
const historyWindow = 10

// apologyResponse is the degraded reply when model output cannot be
// parsed. The draft is left untouched in that case.
const apologyResponse = "I apologize, but I'm having trouble processing that. Could you please rephrase?"

// openingMessage seeds the conversation on start and reset.
const openingMessage = "I want to create a TikTok ad campaign"

// Agent drives one conversation. Strictly sequential: one user message
// in, one response out, no overlapping turns.
type Agent struct {
	model llm.Client
	api   *tiktok.Client
	creds *auth.Manager
	log   *zap.Logger

	draft   *campaign.Draft
	history []llm.Message
}

// New creates an agent with injected collaborators.
func New(model llm.Client, api *tiktok.Client, creds *auth.Manager, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		model: model,
		api:   api,
		creds: creds,
		log:   logger.Named("agent"),
		draft: campaign.NewDraft(),
	}
}

// Draft exposes the accumulating campaign record (for the summary view).
func (a *Agent) Draft() *campaign.Draft { return a.draft }

// Start opens the conversation.
func (a *Agent) Start(ctx context.Context) (string, error) {
	return a.Process(ctx, openingMessage)
}

// Reset clears draft and history for a new campaign.
func (a *Agent) Reset() {
	a.draft.Reset()
	a.history = nil
}

// Process handles one user turn and returns the agent's reply. Errors are
// returned only for failures the conversation cannot absorb (model
// transport failure, missing credentials); everything else degrades to
// user-facing text.
func (a *Agent) Process(ctx context.Context, input string) (string, error) {
	a.history = append(a.history, llm.Message{Role: "user", Content: input})

	raw, err := a.callModel(ctx, "")
	if err != nil {
		return "", fmt.Errorf("language model call failed: %w", err)
	}

	reply, err := parseReply(raw)
	if err != nil {
		// Degrade without mutating the draft.
		a.log.Warn("unparsable model output", zap.Error(err))
		return a.respond(apologyResponse), nil
	}
	a.log.Debug("model reply",
		zap.String("next_action", reply.NextAction),
		zap.String("validation_status", reply.ValidationStatus))

	a.draft.Apply(reply.CollectedData)

	switch reply.NextAction {
	case ActionValidateMusic:
		return a.handleMusicValidation(ctx)
	case ActionSubmit:
		return a.handleSubmission(ctx)
	case ActionEnforceRule:
		// The model decided a rule was violated; pass its explanation
		// through verbatim.
		return a.respond(reply.ConversationResponse), nil
	default:
		return a.respond(reply.ConversationResponse), nil
	}
}

// respond records the assistant turn and returns it.
func (a *Agent) respond(text string) string {
	a.history = append(a.history, llm.Message{Role: "assistant", Content: text})
	return text
}

// callModel sends the bounded history window, optionally with an extra
// context message appended (error interpretation prompts).
func (a *Agent) callModel(ctx context.Context, additionalContext string) (string, error) {
	window := a.history
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}
	messages := make([]llm.Message, len(window), len(window)+1)
	copy(messages, window)
	if additionalContext != "" {
		messages = append(messages, llm.Message{Role: "user", Content: additionalContext})
	}
	return a.model.Complete(ctx, llm.ChatRequest{System: systemPrompt, Messages: messages})
}

func (a *Agent) handleMusicValidation(ctx context.Context) (string, error) {
	musicID := a.draft.MusicID
	if musicID == "" {
		return a.respond("Please provide a Music ID to validate."), nil
	}

	result, err := a.api.ValidateMusic(ctx, musicID)
	if err != nil {
		return "", err
	}

	if result.Valid {
		a.draft.MusicStatus = campaign.StatusValidated
		response := fmt.Sprintf("Great! Music ID '%s' is valid and ready to use. ", musicID)
		if campaign.IsComplete(a.draft) {
			response += "I have all the information needed. Ready to submit?"
		}
		return a.respond(response), nil
	}

	a.draft.MusicStatus = campaign.StatusError
	a.draft.MusicID = ""

	// Hand the platform's explanation back to the model so it can talk
	// the user through the remedies.
	raw, err := a.callModel(ctx, musicValidationPrompt(result.Error))
	if err != nil {
		return "", fmt.Errorf("language model call failed: %w", err)
	}
	reply, err := parseReply(raw)
	if err != nil {
		return a.respond(result.Error), nil
	}
	return a.respond(reply.ConversationResponse), nil
}

func (a *Agent) handleSubmission(ctx context.Context) (string, error) {
	// The rule engine gates every submission: predictable rejections
	// never reach the network.
	if issues := campaign.Validate(a.draft); len(issues) > 0 {
		msg := "Cannot submit - please fix these issues:\n" + campaign.FormatIssues(issues)
		return a.respond(msg), nil
	}

	result, err := a.api.CreateAd(ctx, a.draft, a.advertiserID())
	if err != nil {
		return "", err
	}

	if result.Success {
		response := fmt.Sprintf(
			"Success! Your ad campaign has been created.\n\n"+
				"Ad ID: %s\n"+
				"Campaign: %s\n"+
				"Objective: %s\n"+
				"Status: Pending Review\n\n"+
				"Your ad will be reviewed and should go live within 24 hours.",
			result.AdID, a.draft.CampaignName, a.draft.Objective)
		return a.respond(response), nil
	}

	code := ""
	if result.Details != nil {
		code = string(result.Details.Code)
	}
	raw, err := a.callModel(ctx, errorInterpretationPrompt(
		"SUBMISSION_ERROR", code, result.Error, "Ad submission failed"))
	if err != nil {
		return "", fmt.Errorf("language model call failed: %w", err)
	}
	reply, err := parseReply(raw)
	if err != nil {
		return a.respond(result.Error), nil
	}
	return a.respond(reply.ConversationResponse), nil
}

// advertiserID picks the account to submit under: the first advertiser ID
// from the stored credential.
func (a *Agent) advertiserID() string {
	if cred := a.creds.Credential(); cred != nil && len(cred.AdvertiserIDs) > 0 {
		return cred.AdvertiserIDs[0]
	}
	return ""
}
