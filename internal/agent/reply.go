package agent

import (
	"encoding/json"
	"fmt"

	"adgent/internal/campaign"
	"adgent/internal/llm"
)

// Next-action tags the model may emit. Anything unrecognized is treated
// as "continue the conversation".
const (
	ActionValidateMusic = "validate_music"
	ActionSubmit        = "submit"
	ActionEnforceRule   = "enforce_rule"
)

// Reply is the structured envelope expected inside every model response.
type Reply struct {
	InternalReasoning    string         `json:"internal_reasoning"`
	ConversationResponse string         `json:"conversation_response"`
	CollectedData        campaign.Patch `json:"collected_data"`
	ValidationStatus     string         `json:"validation_status"`
	NextAction           string         `json:"next_action"`
}

// parseReply extracts and decodes the JSON envelope from raw model
// output. The object may arrive wrapped in a markdown fence.
func parseReply(raw string) (*Reply, error) {
	jsonStr := llm.ExtractJSON(raw)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object found in model output")
	}
	var reply Reply
	if err := json.Unmarshal([]byte(jsonStr), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	return &reply, nil
}
