// Package llm is the language-model boundary. The model is an opaque
// collaborator: role-tagged turns plus a system preamble go in, free text
// comes out. Everything that understands the text lives in internal/agent.
package llm

import "context"

// Message is one role-tagged conversation turn.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatRequest carries the instruction preamble and the history window.
type ChatRequest struct {
	System   string
	Messages []Message
}

// Client is implemented by every provider.
type Client interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}
