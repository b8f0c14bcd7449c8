package auth

import "fmt"

// Kind categorizes an OAuth failure. Classification of platform responses
// is best-effort substring matching on the message body, not a structured
// contract, so unrecognized shapes land in KindUnknown.
type Kind string

const (
	KindInvalidClientID     Kind = "invalid_client_id"
	KindInvalidClientSecret Kind = "invalid_client_secret"
	KindInvalidCode         Kind = "invalid_code"
	KindInsufficientScopes  Kind = "insufficient_scopes"
	KindNetworkError        Kind = "network_error"
	KindNoValidToken        Kind = "no_valid_token"
	KindUnknown             Kind = "unknown"
)

// Error is a categorized OAuth failure carrying a human message and a
// remediation suggestion. It is always raised to the caller, never
// swallowed.
type Error struct {
	Kind       Kind
	Message    string
	Suggestion string
	Err        error // underlying transport error, if any
}

func (e *Error) Error() string {
	return fmt.Sprintf("oauth %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
