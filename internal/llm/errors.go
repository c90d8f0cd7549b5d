package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies provider failures so callers can branch on the variant
// instead of string-matching error text themselves.
type Kind string

const (
	KindRateLimited      Kind = "rate_limited"
	KindConnectionFailed Kind = "connection_failed"
	KindInvalidResponse  Kind = "invalid_response"
	KindGeneric          Kind = "generic"
)

type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsRateLimited(err error) bool {
	var llmErr *Error
	return errors.As(err, &llmErr) && llmErr.Kind == KindRateLimited
}

func IsConnectionFailed(err error) bool {
	var llmErr *Error
	return errors.As(err, &llmErr) && llmErr.Kind == KindConnectionFailed
}

var rateLimitMarkers = []string{
	"rate limit",
	"quota",
	"429",
	"too many requests",
	"resource_exhausted",
}

var connectionMarkers = []string{
	"connection",
	"timeout",
	"no such host",
	"connection refused",
}

// classifyStatus maps an upstream HTTP status plus body to an error kind.
func classifyStatus(provider string, statusCode int, body string) *Error {
	message := fmt.Sprintf("returned %d: %s", statusCode, strings.TrimSpace(body))
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Provider: provider, Message: message}
	case statusCode >= http.StatusInternalServerError:
		return &Error{Kind: KindConnectionFailed, Provider: provider, Message: message}
	default:
		if kind := kindFromMarkers(body); kind != KindGeneric {
			return &Error{Kind: kind, Provider: provider, Message: message}
		}
		return &Error{Kind: KindGeneric, Provider: provider, Message: message}
	}
}

// classifyFailure inspects a transport-level error's message for
// provider-specific markers.
func classifyFailure(provider, message string, err error) *Error {
	kind := kindFromMarkers(message)
	if kind == KindGeneric && err != nil {
		kind = kindFromMarkers(err.Error())
	}
	if kind == KindGeneric && err != nil {
		// Transport errors without a recognizable marker are still
		// connectivity problems from the caller's point of view.
		kind = KindConnectionFailed
	}
	return &Error{Kind: kind, Provider: provider, Message: message, Err: err}
}

func kindFromMarkers(raw string) Kind {
	lowered := strings.ToLower(raw)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lowered, marker) {
			return KindRateLimited
		}
	}
	for _, marker := range connectionMarkers {
		if strings.Contains(lowered, marker) {
			return KindConnectionFailed
		}
	}
	return KindGeneric
}
