// Package provider defines the contract between the debate orchestrator
// and per-provider AI adapters.
//
// An adapter wraps one provider's transport (HTTP streaming, SDK, etc.)
// behind two operations: a token-chunk stream and a non-streaming
// fallback send. The orchestrator never sees wire formats; it hands an
// adapter a Request and a StreamHandler and waits for exactly one
// terminal callback.
package provider

import (
	"context"
	"fmt"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation history sent to a provider.
type Message struct {
	Role Role
	// Name is the display name of the participant who authored the
	// message. Empty for user and system messages.
	Name    string
	Content string
}

// Request carries everything an adapter needs to produce one response.
type Request struct {
	Provider string
	Model    string
	Messages []Message

	// WebSearchEnabled is set to true when the session's merged
	// capabilities allow web search. It is left nil (not false) when the
	// roster does not support it; adapters and tests distinguish unset
	// from disabled.
	WebSearchEnabled *bool
}

// StreamHandler receives stream lifecycle callbacks for one request.
// OnChunk is invoked zero or more times, then exactly one of OnComplete
// or OnError. Nil callbacks are permitted and skipped.
type StreamHandler struct {
	OnChunk    func(text string)
	OnComplete func(final string)
	OnError    func(err error)
}

// Adapter provides provider-specific behavior for producing responses.
type Adapter interface {
	// Name returns the provider identifier this adapter serves.
	Name() string

	// StreamMessage opens a token stream for the request. The returned
	// cancel function stops the stream; it is never nil and is safe to
	// call after the stream has terminated. An error return means the
	// stream could not be opened and no handler callback will fire.
	StreamMessage(ctx context.Context, req Request, h StreamHandler) (cancel func(), err error)

	// SendMessage performs a non-streaming request and returns the full
	// response text. Used as the fallback when streaming is unavailable
	// for a provider in the current session.
	SendMessage(ctx context.Context, req Request) (string, error)
}

// Resolver maps a provider identifier to its Adapter.
type Resolver func(providerID string) (Adapter, error)

// StaticResolver builds a Resolver from a fixed adapter set keyed by
// provider identifier.
func StaticResolver(adapters map[string]Adapter) Resolver {
	return func(providerID string) (Adapter, error) {
		a, ok := adapters[providerID]
		if !ok {
			return nil, fmt.Errorf("no adapter registered for provider %q", providerID)
		}
		return a, nil
	}
}

// EnableWebSearch marks the request as web-search enabled. The flag is
// only ever set to true; absence means the roster does not support it.
func (r *Request) EnableWebSearch() {
	enabled := true
	r.WebSearchEnabled = &enabled
}
