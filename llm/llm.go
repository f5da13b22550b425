// Package llm defines the language model client used by the research
// pipeline and adapters for the model SDKs it can run against.
//
// Every adapter sends role-tagged messages with temperature 0 and returns the
// generated text. Adapters are safe to share between concurrent runs.
package llm

import (
	"context"
	"errors"
)

// Role tags a message with its speaker.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
)

// ErrEmptyResponse is returned by adapters when the provider answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Message is one role-tagged turn of a prompt.
type Message struct {
	Role    Role
	Content string
}

// System returns a system instruction message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// Human returns a user message.
func Human(content string) Message { return Message{Role: RoleHuman, Content: content} }

// Client generates text from an ordered list of messages.
type Client interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}

// ClientFunc is a function adapter for Client
type ClientFunc func(ctx context.Context, messages []Message) (string, error)

// Invoke implements the Client interface
func (f ClientFunc) Invoke(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}
