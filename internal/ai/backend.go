// Package ai defines the chat capability the scoring core consumes. Transport, authentication and
// model selection live in provider packages such as ai/gemini.
package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable is returned when no chat backend could be initialized.
var ErrUnavailable = errors.New("chat backend unavailable")

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is a single chat completion request.
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Stop        []string
}

// ChatResponse carries the text returned by the backend.
type ChatResponse struct {
	Content string
}

// ChatBackend sends chat requests to a language model.
type ChatBackend interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatFunc adapts a function to ChatBackend.
type ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)

// Chat calls f.
func (f ChatFunc) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return f(ctx, req)
}

// Factory builds a backend on first use.
type Factory func() (ChatBackend, error)

// LazyBackend initializes its backend exactly once, on the first Chat call. Concurrent first
// calls share one initialization; a failed initialization is permanent.
type LazyBackend struct {
	get func() (ChatBackend, error)
}

// NewLazyBackend wraps factory in an initialize-once handle.
func NewLazyBackend(factory Factory) *LazyBackend {
	return &LazyBackend{get: sync.OnceValues(func() (ChatBackend, error) {
		if factory == nil {
			return nil, errors.New("no backend factory configured")
		}
		b, err := factory()
		if err == nil && b == nil {
			err = errors.New("backend factory returned nil")
		}
		return b, err
	})}
}

// Chat initializes the backend if needed and forwards the request.
func (l *LazyBackend) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	b, err := l.get()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return b.Chat(ctx, req)
}
