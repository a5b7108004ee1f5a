// Package tutor implements the chat dispatcher: request validation, prompt
// assembly, and the sequential multi-model fallback loop.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/learnzverse/tutord/internal/persona"
	"github.com/learnzverse/tutord/internal/proxy"
)

// Sampling parameters sent with every completion request.
const (
	temperature = 0.7
	maxTokens   = 1000
)

// Validation errors, detected before any upstream call.
var (
	ErrUnknownTutor = errors.New("unknown tutor")
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// ExhaustedError is returned when every candidate model failed. It carries
// only the most recent failure; earlier diagnostics are discarded.
type ExhaustedError struct {
	Last error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return "all models failed"
	}
	return fmt.Sprintf("all models failed: %v", e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Completer abstracts the completion backend so tests can substitute a fake.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req proxy.ChatRequest) (*proxy.ChatCompletion, error)
}

// Reply is a successful dispatch result.
type Reply struct {
	Text  string
	Model string
}

// Dispatcher validates chat requests and forwards them to the first candidate
// model that answers. It holds no per-request state and is safe for
// concurrent use.
type Dispatcher struct {
	registry *persona.Registry
	client   Completer
	models   []string
}

// NewDispatcher creates a dispatcher over the given persona registry, backend
// client, and preference-ordered model candidates.
func NewDispatcher(registry *persona.Registry, client Completer, models []string) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		client:   client,
		models:   models,
	}
}

// Models returns the candidate list in fallback order.
func (d *Dispatcher) Models() []string {
	out := make([]string, len(d.models))
	copy(out, d.models)
	return out
}

// HandleChat validates the request, assembles the message sequence, and tries
// each candidate model in order until one succeeds. The first success wins;
// exhaustion yields an ExhaustedError wrapping the last observed failure.
func (d *Dispatcher) HandleChat(ctx context.Context, tutorID, message string, history []proxy.Message) (*Reply, error) {
	p, ok := d.registry.Lookup(tutorID)
	if !ok {
		return nil, ErrUnknownTutor
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}

	messages := assembleMessages(p, history, message)

	var lastErr error
	for _, model := range d.models {
		completion, err := d.client.CreateChatCompletion(ctx, proxy.ChatRequest{
			Model:       model,
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err == nil {
			err = validateCompletion(completion)
		}
		if err != nil {
			slog.Warn("model call failed", "model", model, "error", err)
			lastErr = err
			continue
		}

		return &Reply{
			Text:  completion.Choices[0].Message.Content,
			Model: model,
		}, nil
	}

	return nil, &ExhaustedError{Last: lastErr}
}

// assembleMessages builds the message sequence: the persona's system prompt
// first, history verbatim in original order, and the new user message last.
func assembleMessages(p persona.Persona, history []proxy.Message, message string) []proxy.Message {
	messages := make([]proxy.Message, 0, len(history)+2)
	messages = append(messages, proxy.Message{Role: "system", Content: p.Prompt})
	messages = append(messages, history...)
	messages = append(messages, proxy.Message{Role: "user", Content: message})
	return messages
}

// validateCompletion rejects structurally empty completions so the fallback
// loop advances instead of returning a blank reply.
func validateCompletion(c *proxy.ChatCompletion) error {
	if len(c.Choices) == 0 {
		return errors.New("completion has no choices")
	}
	if c.Choices[0].Message.Content == "" {
		return errors.New("completion has empty content")
	}
	return nil
}
