// Package provider opens streaming chat completions against an external
// inference service.
package provider

import (
	"context"

	"github.com/kdduha/code-explainer/backend/internal/models"
)

// Chunk is the raw JSON document of one streamed provider event.
type Chunk []byte

// Request is everything needed to open one streaming chat completion.
type Request struct {
	Model       string
	Messages    []models.ChatMessage
	MaxTokens   int
	Temperature float64
}

// Stream yields chunks in provider order. Next returns false once the
// stream is exhausted or failed; Err reports which.
type Stream interface {
	Next() bool
	Current() Chunk
	Err() error
	Close() error
}

type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
