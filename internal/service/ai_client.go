package service

import (
	"context"
)

// Completer sends one prompt to a language model and returns its raw answer
type Completer interface {
	// Complete returns the assistant message for prompt
	Complete(ctx context.Context, prompt string) (string, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// Embedder turns texts into vectors for the catalog
type Embedder interface {
	// CreateEmbeddings generates embeddings for texts
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether embeddings can be requested
	IsEnabled() bool
}

// Ensure OpenAIClient implements both
var (
	_ Completer = (*OpenAIClient)(nil)
	_ Embedder  = (*embeddingClient)(nil)
)
