//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package embedder provides interfaces and implementations for text
// embedding.
package embedder

import "context"

// Embedder generates vector representations of text.
type Embedder interface {
	// GetEmbedding generates an embedding vector for the given text.
	GetEmbedding(ctx context.Context, text string) ([]float64, error)

	// GetDimensions returns the dimensionality of produced embeddings.
	GetDimensions() int
}
