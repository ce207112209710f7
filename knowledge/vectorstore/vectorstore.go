//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package vectorstore defines the vector storage interface for the
// knowledge base.
package vectorstore

import (
	"context"
	"errors"

	"github.com/insighthr/hragent/knowledge/document"
)

// ErrDocumentNotFound is returned when a document ID does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// Query is a similarity search request.
type Query struct {
	// Vector is the embedding to search against.
	Vector []float64
	// Limit is the maximum number of results.
	Limit int
	// OwnerScopes restricts results to documents whose owner scope is in
	// the set. An empty set matches nothing.
	OwnerScopes []string
	// MinScore filters out results scoring below the threshold.
	MinScore float64
}

// ScoredDocument pairs a document with its similarity score.
type ScoredDocument struct {
	Document *document.Document
	Score    float64
}

// Result is the outcome of a similarity search, best match first.
type Result struct {
	Documents []*ScoredDocument
}

// VectorStore stores document embeddings and performs similarity search.
type VectorStore interface {
	// Add stores a document with its embedding. Adding an existing ID
	// replaces the stored document.
	Add(ctx context.Context, doc *document.Document, embedding []float64) error

	// Search performs a similarity search.
	Search(ctx context.Context, query *Query) (*Result, error)

	// Delete removes a document by ID.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}
