//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package retriever provides query-time retrieval from the knowledge base
// with per-employee owner filtering.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/insighthr/hragent/knowledge/document"
	"github.com/insighthr/hragent/knowledge/embedder"
	"github.com/insighthr/hragent/knowledge/vectorstore"
	"github.com/insighthr/hragent/log"
)

const defaultTopK = 4

// RetrievedChunk is one retrieval hit handed to the answer generator.
type RetrievedChunk struct {
	// Text is the chunk content.
	Text string `json:"text"`
	// Score is the similarity score, higher is better.
	Score float64 `json:"score"`
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id"`
	// OwnerScope is the scope the chunk was stored under.
	OwnerScope string `json:"owner_scope"`
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTopK sets the number of chunks returned per query.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithMinScore sets the similarity threshold below which hits are dropped.
func WithMinScore(score float64) Option {
	return func(r *Retriever) {
		r.minScore = score
	}
}

// Retriever embeds queries and searches the vector store. Every query is
// scoped to company-wide documents plus the requesting employee's own, so
// one employee can never retrieve another's records.
type Retriever struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
	topK     int
	minScore float64
}

// New creates a retriever over the given embedder and vector store.
func New(emb embedder.Embedder, store vectorstore.VectorStore, opts ...Option) (*Retriever, error) {
	if emb == nil {
		return nil, errors.New("retriever requires an embedder")
	}
	if store == nil {
		return nil, errors.New("retriever requires a vector store")
	}
	r := &Retriever{embedder: emb, store: store, topK: defaultTopK}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Retrieve returns the chunks most relevant to the query that the employee
// is allowed to see.
func (r *Retriever) Retrieve(ctx context.Context, query, employeeID string) ([]RetrievedChunk, error) {
	if employeeID == "" {
		return nil, errors.New("employee ID cannot be empty")
	}
	vector, err := r.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	result, err := r.store.Search(ctx, &vectorstore.Query{
		Vector:      vector,
		Limit:       r.topK,
		OwnerScopes: []string{document.ScopeCompany, employeeID},
		MinScore:    r.minScore,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	chunks := make([]RetrievedChunk, 0, len(result.Documents))
	for _, sd := range result.Documents {
		chunks = append(chunks, RetrievedChunk{
			Text:       sd.Document.Content,
			Score:      sd.Score,
			DocumentID: sd.Document.ID,
			OwnerScope: sd.Document.OwnerScope,
		})
	}
	log.Debugf("retrieved %d chunks for employee %s", len(chunks), employeeID)
	return chunks, nil
}
