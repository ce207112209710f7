//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package inmemory provides an in-memory vector store using cosine
// similarity.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/insighthr/hragent/knowledge/document"
	"github.com/insighthr/hragent/knowledge/vectorstore"
)

type entry struct {
	doc       *document.Document
	embedding []float64
	seq       int64
}

// VectorStore is an in-memory implementation of vectorstore.VectorStore.
type VectorStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq int64
}

// New creates an empty in-memory vector store.
func New() *VectorStore {
	return &VectorStore{entries: make(map[string]*entry)}
}

// Add stores a document with its embedding. Re-adding an ID replaces the
// stored document but keeps its original insertion order.
func (vs *VectorStore) Add(_ context.Context, doc *document.Document, embedding []float64) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document requires an ID")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("document %s: embedding cannot be empty", doc.ID)
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()
	seq := vs.nextSeq
	if existing, ok := vs.entries[doc.ID]; ok {
		seq = existing.seq
	} else {
		vs.nextSeq++
	}
	vs.entries[doc.ID] = &entry{doc: doc.Clone(), embedding: embedding, seq: seq}
	return nil
}

// Search returns the documents most similar to the query vector, restricted
// to the query's owner scopes. Equal scores are broken by insertion order,
// so results are deterministic.
func (vs *VectorStore) Search(_ context.Context, query *vectorstore.Query) (*vectorstore.Result, error) {
	if query == nil || len(query.Vector) == 0 {
		return nil, errors.New("query requires a vector")
	}
	scopes := make(map[string]bool, len(query.OwnerScopes))
	for _, s := range query.OwnerScopes {
		scopes[s] = true
	}

	vs.mu.RLock()
	type scored struct {
		doc   *document.Document
		score float64
		seq   int64
	}
	candidates := make([]scored, 0, len(vs.entries))
	for _, e := range vs.entries {
		if !scopes[e.doc.OwnerScope] {
			continue
		}
		score := cosineSimilarity(query.Vector, e.embedding)
		if score < query.MinScore {
			continue
		}
		candidates = append(candidates, scored{doc: e.doc, score: score, seq: e.seq})
	}
	vs.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})
	limit := query.Limit
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	result := &vectorstore.Result{Documents: make([]*vectorstore.ScoredDocument, 0, limit)}
	for _, c := range candidates[:limit] {
		result.Documents = append(result.Documents, &vectorstore.ScoredDocument{
			Document: c.doc.Clone(),
			Score:    c.score,
		})
	}
	return result, nil
}

// Delete removes a document by ID.
func (vs *VectorStore) Delete(_ context.Context, id string) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if _, ok := vs.entries[id]; !ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrDocumentNotFound, id)
	}
	delete(vs.entries, id)
	return nil
}

// Count returns the number of stored documents.
func (vs *VectorStore) Count(_ context.Context) (int, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.entries), nil
}

// Close releases resources. It is a no-op for the in-memory store.
func (vs *VectorStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
