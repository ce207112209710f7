//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package ingest loads documents into the knowledge base, embedding them
// concurrently through a bounded worker pool.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/insighthr/hragent/knowledge/document"
	"github.com/insighthr/hragent/knowledge/embedder"
	"github.com/insighthr/hragent/knowledge/vectorstore"
	"github.com/insighthr/hragent/log"
)

const defaultWorkers = 8

// Option configures an Ingester.
type Option func(*Ingester)

// WithWorkers sets the embedding concurrency.
func WithWorkers(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.workers = n
		}
	}
}

// Ingester embeds documents and stores them in the vector store.
type Ingester struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
	workers  int
}

// New creates an ingester over the given embedder and vector store.
func New(emb embedder.Embedder, store vectorstore.VectorStore, opts ...Option) (*Ingester, error) {
	if emb == nil {
		return nil, errors.New("ingester requires an embedder")
	}
	if store == nil {
		return nil, errors.New("ingester requires a vector store")
	}
	i := &Ingester{embedder: emb, store: store, workers: defaultWorkers}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Ingest embeds and stores the documents. Documents are processed
// concurrently; the first failure is returned after all workers finish, and
// successfully processed documents stay stored.
func (i *Ingester) Ingest(ctx context.Context, docs []*document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	pool, err := ants.NewPool(i.workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	for _, doc := range docs {
		doc := doc
		if doc.IsEmpty() {
			setErr(fmt.Errorf("document %s has no content", doc.ID))
			continue
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			vector, err := i.embedder.GetEmbedding(ctx, doc.Content)
			if err != nil {
				setErr(fmt.Errorf("embed document %s: %w", doc.ID, err))
				return
			}
			if err := i.store.Add(ctx, doc, vector); err != nil {
				setErr(fmt.Errorf("store document %s: %w", doc.ID, err))
			}
		}); err != nil {
			wg.Done()
			setErr(fmt.Errorf("submit document %s: %w", doc.ID, err))
		}
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	log.Infof("ingested %d documents", len(docs))
	return nil
}
