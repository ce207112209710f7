//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package openai provides an OpenAI-compatible embedder implementation.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultModel      = "text-embedding-3-small"
	defaultDimensions = 1536
)

// Option configures the embedder.
type Option func(*Embedder)

// WithModel sets the embedding model name.
func WithModel(model string) Option {
	return func(e *Embedder) {
		e.model = model
	}
}

// WithDimensions sets the requested embedding dimensionality.
func WithDimensions(dimensions int) Option {
	return func(e *Embedder) {
		e.dimensions = dimensions
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(e *Embedder) {
		e.apiKey = key
	}
}

// WithBaseURL sets a custom API endpoint, for OpenAI-compatible providers.
func WithBaseURL(url string) Option {
	return func(e *Embedder) {
		e.baseURL = url
	}
}

// Embedder generates embeddings through the OpenAI embeddings API.
type Embedder struct {
	client     openai.Client
	model      string
	dimensions int
	apiKey     string
	baseURL    string
}

// New creates an OpenAI embedder.
func New(opts ...Option) *Embedder {
	e := &Embedder{
		model:      defaultModel,
		dimensions: defaultDimensions,
	}
	for _, opt := range opts {
		opt(e)
	}
	var clientOpts []option.RequestOption
	if e.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(e.apiKey))
	}
	if e.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(e.baseURL))
	}
	e.client = openai.NewClient(clientOpts...)
	return e
}

// GetEmbedding generates an embedding vector for the given text.
func (e *Embedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("text cannot be empty")
	}
	request := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		request.Dimensions = openai.Int(int64(e.dimensions))
	}
	response, err := e.client.Embeddings.New(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, errors.New("embedding response contains no data")
	}
	return response.Data[0].Embedding, nil
}

// GetDimensions returns the dimensionality of produced embeddings.
func (e *Embedder) GetDimensions() int {
	return e.dimensions
}
