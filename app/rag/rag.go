package rag

import (
	"context"

	"DocChatAI/app/models"
)

// VectorDoc is one embedded segment as stored in and returned by the
// vector store.
type VectorDoc struct {
	ID       string
	Content  string
	Metadata map[string]any
	Vector   []float32
	Score    float32
}

// Source is a retrieved segment as shown to the chat caller.
type Source struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Answer is the result of a chat turn. Either Canned is set and Deltas
// is nil, or Deltas streams the model output. Sources accompany both.
// The deltas channel is forward-only: it closes when the answer is
// complete; a final delta with Err != nil means the answer was aborted.
type Answer struct {
	Deltas  <-chan models.Delta
	Sources []Source
	Canned  string
}

// CollectionInfo describes one uploaded document's collection.
type CollectionInfo struct {
	CollectionID  string
	DocumentCount uint64
	Status        string
}

// IngestResult is returned after a successful upload.
type IngestResult struct {
	CollectionID string
	ChunkCount   int
}

type extractor interface {
	Extract(data []byte) (string, error)
}

type vectorStore interface {
	EnsureCollection(ctx context.Context, name string, vectorSize int) (collection, error)
	HasCollection(ctx context.Context, name string) (bool, error)
}

type collection interface {
	Name() string
	Upsert(ctx context.Context, docs []VectorDoc) error
	Query(ctx context.Context, vector []float32, k int) ([]VectorDoc, error)
	Count(ctx context.Context) (uint64, error)
}
