package rag

import "errors"

// Error taxonomy surfaced to the HTTP layer. Collaborator failures are
// wrapped into one of these before they leave the pipeline.
var (
	ErrValidation       = errors.New("invalid input")
	ErrExtraction       = errors.New("could not extract text from document")
	ErrEmbedding        = errors.New("embedding provider failed")
	ErrStore            = errors.New("vector store rejected the request")
	ErrStoreUnavailable = errors.New("vector store unavailable")
	ErrNotFound         = errors.New("collection not found")
)
