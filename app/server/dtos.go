package server

import "DocChatAI/app/rag"

type chatRequest struct {
	Question     string `json:"question" validate:"required"`
	CollectionID string `json:"collectionId" validate:"required"`
}

type uploadResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CollectionID string `json:"collectionId"`
	ChunksCount  int    `json:"chunksCount"`
}

type collectionResponse struct {
	CollectionID  string `json:"collectionId"`
	DocumentCount uint64 `json:"documentCount"`
	Status        string `json:"status"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// sseEvent is the JSON payload of one "data:" frame. Type is one of
// start, answer, error, end.
type sseEvent struct {
	Type    string       `json:"type"`
	Answer  string       `json:"answer,omitempty"`
	Sources []rag.Source `json:"sources,omitempty"`
	Error   string       `json:"error,omitempty"`
}
