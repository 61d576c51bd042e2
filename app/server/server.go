package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"DocChatAI/app/rag"
)

// Pipeline is the document-to-answer pipeline the router drives.
type Pipeline interface {
	Ingest(ctx context.Context, data []byte, filename string) (*rag.IngestResult, error)
	Answer(ctx context.Context, collectionID, question string) (*rag.Answer, error)
	CollectionInfo(ctx context.Context, collectionID string) (*rag.CollectionInfo, error)
	SessionsTree(ctx context.Context) (string, error)
}

type Server struct {
	pipeline       Pipeline
	validate       *validator.Validate
	maxUploadBytes int64
}

func NewServer(pipeline Pipeline, maxUploadMB int64) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &Server{
		pipeline:       pipeline,
		validate:       validator.New(),
		maxUploadBytes: maxUploadMB << 20,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /collection/{id}", s.handleCollection)
	mux.HandleFunc("GET /collections", s.handleSessions)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "service is running"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse upload form")
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided in field 'document'")
		return
	}
	defer file.Close()

	if !isPDFUpload(header.Filename, header.Header.Get("Content-Type")) {
		writeError(w, http.StatusBadRequest, "only PDF documents are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	result, err := s.pipeline.Ingest(r.Context(), data, header.Filename)
	if err != nil {
		log.Printf("⚠️ Upload of %q failed: %v", header.Filename, err)
		writeError(w, uploadStatus(err), publicMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:      true,
		Message:      fmt.Sprintf("Document %q processed successfully", header.Filename),
		CollectionID: result.CollectionID,
		ChunksCount:  result.ChunkCount,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "question and collectionId are required")
		return
	}

	// Resolve the answer before committing to an SSE response, so a
	// missing collection is a plain 400, never a half-open stream.
	answer, err := s.pipeline.Answer(r.Context(), req.CollectionID, req.Question)
	if err != nil {
		if errors.Is(err, rag.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "No document loaded. Please upload a document first.")
			return
		}
		log.Printf("⚠️ Chat failed for collection %s: %v", req.CollectionID, err)
		writeError(w, chatStatus(err), publicMessage(err))
		return
	}

	s.streamAnswer(w, r, answer)
}

func (s *Server) streamAnswer(w http.ResponseWriter, r *http.Request, answer *rag.Answer) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)

	send := func(ev sseEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}

	send(sseEvent{Type: "start"})

	if answer.Canned != "" {
		send(sseEvent{Type: "answer", Answer: answer.Canned, Sources: answer.Sources})
		send(sseEvent{Type: "end"})
		return
	}

	for delta := range answer.Deltas {
		if delta.Err != nil {
			log.Printf("⚠️ Answer stream aborted: %v", delta.Err)
			send(sseEvent{Type: "error", Error: "the answer was interrupted"})
			return
		}
		select {
		case <-r.Context().Done():
			return
		default:
		}
		send(sseEvent{Type: "answer", Answer: delta.Content, Sources: answer.Sources})
	}
	send(sseEvent{Type: "end"})
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	info, err := s.pipeline.CollectionInfo(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, rag.ErrNotFound) {
			writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, publicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, collectionResponse{
		CollectionID:  info.CollectionID,
		DocumentCount: info.DocumentCount,
		Status:        info.Status,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	tree, err := s.pipeline.SessionsTree(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, publicMessage(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, tree)
}

func isPDFUpload(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}

func uploadStatus(err error) int {
	switch {
	case errors.Is(err, rag.ErrValidation), errors.Is(err, rag.ErrExtraction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func chatStatus(err error) int {
	if errors.Is(err, rag.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// publicMessage maps pipeline errors to the stable, user-facing message
// for their category so internal detail never crosses the wire.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, rag.ErrValidation):
		// Validation messages are built by the pipeline itself and are
		// safe to show as-is.
		return err.Error()
	case errors.Is(err, rag.ErrExtraction):
		return "could not read the uploaded PDF"
	case errors.Is(err, rag.ErrEmbedding):
		return "embedding provider failed"
	case errors.Is(err, rag.ErrStoreUnavailable):
		return "vector store is unavailable, try again later"
	case errors.Is(err, rag.ErrStore):
		return "vector store rejected the request"
	default:
		return "internal processing error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
