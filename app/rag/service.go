package rag

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"DocChatAI/app/models"
	"DocChatAI/app/storage"
	"DocChatAI/app/utils"
)

// CannedNoContext is returned when retrieval finds nothing; the model
// is not called in that case.
const CannedNoContext = "I couldn't find relevant information in the document to answer your question."

const sourcePreviewLimit = 200

type Service struct {
	extractor extractor
	model     models.Interface
	store     vectorStore
	registry  *Registry
	uploads   storage.Interface
	chunker   *Chunker
	topK      int
}

func NewService(ext extractor, model models.Interface, store vectorStore,
	uploads storage.Interface, chunker *Chunker, topK int) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{
		extractor: ext,
		model:     model,
		store:     store,
		registry:  NewRegistry(),
		uploads:   uploads,
		chunker:   chunker,
		topK:      topK,
	}
}

// Ingest runs the upload pipeline: extract, chunk, embed, create a
// fresh collection, insert. The collection is registered only after
// every segment is in the store, so chat either sees "not found" or a
// fully populated collection, never a partial one.
func (s *Service) Ingest(ctx context.Context, data []byte, filename string) (*IngestResult, error) {
	text, err := s.extractor.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document contains no extractable text", ErrValidation)
	}

	segments := s.chunker.Chunk(text)
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	vectors, err := s.model.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	collectionID := uuid.New().String()
	handle, err := s.store.EnsureCollection(ctx, collectionID, len(vectors[0]))
	if err != nil {
		return nil, err
	}

	docs := make([]VectorDoc, len(segments))
	for i, seg := range segments {
		docs[i] = VectorDoc{
			ID:      uuid.New().String(),
			Content: seg.Text,
			Metadata: map[string]any{
				"source": filename,
				"chunk":  strconv.Itoa(i),
				"offset": strconv.Itoa(seg.StartOffset),
			},
			Vector: vectors[i],
		}
	}
	if err = handle.Upsert(ctx, docs); err != nil {
		return nil, err
	}

	if err = s.uploads.SaveUpload(ctx, storage.Upload{
		CollectionID: collectionID,
		Filename:     filename,
		ChunkCount:   len(segments),
		CreatedAt:    time.Now(),
	}); err != nil {
		log.Printf("⚠️ Error recording upload %s: %v", collectionID, err)
	}

	s.registry.Register(collectionID, handle)
	log.Printf("📄 Ingested %q as collection %s (%d chunks)", filename, collectionID, len(segments))

	return &IngestResult{CollectionID: collectionID, ChunkCount: len(segments)}, nil
}

// Answer resolves the collection strictly by the supplied id, retrieves
// the nearest segments and streams a grounded completion. With zero
// retrieved segments it returns a canned answer and never calls the
// model.
func (s *Service) Answer(ctx context.Context, collectionID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}

	handle, ok := s.registry.Lookup(collectionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, collectionID)
	}

	queryVec, err := s.model.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	docs, err := handle.Query(ctx, queryVec, s.topK)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return &Answer{Canned: CannedNoContext, Sources: []Source{}}, nil
	}

	contexts := make([]string, len(docs))
	sources := make([]Source, len(docs))
	for i, d := range docs {
		contexts[i] = d.Content
		sources[i] = Source{
			Content:  utils.Truncate(d.Content, sourcePreviewLimit),
			Metadata: d.Metadata,
		}
	}

	deltas, err := s.model.StreamChat(ctx, models.BuildAnswerMessages(question, contexts))
	if err != nil {
		return nil, fmt.Errorf("completion provider: %w", err)
	}
	return &Answer{Deltas: deltas, Sources: sources}, nil
}

// CollectionInfo reports the state of one collection. The document
// count comes from the vector store when the collection is registered,
// falling back to the upload ledger when the store cannot answer.
func (s *Service) CollectionInfo(ctx context.Context, collectionID string) (*CollectionInfo, error) {
	handle, registered := s.registry.Lookup(collectionID)
	record, err := s.uploads.GetUpload(ctx, collectionID)
	if err != nil {
		log.Printf("⚠️ Error reading upload ledger for %s: %v", collectionID, err)
	}
	if !registered && record == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, collectionID)
	}

	info := &CollectionInfo{CollectionID: collectionID, Status: "ready"}
	if !registered {
		info.Status = "not_ready"
		info.DocumentCount = uint64(record.ChunkCount)
		return info, nil
	}

	count, err := handle.Count(ctx)
	if err != nil {
		log.Printf("⚠️ Count unavailable for %s, using ledger: %v", collectionID, err)
		if record != nil {
			count = uint64(record.ChunkCount)
		}
	}
	info.DocumentCount = count
	return info, nil
}

// Rehydrate re-registers collections recorded in the upload ledger that
// still exist in the vector store, so chat keeps working across process
// restarts.
func (s *Service) Rehydrate(ctx context.Context) error {
	records, err := s.uploads.ListUploads(ctx)
	if err != nil {
		return fmt.Errorf("rehydrate sessions: %w", err)
	}
	for _, rec := range records {
		exists, err := s.store.HasCollection(ctx, rec.CollectionID)
		if err != nil {
			log.Printf("⚠️ Skipping session %s: %v", rec.CollectionID, err)
			continue
		}
		if !exists {
			log.Printf("⚠️ Collection %s recorded but missing from the store, skipping", rec.CollectionID)
			continue
		}
		handle, err := s.store.EnsureCollection(ctx, rec.CollectionID, 0)
		if err != nil {
			log.Printf("⚠️ Skipping session %s: %v", rec.CollectionID, err)
			continue
		}
		s.registry.Register(rec.CollectionID, handle)
	}
	if n := s.registry.Len(); n > 0 {
		log.Printf("🔁 Rehydrated %d document session(s)", n)
	}
	return nil
}

// SessionsTree renders registered sessions and their upload records as
// a text tree for the diagnostics endpoint.
func (s *Service) SessionsTree(ctx context.Context) (string, error) {
	records, err := s.uploads.ListUploads(ctx)
	if err != nil {
		return "", fmt.Errorf("list sessions: %w", err)
	}
	registered := make(map[string]bool, s.registry.Len())
	for _, id := range s.registry.IDs() {
		registered[id] = true
	}
	return utils.BuildSessionTree(records, registered), nil
}
