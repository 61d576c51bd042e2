package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"DocChatAI/app/models"
	"DocChatAI/app/storage"
)

type serviceFixture struct {
	extractor *MockExtractor
	model     *MockModel
	store     *MockVectorStore
	uploads   *MockUploadStore
	service   *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	chunker, err := NewChunker(1000, 200)
	require.NoError(t, err)

	f := &serviceFixture{
		extractor: &MockExtractor{},
		model:     &MockModel{},
		store:     &MockVectorStore{},
		uploads:   &MockUploadStore{},
	}
	f.service = NewService(f.extractor, f.model, f.store, f.uploads, chunker, 5)
	return f
}

func TestIngestHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	handle := &MockCollection{}

	f.extractor.On("Extract", mock.Anything).Return("The sky is blue.", nil)
	f.model.On("EmbedTexts", ctx, []string{"The sky is blue."}).Return([][]float32{{0.1, 0.2}}, nil)
	f.store.On("EnsureCollection", ctx, mock.Anything, 2).Return(handle, nil)
	handle.On("Upsert", ctx, mock.Anything).Return(nil)
	f.uploads.On("SaveUpload", ctx, mock.Anything).Return(nil)

	res, err := f.service.Ingest(ctx, []byte("%PDF-fake"), "sky.pdf")
	require.NoError(t, err)
	require.Equal(t, 1, res.ChunkCount)
	require.NotEmpty(t, res.CollectionID)

	_, ok := f.service.registry.Lookup(res.CollectionID)
	require.True(t, ok, "collection must be registered after ingest")

	docs := handle.Calls[0].Arguments.Get(1).([]VectorDoc)
	require.Len(t, docs, 1)
	require.Equal(t, "The sky is blue.", docs[0].Content)
	require.Equal(t, "sky.pdf", docs[0].Metadata["source"])
}

func TestIngestExtractionFailureRegistersNothing(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	f.extractor.On("Extract", mock.Anything).Return("", errors.New("bad pdf"))

	_, err := f.service.Ingest(ctx, []byte("not a pdf"), "junk.bin")
	require.ErrorIs(t, err, ErrExtraction)
	require.Zero(t, f.service.registry.Len())
	f.model.AssertNotCalled(t, "EmbedTexts", mock.Anything, mock.Anything)
}

func TestIngestEmptyTextIsValidationError(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything).Return("   \n ", nil)

	_, err := f.service.Ingest(context.Background(), []byte("%PDF-fake"), "blank.pdf")
	require.ErrorIs(t, err, ErrValidation)
	require.Zero(t, f.service.registry.Len())
}

func TestIngestUpsertFailureRegistersNothing(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	handle := &MockCollection{}

	f.extractor.On("Extract", mock.Anything).Return("some text", nil)
	f.model.On("EmbedTexts", ctx, mock.Anything).Return([][]float32{{1}}, nil)
	f.store.On("EnsureCollection", ctx, mock.Anything, 1).Return(handle, nil)
	handle.On("Upsert", ctx, mock.Anything).Return(ErrStoreUnavailable)

	_, err := f.service.Ingest(ctx, []byte("%PDF-fake"), "doc.pdf")
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Zero(t, f.service.registry.Len())
	f.uploads.AssertNotCalled(t, "SaveUpload", mock.Anything, mock.Anything)
}

func TestAnswerUnknownCollection(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Answer(context.Background(), "missing-id", "anything?")
	require.ErrorIs(t, err, ErrNotFound)
	f.model.AssertNotCalled(t, "EmbedText", mock.Anything, mock.Anything)
}

func TestAnswerEmptyQuestion(t *testing.T) {
	f := newServiceFixture(t)
	f.service.registry.Register("col", &MockCollection{})

	_, err := f.service.Answer(context.Background(), "col", "   ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAnswerZeroNeighborsIsCannedWithoutModelCall(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	handle := &MockCollection{}
	f.service.registry.Register("col", handle)

	f.model.On("EmbedText", ctx, "anything?").Return([]float32{1, 2}, nil)
	handle.On("Query", ctx, []float32{1, 2}, 5).Return(nil, nil)

	ans, err := f.service.Answer(ctx, "col", "anything?")
	require.NoError(t, err)
	require.Equal(t, CannedNoContext, ans.Canned)
	require.Nil(t, ans.Deltas)
	require.Empty(t, ans.Sources)
	f.model.AssertNotCalled(t, "StreamChat", mock.Anything, mock.Anything)
}

func TestAnswerStreamsWithTruncatedSources(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	handle := &MockCollection{}
	f.service.registry.Register("col", handle)

	long := strings.Repeat("x", 300)
	deltas := make(chan models.Delta, 2)
	deltas <- models.Delta{Content: "The sky "}
	deltas <- models.Delta{Content: "is blue."}
	close(deltas)

	f.model.On("EmbedText", ctx, "What color is the sky?").Return([]float32{1}, nil)
	handle.On("Query", ctx, []float32{1}, 5).Return([]VectorDoc{
		{Content: long, Metadata: map[string]any{"chunk": "0"}},
		{Content: "short", Metadata: map[string]any{"chunk": "1"}},
	}, nil)
	f.model.On("StreamChat", ctx, mock.Anything).Return((<-chan models.Delta)(deltas), nil)

	ans, err := f.service.Answer(ctx, "col", "What color is the sky?")
	require.NoError(t, err)
	require.Empty(t, ans.Canned)
	require.Len(t, ans.Sources, 2)
	require.Equal(t, strings.Repeat("x", 200)+"...", ans.Sources[0].Content)
	require.Equal(t, "short", ans.Sources[1].Content)

	var answer string
	for d := range ans.Deltas {
		require.NoError(t, d.Err)
		answer += d.Content
	}
	require.Equal(t, "The sky is blue.", answer)

	// The grounded prompt must carry the retrieved text and question.
	messages := f.model.Calls[1].Arguments.Get(1).([]models.Message)
	require.Len(t, messages, 2)
	require.Contains(t, messages[1].Content, "short")
	require.Contains(t, messages[1].Content, "What color is the sky?")
}

func TestAnswerQueriesOnlyOwnCollection(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	mine := &MockCollection{name: "mine"}
	other := &MockCollection{name: "other"}
	f.service.registry.Register("mine", mine)
	f.service.registry.Register("other", other)

	f.model.On("EmbedText", ctx, mock.Anything).Return([]float32{1}, nil)
	mine.On("Query", ctx, mock.Anything, 5).Return(nil, nil)

	_, err := f.service.Answer(ctx, "mine", "q?")
	require.NoError(t, err)
	other.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestCollectionInfoRegistered(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	handle := &MockCollection{}
	f.service.registry.Register("col", handle)

	f.uploads.On("GetUpload", ctx, "col").Return(&storage.Upload{CollectionID: "col", ChunkCount: 3}, nil)
	handle.On("Count", ctx).Return(uint64(3), nil)

	info, err := f.service.CollectionInfo(ctx, "col")
	require.NoError(t, err)
	require.Equal(t, uint64(3), info.DocumentCount)
	require.Equal(t, "ready", info.Status)
}

func TestCollectionInfoCountFallsBackToLedger(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	handle := &MockCollection{}
	f.service.registry.Register("col", handle)

	f.uploads.On("GetUpload", ctx, "col").Return(&storage.Upload{CollectionID: "col", ChunkCount: 9}, nil)
	handle.On("Count", ctx).Return(uint64(0), ErrStoreUnavailable)

	info, err := f.service.CollectionInfo(ctx, "col")
	require.NoError(t, err)
	require.Equal(t, uint64(9), info.DocumentCount)
}

func TestCollectionInfoUnknown(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.uploads.On("GetUpload", ctx, "nope").Return(nil, nil)

	_, err := f.service.CollectionInfo(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRehydrateSkipsMissingCollections(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	handle := &MockCollection{}

	f.uploads.On("ListUploads", ctx).Return([]storage.Upload{
		{CollectionID: "kept", ChunkCount: 2},
		{CollectionID: "gone", ChunkCount: 4},
	}, nil)
	f.store.On("HasCollection", ctx, "kept").Return(true, nil)
	f.store.On("HasCollection", ctx, "gone").Return(false, nil)
	f.store.On("EnsureCollection", ctx, "kept", 0).Return(handle, nil)

	require.NoError(t, f.service.Rehydrate(ctx))
	_, kept := f.service.registry.Lookup("kept")
	_, gone := f.service.registry.Lookup("gone")
	require.True(t, kept)
	require.False(t, gone)
}
