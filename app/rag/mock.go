package rag

import (
	"context"

	"github.com/stretchr/testify/mock"

	"DocChatAI/app/models"
	"DocChatAI/app/storage"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(data []byte) (string, error) {
	args := m.Called(data)
	return args.String(0), args.Error(1)
}

type MockModel struct {
	mock.Mock
}

func (m *MockModel) EmbedTexts(ctx context.Context, inputs []string) ([][]float32, error) {
	args := m.Called(ctx, inputs)
	var out [][]float32
	if v := args.Get(0); v != nil {
		out = v.([][]float32)
	}
	return out, args.Error(1)
}

func (m *MockModel) EmbedText(ctx context.Context, input string) ([]float32, error) {
	args := m.Called(ctx, input)
	var out []float32
	if v := args.Get(0); v != nil {
		out = v.([]float32)
	}
	return out, args.Error(1)
}

func (m *MockModel) StreamChat(ctx context.Context, messages []models.Message) (<-chan models.Delta, error) {
	args := m.Called(ctx, messages)
	var out <-chan models.Delta
	if v := args.Get(0); v != nil {
		out = v.(<-chan models.Delta)
	}
	return out, args.Error(1)
}

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) EnsureCollection(ctx context.Context, name string, vectorSize int) (collection, error) {
	args := m.Called(ctx, name, vectorSize)
	var out collection
	if v := args.Get(0); v != nil {
		out = v.(collection)
	}
	return out, args.Error(1)
}

func (m *MockVectorStore) HasCollection(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

type MockCollection struct {
	mock.Mock
	name string
}

func (m *MockCollection) Name() string { return m.name }

func (m *MockCollection) Upsert(ctx context.Context, docs []VectorDoc) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockCollection) Query(ctx context.Context, vector []float32, k int) ([]VectorDoc, error) {
	args := m.Called(ctx, vector, k)
	var out []VectorDoc
	if v := args.Get(0); v != nil {
		out = v.([]VectorDoc)
	}
	return out, args.Error(1)
}

func (m *MockCollection) Count(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

type MockUploadStore struct {
	mock.Mock
}

func (m *MockUploadStore) SaveUpload(ctx context.Context, upload storage.Upload) error {
	args := m.Called(ctx, upload)
	return args.Error(0)
}

func (m *MockUploadStore) GetUpload(ctx context.Context, collectionID string) (*storage.Upload, error) {
	args := m.Called(ctx, collectionID)
	var out *storage.Upload
	if v := args.Get(0); v != nil {
		out = v.(*storage.Upload)
	}
	return out, args.Error(1)
}

func (m *MockUploadStore) ListUploads(ctx context.Context) ([]storage.Upload, error) {
	args := m.Called(ctx)
	var out []storage.Upload
	if v := args.Get(0); v != nil {
		out = v.([]storage.Upload)
	}
	return out, args.Error(1)
}
