package storage

import (
	"context"
	"time"
)

type Interface interface {
	SaveUpload(ctx context.Context, upload Upload) error
	GetUpload(ctx context.Context, collectionID string) (*Upload, error)
	ListUploads(ctx context.Context) ([]Upload, error)
}

// Upload is the durable record of one ingested document. Chat turns are
// never persisted; this ledger only carries what the collection-info
// endpoint and startup rehydration need.
type Upload struct {
	CollectionID string    `json:"collection_id" db:"collection_id"`
	Filename     string    `json:"filename" db:"filename"`
	ChunkCount   int       `json:"chunk_count" db:"chunk_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
