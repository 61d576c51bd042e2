package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteUploadStorage struct {
	db *sql.DB
}

func resolveDBPath(path string) string {
	if path == "" {
		path = os.Getenv("DB_PATH")
	}
	if path == "" {
		projectDir, err := os.Getwd()
		if err != nil {
			log.Fatalf("❌ Error getting project directory: %v", err)
		}
		path = filepath.Join(projectDir, "data", "uploads.db")
		log.Printf("📂 DB_PATH not set, using default: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("❌ Error creating data directory: %v", err)
	}
	return path
}

func NewSQLiteStorage(path string) *SQLiteUploadStorage {
	dbPath := resolveDBPath(path)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("❌ Error opening SQLite DB at %s: %v", dbPath, err)
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS uploads (
            collection_id TEXT NOT NULL PRIMARY KEY,
            filename TEXT NOT NULL,
            chunk_count INTEGER NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );
    `)
	if err != nil {
		log.Fatalf("❌ Error creating table: %v", err)
	}

	return &SQLiteUploadStorage{db: db}
}

func (s *SQLiteUploadStorage) SaveUpload(ctx context.Context, upload Upload) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (collection_id, filename, chunk_count, created_at)
		 VALUES (?, ?, ?, datetime(?))
		 ON CONFLICT(collection_id) DO UPDATE SET
		   filename = excluded.filename,
		   chunk_count = excluded.chunk_count,
		   created_at = excluded.created_at`,
		upload.CollectionID, upload.Filename, upload.ChunkCount, upload.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		log.Printf("⚠️ Error saving upload %s: %v", upload.CollectionID, err)
		return err
	}
	return nil
}

func (s *SQLiteUploadStorage) GetUpload(ctx context.Context, collectionID string) (*Upload, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT collection_id, filename, chunk_count, created_at FROM uploads WHERE collection_id = ?`,
		collectionID,
	)
	var u Upload
	var created string
	if err := row.Scan(&u.CollectionID, &u.Filename, &u.ChunkCount, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get upload %s: %w", collectionID, err)
	}
	u.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
	return &u, nil
}

func (s *SQLiteUploadStorage) ListUploads(ctx context.Context) ([]Upload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT collection_id, filename, chunk_count, created_at FROM uploads ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		var created string
		if err := rows.Scan(&u.CollectionID, &u.Filename, &u.ChunkCount, &created); err != nil {
			return nil, err
		}
		u.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

func (s *SQLiteUploadStorage) Close() error {
	return s.db.Close()
}
