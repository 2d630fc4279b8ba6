package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ObjectStore is the read-only origin of document content. Ingestion only
// ever fetches by (bucket, key).
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// FSStore serves objects from the local filesystem: a bucket is a directory
// under Root and a key is a path inside it. This is the backing store for
// directory-watch ingestion.
type FSStore struct {
	Root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{Root: root}
}

func (s *FSStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	path := filepath.Join(s.Root, bucket, key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}
