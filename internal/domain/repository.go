package domain

import "context"

// AssetRepository is the metadata gateway to the asset store. Read
// operations never mutate state.
type AssetRepository interface {
	// GetByIDs returns only the assets that exist; missing ids are
	// silently omitted.
	GetByIDs(ctx context.Context, ids []string) ([]Asset, error)
	GetByID(ctx context.Context, id string) (*Asset, error)
	GetCollection(ctx context.Context, id string) (*Collection, error)
	// SelectForCleanup returns assets matching every supplied criteria
	// filter; absent filters are wildcards.
	SelectForCleanup(ctx context.Context, criteria CleanupCriteria) ([]Asset, error)
	// Delete removes the metadata record. Callers must remove the blob
	// first so a crash leaves a re-sweepable record, not an orphan blob.
	Delete(ctx context.Context, id string) error
}

// BlobStore provides access to stored asset bytes by key.
type BlobStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
