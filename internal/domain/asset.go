package domain

import "time"

// AssetStatus tracks the lifecycle state of a stored asset.
type AssetStatus string

const (
	AssetStatusActive   AssetStatus = "active"
	AssetStatusFailed   AssetStatus = "failed"
	AssetStatusArchived AssetStatus = "archived"
)

// Asset is one stored image together with its metadata record. The record
// lives in the metadata store; the bytes live in the blob store under FileRef.
type Asset struct {
	ID               string
	Name             string
	Description      string
	AssetType        string
	FileRef          string
	OriginalFileName string
	FileSize         int64
	MimeType         string
	Width            int
	Height           int
	Provider         string
	Prompt           string
	Params           MetaMap
	Tags             []string
	Status           AssetStatus
	WorldID          string
	Metadata         MetaMap
	CreatedAt        time.Time
}

// Collection groups assets. AssetIDs order defines export order.
type Collection struct {
	ID       string
	Name     string
	AssetIDs []string
}
