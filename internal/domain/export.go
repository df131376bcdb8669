package domain

import (
	"fmt"
	"strings"
	"time"
)

// ExportFormat selects the target encoding for exported assets.
type ExportFormat string

const (
	FormatOriginal ExportFormat = "original"
	FormatPNG      ExportFormat = "png"
	FormatWebP     ExportFormat = "webp"
	FormatJPEG     ExportFormat = "jpeg"
)

// Valid reports whether the format is one of the supported selectors.
func (f ExportFormat) Valid() bool {
	switch f {
	case FormatOriginal, FormatPNG, FormatWebP, FormatJPEG:
		return true
	}
	return false
}

const (
	DefaultQuality = 90
	MinQuality     = 1
	MaxQuality     = 100
)

// ExportRequest describes one export invocation. Either AssetIDs or
// CollectionID is set; the two resolution paths converge to an id list.
type ExportRequest struct {
	AssetIDs        []string     `json:"asset_ids,omitempty"`
	CollectionID    string       `json:"collection_id,omitempty"`
	Format          ExportFormat `json:"format,omitempty"`
	Quality         int          `json:"quality,omitempty"`
	IncludeMetadata *bool        `json:"include_metadata,omitempty"`
	ZipName         string       `json:"zip_name,omitempty"`
}

// Normalize fills unset fields with their documented defaults.
func (r *ExportRequest) Normalize(now time.Time) {
	if r.Format == "" {
		r.Format = FormatOriginal
	}
	if r.Quality == 0 {
		r.Quality = DefaultQuality
	}
	if r.IncludeMetadata == nil {
		v := true
		r.IncludeMetadata = &v
	}
	if strings.TrimSpace(r.ZipName) == "" {
		r.ZipName = "assets-" + now.UTC().Format("20060102-150405") + ".zip"
	} else if !strings.HasSuffix(strings.ToLower(r.ZipName), ".zip") {
		r.ZipName += ".zip"
	}
}

// Validate rejects malformed requests before any stream bytes are produced.
func (r *ExportRequest) Validate() error {
	if !r.Format.Valid() {
		return fmt.Errorf("format %q: %w", r.Format, ErrUnsupportedFormat)
	}
	if r.Quality < MinQuality || r.Quality > MaxQuality {
		return fmt.Errorf("quality %d out of range %d-%d", r.Quality, MinQuality, MaxQuality)
	}
	if len(r.AssetIDs) > 0 && r.CollectionID != "" {
		return fmt.Errorf("asset_ids and collection_id are mutually exclusive")
	}
	return nil
}

// WithMetadata reports whether a manifest entry should be appended.
func (r *ExportRequest) WithMetadata() bool {
	return r.IncludeMetadata == nil || *r.IncludeMetadata
}

// Manifest is the document written as manifest.json into the archive.
// TotalAssets always equals the number of entries that made it into the
// archive; skipped assets are represented nowhere.
type Manifest struct {
	ExportedAt  time.Time       `json:"exported_at"`
	TotalAssets int             `json:"total_assets"`
	Format      ExportFormat    `json:"format"`
	Assets      []ManifestEntry `json:"assets"`
}

// ManifestEntry is the per-asset metadata snapshot captured at export time.
// FileName/FileSize/MimeType describe the entry as written, after any
// conversion; OriginalFileName preserves the stored name.
type ManifestEntry struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	AssetType        string    `json:"asset_type,omitempty"`
	FileName         string    `json:"file_name"`
	OriginalFileName string    `json:"original_file_name"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	Width            int       `json:"width,omitempty"`
	Height           int       `json:"height,omitempty"`
	Provider         string    `json:"provider,omitempty"`
	Prompt           string    `json:"prompt,omitempty"`
	Params           MetaMap   `json:"params,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Metadata         MetaMap   `json:"metadata,omitempty"`
}

// ExportPreview estimates the scope of an export from stored metadata only.
type ExportPreview struct {
	TotalAssets int            `json:"total_assets"`
	TotalSize   int64          `json:"total_size"`
	AssetTypes  map[string]int `json:"asset_types"`
	Assets      []AssetSummary `json:"assets"`
}

// AssetSummary is the per-asset line of an export preview.
type AssetSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AssetType string `json:"asset_type"`
	FileSize  int64  `json:"file_size"`
}
