// Package export implements the asset export and retention pipeline: zip
// archive streaming with optional re-encoding, single-file downloads, export
// previews, and the cleanup sweep.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"pixvault/internal/domain"
	"pixvault/internal/imaging"
	zipstream "pixvault/pkg/zip"
)

// Service orchestrates exports and cleanups over the metadata gateway and
// the blob store. Per-asset work within one invocation runs sequentially in
// resolution order so manifest ordering is deterministic and at most one
// asset's bytes are held in memory at a time.
type Service struct {
	repo   domain.AssetRepository
	blobs  domain.BlobStore
	logger zerolog.Logger
}

// NewService constructs the export orchestrator.
func NewService(repo domain.AssetRepository, blobs domain.BlobStore, logger zerolog.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

// Report records the per-item outcome of one export run. Skips never fail
// the operation; they only shrink the archive and the manifest together.
type Report struct {
	Exported []domain.ManifestEntry
	Skipped  []Skip
}

// Skip explains why one asset was left out of the archive.
type Skip struct {
	AssetID string
	Reason  string
}

// AssetFile is a single downloadable asset after optional conversion.
type AssetFile struct {
	Data     []byte
	FileName string
	MimeType string
}

// ExportAssets resolves the request to an ordered asset list and streams a
// compressed archive into sink. Validation errors surface before any byte is
// written. Per-asset read/convert failures become skip records; a sink
// failure aborts immediately with domain.ErrSinkFailure.
func (s *Service) ExportAssets(ctx context.Context, req domain.ExportRequest, sink io.Writer) (*Report, error) {
	req.Normalize(time.Now())
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids := req.AssetIDs
	if req.CollectionID != "" {
		col, err := s.repo.GetCollection(ctx, req.CollectionID)
		if err != nil {
			return nil, err
		}
		ids = col.AssetIDs
	}
	if len(ids) == 0 {
		return nil, domain.ErrEmptyResult
	}

	assets, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve assets: %w", err)
	}
	ordered := orderByRequest(ids, assets)
	if len(ordered) == 0 {
		return nil, domain.ErrEmptyResult
	}

	archive := zipstream.NewWriter(sink)
	manifest := domain.Manifest{
		ExportedAt: time.Now().UTC(),
		Format:     req.Format,
	}
	report := &Report{}
	names := newNameSet()

	for _, asset := range ordered {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entry, data, err := s.buildEntry(ctx, asset, req)
		if err != nil {
			s.logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("export: asset skipped")
			report.Skipped = append(report.Skipped, Skip{AssetID: asset.ID, Reason: err.Error()})
			continue
		}
		entry.FileName = names.claim(entry.FileName)
		if err := archive.Append("assets/"+entry.FileName, data, asset.CreatedAt); err != nil {
			return report, sinkFailure(err)
		}
		manifest.Assets = append(manifest.Assets, *entry)
		report.Exported = append(report.Exported, *entry)
	}

	manifest.TotalAssets = len(manifest.Assets)
	if req.WithMetadata() {
		doc, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return report, fmt.Errorf("encode manifest: %w", err)
		}
		if err := archive.Append("manifest.json", doc, manifest.ExportedAt); err != nil {
			return report, sinkFailure(err)
		}
	}
	if err := archive.Close(); err != nil {
		return report, sinkFailure(err)
	}

	s.logger.Info().
		Int("exported", len(report.Exported)).
		Int("skipped", len(report.Skipped)).
		Str("format", string(req.Format)).
		Msg("export: archive finalized")
	return report, nil
}

// GetAssetFile fetches a single asset applying the same conversion rule as
// the bulk export, bypassing the archive builder.
func (s *Service) GetAssetFile(ctx context.Context, id string, format domain.ExportFormat, quality int) (*AssetFile, error) {
	if format == "" {
		format = domain.FormatOriginal
	}
	if !format.Valid() {
		return nil, fmt.Errorf("format %q: %w", format, domain.ErrUnsupportedFormat)
	}
	if quality <= 0 {
		quality = domain.DefaultQuality
	}

	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := s.blobs.Read(ctx, asset.FileRef)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", asset.FileRef, domain.ErrNotFound)
	}

	name := fileName(*asset)
	mime := asset.MimeType
	if format != domain.FormatOriginal {
		res, err := imaging.Convert(data, format, quality)
		if err != nil {
			return nil, fmt.Errorf("convert asset %s: %w", asset.ID, err)
		}
		data = res.Data
		mime = res.MimeType
		name = imaging.ReplaceExtension(name, format)
	}
	return &AssetFile{Data: data, FileName: name, MimeType: mime}, nil
}

// GetExportPreview estimates an export's scope from stored metadata only: no
// blob reads, no conversions. Sizes are the recorded file sizes, not freshly
// measured values.
func (s *Service) GetExportPreview(ctx context.Context, ids []string) (*domain.ExportPreview, error) {
	assets, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve assets: %w", err)
	}
	ordered := orderByRequest(ids, assets)

	preview := &domain.ExportPreview{
		AssetTypes: make(map[string]int),
		Assets:     make([]domain.AssetSummary, 0, len(ordered)),
	}
	for _, asset := range ordered {
		preview.TotalAssets++
		preview.TotalSize += asset.FileSize
		preview.AssetTypes[asset.AssetType]++
		preview.Assets = append(preview.Assets, domain.AssetSummary{
			ID:        asset.ID,
			Name:      asset.Name,
			AssetType: asset.AssetType,
			FileSize:  asset.FileSize,
		})
	}
	return preview, nil
}

// CleanupAssets runs the retention sweep. The result set is computed
// identically for dry-run and real runs; only the real run deletes, blob
// before metadata record, continuing past individual failures so one bad
// record cannot block the rest.
func (s *Service) CleanupAssets(ctx context.Context, criteria domain.CleanupCriteria) (*domain.CleanupResult, error) {
	assets, err := s.repo.SelectForCleanup(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("select for cleanup: %w", err)
	}

	result := &domain.CleanupResult{AssetIDs: make([]string, 0, len(assets))}
	for _, asset := range assets {
		result.DeletedCount++
		result.FreedSpace += asset.FileSize
		result.AssetIDs = append(result.AssetIDs, asset.ID)
	}
	if criteria.DryRun {
		s.logger.Info().
			Int("matched", result.DeletedCount).
			Int64("freed_space", result.FreedSpace).
			Msg("cleanup: dry run, nothing deleted")
		return result, nil
	}

	for _, asset := range assets {
		if err := s.deleteAsset(ctx, asset); err != nil {
			s.logger.Error().Err(err).Str("asset_id", asset.ID).Msg("cleanup: delete failed")
		}
	}
	s.logger.Info().
		Int("deleted", result.DeletedCount).
		Int64("freed_space", result.FreedSpace).
		Msg("cleanup: sweep complete")
	return result, nil
}

// deleteAsset removes the blob first, then the metadata record. A crash
// between the two leaves a record with no backing bytes, which a later sweep
// still sees, never an invisible orphan blob.
func (s *Service) deleteAsset(ctx context.Context, asset domain.Asset) error {
	ok, err := s.blobs.Exists(ctx, asset.FileRef)
	if err != nil {
		return fmt.Errorf("stat blob %s: %w", asset.FileRef, err)
	}
	if ok {
		if err := s.blobs.Delete(ctx, asset.FileRef); err != nil {
			return fmt.Errorf("delete blob %s: %w", asset.FileRef, err)
		}
	}
	if err := s.repo.Delete(ctx, asset.ID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// buildEntry reads and optionally converts one asset, returning its manifest
// entry and payload. Errors here are per-item and become skips.
func (s *Service) buildEntry(ctx context.Context, asset domain.Asset, req domain.ExportRequest) (*domain.ManifestEntry, []byte, error) {
	ok, err := s.blobs.Exists(ctx, asset.FileRef)
	if err != nil {
		return nil, nil, fmt.Errorf("stat blob %s: %w", asset.FileRef, err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("blob %s is missing", asset.FileRef)
	}
	data, err := s.blobs.Read(ctx, asset.FileRef)
	if err != nil {
		return nil, nil, fmt.Errorf("read blob %s: %w", asset.FileRef, err)
	}

	name := fileName(asset)
	mime := asset.MimeType
	if req.Format != domain.FormatOriginal {
		res, err := imaging.Convert(data, req.Format, req.Quality)
		if err != nil {
			return nil, nil, fmt.Errorf("convert: %w", err)
		}
		data = res.Data
		mime = res.MimeType
		name = imaging.ReplaceExtension(name, req.Format)
	}

	entry := &domain.ManifestEntry{
		ID:               asset.ID,
		Name:             asset.Name,
		Description:      asset.Description,
		AssetType:        asset.AssetType,
		FileName:         name,
		OriginalFileName: asset.OriginalFileName,
		FileSize:         int64(len(data)),
		MimeType:         mime,
		Width:            asset.Width,
		Height:           asset.Height,
		Provider:         asset.Provider,
		Prompt:           asset.Prompt,
		Params:           asset.Params,
		Tags:             asset.Tags,
		CreatedAt:        asset.CreatedAt,
		Metadata:         asset.Metadata,
	}
	return entry, data, nil
}

// fileName picks the exported name for an asset, falling back to its id when
// no original name was recorded.
func fileName(asset domain.Asset) string {
	if asset.OriginalFileName != "" {
		return asset.OriginalFileName
	}
	ext := "bin"
	switch asset.MimeType {
	case "image/png":
		ext = "png"
	case "image/jpeg":
		ext = "jpg"
	case "image/webp":
		ext = "webp"
	case "image/gif":
		ext = "gif"
	}
	return asset.ID + "." + ext
}

// orderByRequest reorders resolved assets into the requested id order,
// dropping duplicates. The gateway gives no ordering guarantee for id-list
// lookups.
func orderByRequest(ids []string, assets []domain.Asset) []domain.Asset {
	byID := make(map[string]domain.Asset, len(assets))
	for _, asset := range assets {
		byID[asset.ID] = asset
	}
	ordered := make([]domain.Asset, 0, len(assets))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if asset, ok := byID[id]; ok {
			ordered = append(ordered, asset)
		}
	}
	return ordered
}

// nameSet disambiguates duplicate file names within one archive by numbering
// later occurrences before the extension.
type nameSet struct {
	used map[string]int
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]int)}
}

func (n *nameSet) claim(name string) string {
	if n.used[name] == 0 {
		n.used[name] = 1
		return name
	}
	base, ext := name, ""
	if idx := lastDot(name); idx > 0 {
		base, ext = name[:idx], name[idx:]
	}
	for i := n.used[name] + 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
		if n.used[candidate] == 0 {
			n.used[name] = i
			n.used[candidate] = 1
			return candidate
		}
	}
}

func lastDot(name string) int {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return i
		}
	}
	return -1
}

func sinkFailure(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrSinkFailure, err)
}
