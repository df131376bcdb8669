package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pixvault/internal/domain"
	"pixvault/internal/infra"
	"pixvault/internal/sqlinline"
)

// AssetRepositoryPG implements domain.AssetRepository against PostgreSQL.
// It is the metadata gateway of the export pipeline: reads never mutate
// state, and Delete only removes the metadata record.
type AssetRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(sql infra.SQLExecutor) *AssetRepositoryPG {
	return &AssetRepositoryPG{sql: sql}
}

// GetByIDs returns the assets that exist among ids. Missing ids are omitted
// rather than reported; partial export is an accepted outcome.
func (r *AssetRepositoryPG) GetByIDs(ctx context.Context, ids []string) ([]domain.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectAssetsByIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("repo: select assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: select assets: %w", err)
	}
	return assets, nil
}

// GetByID returns a single asset or domain.ErrNotFound.
func (r *AssetRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectAssetByID, id)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

// GetCollection returns a collection or domain.ErrNotFound.
func (r *AssetRepositoryPG) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectCollectionByID, id)
	var col domain.Collection
	if err := row.Scan(&col.ID, &col.Name, &col.AssetIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: select collection: %w", err)
	}
	return &col, nil
}

// SelectForCleanup returns assets matching every supplied criteria filter.
// Absent filters are wildcards; an absent age filter means no cutoff.
func (r *AssetRepositoryPG) SelectForCleanup(ctx context.Context, criteria domain.CleanupCriteria) ([]domain.Asset, error) {
	var cutoff any
	if t, ok := criteria.Cutoff(nowUTC()); ok {
		cutoff = t
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectAssetsForCleanup, criteria.WorldID, string(criteria.Status), cutoff)
	if err != nil {
		return nil, fmt.Errorf("repo: select for cleanup: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: select for cleanup: %w", err)
	}
	return assets, nil
}

// Delete removes the metadata record, returning domain.ErrNotFound when no
// row matched.
func (r *AssetRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteAsset, id)
	if err != nil {
		return fmt.Errorf("repo: delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nowUTC() time.Time { return time.Now().UTC() }

// scanner covers both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*domain.Asset, error) {
	var (
		asset       domain.Asset
		paramsRaw   []byte
		metadataRaw []byte
	)
	err := row.Scan(
		&asset.ID,
		&asset.Name,
		&asset.Description,
		&asset.AssetType,
		&asset.FileRef,
		&asset.OriginalFileName,
		&asset.FileSize,
		&asset.MimeType,
		&asset.Width,
		&asset.Height,
		&asset.Provider,
		&asset.Prompt,
		&paramsRaw,
		&asset.Tags,
		&asset.Status,
		&asset.WorldID,
		&metadataRaw,
		&asset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repo: scan asset: %w", err)
	}
	if asset.Params, err = decodeMeta(paramsRaw); err != nil {
		return nil, fmt.Errorf("repo: decode params for %s: %w", asset.ID, err)
	}
	if asset.Metadata, err = decodeMeta(metadataRaw); err != nil {
		return nil, fmt.Errorf("repo: decode metadata for %s: %w", asset.ID, err)
	}
	return &asset, nil
}

func decodeMeta(raw []byte) (domain.MetaMap, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return domain.NormalizeMeta(m), nil
}
