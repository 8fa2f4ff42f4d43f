package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-scene-backend/internal/domain"
	"ai-scene-backend/internal/domain/model"
	"ai-scene-backend/internal/domain/ports/repository"
)

var _ repository.AssetRepository = (*assetRepo)(nil)

type assetRepo struct{ pool *pgxpool.Pool }

func NewAssetRepo(pool *pgxpool.Pool) *assetRepo {
	return &assetRepo{pool: pool}
}

const assetColumns = `
id, project_id, oss_url, storage_bucket, storage_key, duration, scene_label, scene_score,
user_label, sort_order, is_deleted`

func (r *assetRepo) Save(ctx context.Context, tx repository.Tx, a *model.Asset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	const q = `
INSERT INTO assets (id, project_id, oss_url, storage_bucket, storage_key, duration, scene_label, scene_score, user_label, sort_order, is_deleted)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  scene_label = EXCLUDED.scene_label,
  scene_score = EXCLUDED.scene_score,
  user_label  = EXCLUDED.user_label,
  sort_order  = EXCLUDED.sort_order,
  is_deleted  = EXCLUDED.is_deleted;`

	_, err := execSQL(ctx, r.pool, tx, q,
		a.ID, a.ProjectID, a.OssURL, nullable(a.StorageBucket), nullable(a.StorageKey),
		a.Duration, nullable(a.SceneLabel), a.SceneScore, nullable(a.UserLabel), a.SortOrder, a.Deleted)
	if err != nil {
		return fmt.Errorf("save asset: %w", err)
	}
	return nil
}

func (r *assetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Asset, error) {
	q := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	a, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find asset: %w", err)
	}
	return a, nil
}

func (r *assetRepo) ListByProject(ctx context.Context, tx repository.Tx, projectID string) ([]*model.Asset, error) {
	q := `SELECT ` + assetColumns + ` FROM assets WHERE project_id = $1 AND is_deleted = false ORDER BY sort_order ASC;`
	rows, err := pickRows(ctx, r.pool, tx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("list assets scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAsset(row pgx.Row) (*model.Asset, error) {
	var a model.Asset
	var bucket, key, sceneLabel, userLabel *string
	var sceneScore *float64

	if err := row.Scan(
		&a.ID, &a.ProjectID, &a.OssURL, &bucket, &key, &a.Duration, &sceneLabel, &sceneScore,
		&userLabel, &a.SortOrder, &a.Deleted,
	); err != nil {
		return nil, err
	}
	a.StorageBucket = deref(bucket)
	a.StorageKey = deref(key)
	a.SceneLabel = deref(sceneLabel)
	a.UserLabel = deref(userLabel)
	if sceneScore != nil {
		a.SceneScore = *sceneScore
	}
	return &a, nil
}
