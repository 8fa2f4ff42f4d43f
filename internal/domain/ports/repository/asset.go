package repository

import (
	"context"

	"ai-scene-backend/internal/domain/model"
)

type AssetRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Asset) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Asset, error)
	// ListByProject returns non-deleted assets ordered by sort order.
	ListByProject(ctx context.Context, tx Tx, projectID string) ([]*model.Asset, error)
}
