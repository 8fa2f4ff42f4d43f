package repository

import (
	"context"

	"ai-scene-backend/internal/domain/model"
)

type ProjectRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Project) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Project, error)
	List(ctx context.Context, tx Tx, userID int64, offset, limit int) ([]*model.Project, error)

	// AdvanceStage performs the atomic conditional stage transition:
	// the stage becomes next only if the current persisted stage is one of
	// allowed, and the result reports whether exactly one row changed.
	// This is the sole concurrency-control primitive guarding dispatches.
	AdvanceStage(ctx context.Context, tx Tx, id string, allowed []model.Stage, next model.Stage) (bool, error)

	// SetStage is a plain, unconditional stage write. Only for transitions
	// that do not gate a worker dispatch.
	SetStage(ctx context.Context, tx Tx, id string, stage model.Stage) error

	UpdateScript(ctx context.Context, tx Tx, id string, script string) error

	// SetError records failure metadata; ClearError removes it. Error fields
	// are only meaningful while the project is FAILED.
	SetError(ctx context.Context, tx Tx, id string, e model.ProjectError) error
	ClearError(ctx context.Context, tx Tx, id string) error
}
