package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-scene-backend/internal/domain"
	"ai-scene-backend/internal/domain/model"
	"ai-scene-backend/internal/domain/ports/repository"
	"ai-scene-backend/internal/infra/metrics"
)

var _ repository.ProjectRepository = (*projectRepo)(nil)

type projectRepo struct{ pool *pgxpool.Pool }

func NewProjectRepo(pool *pgxpool.Pool) *projectRepo {
	return &projectRepo{pool: pool}
}

const projectColumns = `
id, user_id, title, house_info, stage, script_content, audio_url, final_video_url, bgm_url,
error_log, error_task_id, error_request_id, error_step, error_at, created_at`

func (r *projectRepo) Save(ctx context.Context, tx repository.Tx, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO projects (id, user_id, title, house_info, stage, script_content, bgm_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  title          = EXCLUDED.title,
  house_info     = EXCLUDED.house_info,
  script_content = EXCLUDED.script_content,
  bgm_url        = EXCLUDED.bgm_url;`

	var houseInfo interface{}
	if len(p.HouseInfo) > 0 {
		houseInfo = []byte(p.HouseInfo)
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.Title, houseInfo, string(p.Stage), nullable(p.ScriptContent), nullable(p.BgmURL), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (r *projectRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return p, nil
}

func (r *projectRepo) List(ctx context.Context, tx repository.Tx, userID int64, offset, limit int) ([]*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects`
	args := []interface{}{}
	if userID != 0 {
		q += ` WHERE user_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
		args = append(args, userID, offset, limit)
	} else {
		q += ` ORDER BY created_at DESC OFFSET $1 LIMIT $2;`
		args = append(args, offset, limit)
	}
	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("list projects scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AdvanceStage is the compare-and-swap over the persisted stage column:
// a single conditional UPDATE, so two concurrent callers can never both win.
func (r *projectRepo) AdvanceStage(ctx context.Context, tx repository.Tx, id string, allowed []model.Stage, next model.Stage) (bool, error) {
	const q = `UPDATE projects SET stage = $2 WHERE id = $1 AND stage = ANY($3);`

	from := make([]string, 0, len(allowed))
	for _, s := range allowed {
		from = append(from, string(s))
	}
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(next), from)
	if err != nil {
		return false, fmt.Errorf("advance stage: %w", err)
	}
	advanced := cmd.RowsAffected() == 1
	if advanced {
		metrics.IncStageTransition(string(next), "advanced")
	} else {
		metrics.IncStageTransition(string(next), "rejected")
	}
	return advanced, nil
}

func (r *projectRepo) SetStage(ctx context.Context, tx repository.Tx, id string, stage model.Stage) error {
	const q = `UPDATE projects SET stage = $2 WHERE id = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(stage))
	if err != nil {
		return fmt.Errorf("set stage: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *projectRepo) UpdateScript(ctx context.Context, tx repository.Tx, id string, script string) error {
	const q = `UPDATE projects SET script_content = $2 WHERE id = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, script)
	if err != nil {
		return fmt.Errorf("update script: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *projectRepo) SetError(ctx context.Context, tx repository.Tx, id string, e model.ProjectError) error {
	const q = `
UPDATE projects SET
  error_log = $2, error_task_id = $3, error_request_id = $4, error_step = $5, error_at = $6
WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, e.Detail, e.TaskID, e.RequestID, e.Step, e.At)
	if err != nil {
		return fmt.Errorf("set project error: %w", err)
	}
	return nil
}

func (r *projectRepo) ClearError(ctx context.Context, tx repository.Tx, id string) error {
	const q = `
UPDATE projects SET
  error_log = NULL, error_task_id = NULL, error_request_id = NULL, error_step = NULL, error_at = NULL
WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("clear project error: %w", err)
	}
	return nil
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var stage string
	var houseInfo []byte
	var script, audioURL, videoURL, bgmURL *string
	var errLog, errTaskID, errRequestID, errStep *string
	var errAt *time.Time

	if err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &houseInfo, &stage, &script, &audioURL, &videoURL, &bgmURL,
		&errLog, &errTaskID, &errRequestID, &errStep, &errAt, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Stage = model.Stage(stage)
	p.HouseInfo = houseInfo
	p.ScriptContent = deref(script)
	p.AudioURL = deref(audioURL)
	p.FinalVideoURL = deref(videoURL)
	p.BgmURL = deref(bgmURL)
	p.ErrorLog = deref(errLog)
	p.ErrorTaskID = deref(errTaskID)
	p.ErrorRequestID = deref(errRequestID)
	p.ErrorStep = deref(errStep)
	p.ErrorAt = errAt
	return &p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
