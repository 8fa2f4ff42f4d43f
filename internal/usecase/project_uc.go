package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-scene-backend/internal/domain"
	"ai-scene-backend/internal/domain/model"
	"ai-scene-backend/internal/domain/ports/adapter"
	"ai-scene-backend/internal/domain/ports/repository"
	"ai-scene-backend/internal/infra/queue/celery"
)

// Compile-time check
var _ ProjectUseCase = (*projectUC)(nil)

// ProjectUseCase is the pipeline orchestration: each operation gates its
// stage transition through the project repository's conditional advance and,
// on success, hands the corresponding job to the task producer. It owns no
// concurrency logic of its own.
type ProjectUseCase interface {
	Create(ctx context.Context, userID int64, title string, houseInfo json.RawMessage) (*model.Project, error)
	Get(ctx context.Context, projectID string) (*model.Project, error)
	List(ctx context.Context, userID int64, page, size int) ([]*model.Project, error)
	Timeline(ctx context.Context, projectID string) (*Timeline, error)

	ConfirmAsset(ctx context.Context, corr adapter.Correlation, projectID, objectKey string) (*model.Asset, error)
	UpdateAsset(ctx context.Context, projectID, assetID string, userLabel *string, sortOrder *int) (*model.Asset, error)

	GenerateScript(ctx context.Context, corr adapter.Correlation, userID int64, projectID string) (string, error)
	UpdateScript(ctx context.Context, userID int64, projectID, script string) error
	GenerateAudio(ctx context.Context, corr adapter.Correlation, userID int64, projectID, script string) (string, error)
	Render(ctx context.Context, corr adapter.Correlation, userID int64, projectID string) (string, error)
	RetryRender(ctx context.Context, corr adapter.Correlation, userID int64, projectID string) (string, error)
}

// Timeline is the review view: the project plus its ordered assets.
type Timeline struct {
	ProjectID      string         `json:"project_id"`
	ProjectTitle   string         `json:"project_title"`
	Stage          model.Stage    `json:"status"`
	ErrorRequestID string         `json:"error_request_id,omitempty"`
	ErrorStep      string         `json:"error_step,omitempty"`
	Assets         []*model.Asset `json:"assets"`
	ScriptContent  string         `json:"script_content,omitempty"`
}

// URLResolver maps confirmed object keys to public URLs.
type URLResolver interface {
	PublicURL(objectKey string) string
	Bucket() string
}

// BgmOptions configures automatic background-music selection at creation.
type BgmOptions struct {
	AutoSelect bool
	URLs       []string
}

type projectUC struct {
	projects repository.ProjectRepository
	assets   repository.AssetRepository
	txm      repository.TransactionManager
	producer adapter.TaskProducer
	resolver URLResolver
	bgm      BgmOptions
	log      *zerolog.Logger
}

func NewProjectUseCase(
	projects repository.ProjectRepository,
	assets repository.AssetRepository,
	txm repository.TransactionManager,
	producer adapter.TaskProducer,
	resolver URLResolver,
	bgm BgmOptions,
	logger *zerolog.Logger,
) *projectUC {
	return &projectUC{
		projects: projects,
		assets:   assets,
		txm:      txm,
		producer: producer,
		resolver: resolver,
		bgm:      bgm,
		log:      logger,
	}
}

func (u *projectUC) Create(ctx context.Context, userID int64, title string, houseInfo json.RawMessage) (*model.Project, error) {
	if len(houseInfo) > 0 && !json.Valid(houseInfo) {
		return nil, domain.ErrInvalidArgument
	}

	p := &model.Project{
		UserID:    userID,
		Title:     title,
		HouseInfo: houseInfo,
		Stage:     model.StageDraft,
	}
	if u.bgm.AutoSelect && len(u.bgm.URLs) > 0 {
		p.BgmURL = u.bgm.URLs[rand.Intn(len(u.bgm.URLs))]
	}
	if err := u.projects.Save(ctx, nil, p); err != nil {
		return nil, err
	}
	u.log.Info().Str("project_id", p.ID).Int64("user_id", userID).Msg("project created")
	return p, nil
}

func (u *projectUC) Get(ctx context.Context, projectID string) (*model.Project, error) {
	return u.projects.FindByID(ctx, nil, projectID)
}

func (u *projectUC) List(ctx context.Context, userID int64, page, size int) ([]*model.Project, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return u.projects.List(ctx, nil, userID, (page-1)*size, size)
}

func (u *projectUC) Timeline(ctx context.Context, projectID string) (*Timeline, error) {
	p, err := u.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	assets, err := u.assets.ListByProject(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	sortAssetsByScene(assets)

	return &Timeline{
		ProjectID:      p.ID,
		ProjectTitle:   p.Title,
		Stage:          p.Stage,
		ErrorRequestID: p.ErrorRequestID,
		ErrorStep:      p.ErrorStep,
		Assets:         assets,
		ScriptContent:  p.ScriptContent,
	}, nil
}

// ConfirmAsset registers an object the client uploaded directly to storage and
// kicks off scene analysis for it. The DRAFT→UPLOADING and →ANALYZING moves
// are plain writes: each asset is analyzed regardless, so there is no
// double-dispatch race to guard here.
func (u *projectUC) ConfirmAsset(ctx context.Context, corr adapter.Correlation, projectID, objectKey string) (*model.Asset, error) {
	if objectKey == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, err := u.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}

	current := p.Stage
	if current == model.StageDraft {
		if err := u.projects.SetStage(ctx, nil, projectID, model.StageUploading); err != nil {
			return nil, err
		}
		current = model.StageUploading
	}

	existing, err := u.assets.ListByProject(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	asset := &model.Asset{
		ProjectID:     projectID,
		OssURL:        u.resolver.PublicURL(objectKey),
		StorageBucket: u.resolver.Bucket(),
		StorageKey:    objectKey,
		Duration:      0, // extracted by the analysis worker
		SortOrder:     len(existing),
	}
	if err := u.assets.Save(ctx, nil, asset); err != nil {
		return nil, err
	}

	task := celery.AnalyzeAssetTask{ProjectID: projectID, AssetID: asset.ID, VideoURL: asset.OssURL}
	taskID, err := u.producer.Submit(ctx, task, corr)
	if err != nil {
		return nil, fmt.Errorf("dispatch analysis: %w", err)
	}
	u.log.Info().Str("project_id", projectID).Str("asset_id", asset.ID).Str("task_id", taskID).Msg("analysis task submitted")

	if current == model.StageDraft || current == model.StageUploading {
		if err := u.projects.SetStage(ctx, nil, projectID, model.StageAnalyzing); err != nil {
			return nil, err
		}
	}
	return asset, nil
}

func (u *projectUC) UpdateAsset(ctx context.Context, projectID, assetID string, userLabel *string, sortOrder *int) (*model.Asset, error) {
	asset, err := u.assets.FindByID(ctx, nil, assetID)
	if err != nil {
		return nil, err
	}
	if asset.ProjectID != projectID {
		return nil, domain.ErrNotFound
	}
	if userLabel != nil {
		asset.UserLabel = *userLabel
		asset.SceneLabel = *userLabel
	}
	if sortOrder != nil {
		asset.SortOrder = *sortOrder
	}
	if err := u.assets.Save(ctx, nil, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (u *projectUC) GenerateScript(ctx context.Context, corr adapter.Correlation, userID int64, projectID string) (string, error) {
	p, err := u.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		return "", err
	}
	if err := validateOwnership(p, userID); err != nil {
		return "", err
	}

	assets, err := u.assets.ListByProject(ctx, nil, projectID)
	if err != nil {
		return "", err
	}
	timeline := make([]celery.SceneSummary, 0, len(assets))
	for _, a := range assets {
		timeline = append(timeline, celery.SceneSummary{
			ID:         a.ID,
			SceneLabel: a.SceneLabel,
			SceneScore: a.SceneScore,
			OssURL:     a.OssURL,
			Duration:   a.Duration,
		})
	}

	allowed := []model.Stage{model.StageAnalyzing, model.StageReview, model.StageScriptGenerated, model.StageFailed}
	advanced, err := u.projects.AdvanceStage(ctx, nil, projectID, allowed, model.StageScriptGenerating)
	if err != nil {
		return "", err
	}
	if !advanced {
		return "", u.diagnoseRejected(ctx, projectID, model.StageScriptGenerating,
			model.StageScriptGenerating, model.StageAudioGenerating, model.StageRendering)
	}
	if p.Stage == model.StageFailed {
		_ = u.projects.ClearError(ctx, nil, projectID)
	}

	task := celery.GenerateScriptTask{ProjectID: projectID, HouseInfo: p.HouseInfo, Timeline: timeline}
	taskID, err := u.producer.Submit(ctx, task, corr)
	if err != nil {
		u.markDispatchFailed(ctx, projectID, "generate_script", corr, err)
		return "", fmt.Errorf("dispatch script generation: %w", err)
	}
	u.log.Info().Str("project_id", projectID).Str("task_id", taskID).Msg("script generation task submitted")
	return taskID, nil
}

func (u *projectUC) UpdateScript(ctx context.Context, userID int64, projectID, script string) error {
	p, err := u.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		return err
	}
	if err := validateOwnership(p, userID); err != nil {
		return err
	}
	switch p.Stage {
	case model.StageCompleted:
		return domain.ErrCompleted
	case model.StageAudioGenerating, model.StageAudioGenerated, model.StageRendering:
		return domain.ErrProcessing
	}
	if script != "" && !json.Valid([]byte(script)) {
		return domain.ErrInvalidArgument
	}
	// script and stage must land together or not at all
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.projects.UpdateScript(ctx, tx, projectID, script); err != nil {
			return err
		}
		return u.projects.SetStage(ctx, tx, projectID, model.StageScriptGenerated)
	})
}

func (u *projectUC) GenerateAudio(ctx context.Context, corr adapter.Correlation, userID int64, projectID, script string) (string, error) {
	p, err := u.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		return "", err
	}
	if err := validateOwnership(p, userID); err != nil {
		return "", err
	}

	// The user may have edited the script right before requesting audio.
	if script != "" {
		if !json.Valid([]byte(script)) {
			return "", domain.ErrInvalidArgument
		}
		if err := u.projects.UpdateScript(ctx, nil, projectID, script); err != nil {
			return "", err
		}
	} else {
		script = p.ScriptContent
	}
	if script == "" {
		return "", domain.ErrEmptyScript
	}

	allowed := []model.Stage{model.StageScriptGenerated, model.StageAudioGenerated, model.StageFailed}
	advanced, err := u.projects.AdvanceStage(ctx, nil, projectID, allowed, model.StageAudioGenerating)
	if err != nil {
		return "", err
	}
	if !advanced {
		return "", u.diagnoseRejected(ctx, projectID, model.StageAudioGenerating,
			model.StageAudioGenerating, model.StageRendering)
	}
	if p.Stage == model.StageFailed {
		_ = u.projects.ClearError(ctx, nil, projectID)
	}

	task := celery.GenerateAudioTask{ProjectID: projectID, Script: script}
	taskID, err := u.producer.Submit(ctx, task, corr)
	if err != nil {
		u.markDispatchFailed(ctx, projectID, "generate_audio", corr, err)
		return "", fmt.Errorf("dispatch audio generation: %w", err)
	}
	u.log.Info().Str("project_id", projectID).Str("task_id", taskID).Msg("audio generation task submitted")
	return taskID, nil
}

func (u *projectUC) Render(ctx context.Context, corr adapter.Correlation, userID int64, projectID string) (string, error) {
	p, err := u.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		return "", err
	}
	if err := validateOwnership(p, userID); err != nil {
		return "", err
	}
	if p.ScriptContent == "" {
		return "", domain.ErrEmptyScript
	}

	assets, err := u.assets.ListByProject(ctx, nil, projectID)
	if err != nil {
		return "", err
	}
	if len(assets) == 0 {
		return "", domain.ErrNoAssets
	}
	renderAssets := make([]celery.RenderAsset, 0, len(assets))
	for _, a := range assets {
		renderAssets = append(renderAssets, celery.RenderAsset{ID: a.ID, OssURL: a.OssURL, Duration: a.Duration})
	}

	allowed := []model.Stage{model.StageScriptGenerated, model.StageFailed}
	advanced, err := u.projects.AdvanceStage(ctx, nil, projectID, allowed, model.StageRendering)
	if err != nil {
		return "", err
	}
	if !advanced {
		return "", u.diagnoseRejected(ctx, projectID, model.StageRendering,
			model.StageRendering, model.StageAudioGenerating)
	}
	if p.Stage == model.StageFailed {
		_ = u.projects.ClearError(ctx, nil, projectID)
	}

	task := celery.RenderPipelineTask{
		ProjectID: projectID,
		Script:    p.ScriptContent,
		Assets:    renderAssets,
		BgmURL:    p.BgmURL,
	}
	taskID, err := u.producer.Submit(ctx, task, corr)
	if err != nil {
		u.markDispatchFailed(ctx, projectID, "render", corr, err)
		return "", fmt.Errorf("dispatch render: %w", err)
	}
	u.log.Info().Str("project_id", projectID).Str("task_id", taskID).Msg("render task submitted")
	return taskID, nil
}

func (u *projectUC) RetryRender(ctx context.Context, corr adapter.Correlation, userID int64, projectID string) (string, error) {
	return u.Render(ctx, corr, userID, projectID)
}

// diagnoseRejected maps a failed conditional advance to a user-visible error.
// The re-read is non-atomic and diagnostic only: if the observed stage is one
// of the processing stages relevant to the action the caller raced another
// request (conflict), otherwise the project is simply not ready.
func (u *projectUC) diagnoseRejected(ctx context.Context, projectID string, target model.Stage, processing ...model.Stage) error {
	p, err := u.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		return err
	}
	for _, s := range processing {
		if p.Stage == s {
			return domain.ErrProcessing
		}
	}
	if p.Stage.AtOrAfter(target) {
		return domain.ErrProcessing
	}
	return domain.ErrNotReady
}

// markDispatchFailed records the gap left when a stage transition succeeded
// but the enqueue did not: the project moves to FAILED with error metadata so
// the failure is operator-visible and retryable through the FAILED source set.
func (u *projectUC) markDispatchFailed(ctx context.Context, projectID, step string, corr adapter.Correlation, cause error) {
	e := model.ProjectError{
		Step:      step,
		RequestID: corr.RequestID,
		Detail:    cause.Error(),
		At:        time.Now(),
	}
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.projects.SetError(ctx, tx, projectID, e); err != nil {
			return err
		}
		return u.projects.SetStage(ctx, tx, projectID, model.StageFailed)
	})
	if err != nil {
		u.log.Error().Err(err).Str("project_id", projectID).Msg("mark project failed")
	}
}

func validateOwnership(p *model.Project, userID int64) error {
	if userID == 0 {
		return nil
	}
	if p.UserID == 0 || p.UserID != userID {
		return domain.ErrForbidden
	}
	return nil
}

func sortAssetsByScene(assets []*model.Asset) {
	hasAnalysis := false
	for _, a := range assets {
		if a.SceneLabel != "" {
			hasAnalysis = true
			break
		}
	}
	if !hasAnalysis {
		return
	}
	// stable sort keeps upload order within equal priorities
	sort.SliceStable(assets, func(i, j int) bool {
		return model.ScenePriority(assets[i].SceneLabel) < model.ScenePriority(assets[j].SceneLabel)
	})
}
