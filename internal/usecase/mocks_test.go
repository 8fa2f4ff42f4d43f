package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ai-scene-backend/internal/domain"
	"ai-scene-backend/internal/domain/model"
	"ai-scene-backend/internal/domain/ports/adapter"
	"ai-scene-backend/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// memTxManager runs the callback without a real transaction; the in-memory
// repositories ignore the tx handle anyway.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// memProjectRepo is a small in-memory implementation used by unit tests.
// AdvanceStage performs the compare-and-swap under a mutex, mirroring the
// atomicity of the real conditional UPDATE.
type memProjectRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Project
	saveErr error
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{store: make(map[string]*model.Project)}
}

func (m *memProjectRepo) Save(ctx context.Context, tx repository.Tx, p *model.Project) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memProjectRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProjectRepo) List(ctx context.Context, tx repository.Tx, userID int64, offset, limit int) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Project
	for _, p := range m.store {
		if userID != 0 && p.UserID != userID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *memProjectRepo) AdvanceStage(ctx context.Context, tx repository.Tx, id string, allowed []model.Stage, next model.Stage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, nil
	}
	for _, s := range allowed {
		if p.Stage == s {
			p.Stage = next
			return true, nil
		}
	}
	return false, nil
}

func (m *memProjectRepo) SetStage(ctx context.Context, tx repository.Tx, id string, stage model.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Stage = stage
	return nil
}

func (m *memProjectRepo) UpdateScript(ctx context.Context, tx repository.Tx, id string, script string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ScriptContent = script
	return nil
}

func (m *memProjectRepo) SetError(ctx context.Context, tx repository.Tx, id string, e model.ProjectError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ErrorStep = e.Step
	p.ErrorTaskID = e.TaskID
	p.ErrorRequestID = e.RequestID
	p.ErrorLog = e.Detail
	at := e.At
	p.ErrorAt = &at
	return nil
}

func (m *memProjectRepo) ClearError(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ErrorStep, p.ErrorTaskID, p.ErrorRequestID, p.ErrorLog = "", "", "", ""
	p.ErrorAt = nil
	return nil
}

// memAssetRepo keeps assets in insertion order.
type memAssetRepo struct {
	mu    sync.Mutex
	store []*model.Asset
}

func newMemAssetRepo() *memAssetRepo {
	return &memAssetRepo{}
}

func (m *memAssetRepo) Save(ctx context.Context, tx repository.Tx, a *model.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	for i, existing := range m.store {
		if existing.ID == a.ID {
			cp := *a
			m.store[i] = &cp
			return nil
		}
	}
	cp := *a
	m.store = append(m.store, &cp)
	return nil
}

func (m *memAssetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.store {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memAssetRepo) ListByProject(ctx context.Context, tx repository.Tx, projectID string) ([]*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Asset
	for _, a := range m.store {
		if a.ProjectID == projectID && !a.Deleted {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

// submission captures one producer call.
type submission struct {
	task adapter.Task
	corr adapter.Correlation
}

type fakeProducer struct {
	mu          sync.Mutex
	submissions []submission
	submitErr   error
}

func (f *fakeProducer) Submit(ctx context.Context, task adapter.Task, corr adapter.Correlation) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, submission{task: task, corr: corr})
	return fmt.Sprintf("task-%d", len(f.submissions)), nil
}

func (f *fakeProducer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

func (f *fakeProducer) last() submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissions[len(f.submissions)-1]
}

type fakeResolver struct{}

func (fakeResolver) PublicURL(objectKey string) string { return "https://cdn/ai-scene/" + objectKey }
func (fakeResolver) Bucket() string                    { return "ai-scene" }

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
