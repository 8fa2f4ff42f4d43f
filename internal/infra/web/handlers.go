package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ai-scene-backend/internal/domain"
	"ai-scene-backend/internal/domain/ports/adapter"
	"ai-scene-backend/internal/infra/logging"
)

type createProjectRequest struct {
	UserID    int64           `json:"user_id"`
	Title     string          `json:"title"`
	HouseInfo json.RawMessage `json:"house_info"`
}

type confirmAssetRequest struct {
	ObjectKey string `json:"object_key"`
}

type updateAssetRequest struct {
	UserLabel *string `json:"user_label"`
	SortOrder *int    `json:"sort_order"`
}

type taskResponse struct {
	TaskID string `json:"task_id"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.projectUC.Create(ctx, req.UserID, req.Title, req.HouseInfo)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	projects, err := s.projectUC.List(ctx, callerID(r), page, size)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.projectUC.Get(ctx, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tl, err := s.projectUC.Timeline(ctx, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) handleConfirmAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req confirmAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	asset, err := s.projectUC.ConfirmAsset(ctx, correlation(ctx), chi.URLParam(r, "projectID"), req.ObjectKey)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	asset, err := s.projectUC.UpdateAsset(ctx, chi.URLParam(r, "projectID"), chi.URLParam(r, "assetID"), req.UserLabel, req.SortOrder)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.projectUC.Get(ctx, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         p.Stage,
		"script_content": p.ScriptContent,
	})
}

func (s *Server) handleGenerateScript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, err := s.projectUC.GenerateScript(ctx, correlation(ctx), callerID(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, taskResponse{TaskID: taskID})
}

// handleUpdateScript takes the edited script verbatim as the request body.
func (s *Server) handleUpdateScript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.projectUC.UpdateScript(ctx, callerID(r), chi.URLParam(r, "projectID"), string(body)); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	taskID, err := s.projectUC.GenerateAudio(ctx, correlation(ctx), callerID(r), chi.URLParam(r, "projectID"), string(body))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, taskResponse{TaskID: taskID})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, err := s.projectUC.Render(ctx, correlation(ctx), callerID(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, taskResponse{TaskID: taskID})
}

func (s *Server) handleRetryRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, err := s.projectUC.RetryRender(ctx, correlation(ctx), callerID(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, taskResponse{TaskID: taskID})
}

// correlation builds the explicit correlation struct handed to the producer
// from the request-scoped context the middleware populated.
func correlation(ctx context.Context) adapter.Correlation {
	return adapter.Correlation{
		RequestID: logging.RequestID(ctx),
		UserID:    logging.UserID(ctx),
	}
}

func callerID(r *http.Request) int64 {
	uid, _ := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	return uid
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "Internal error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrProcessing):
		status, msg = http.StatusConflict, "Project is processing"
	case errors.Is(err, domain.ErrCompleted):
		status, msg = http.StatusConflict, "Project already completed"
	case errors.Is(err, domain.ErrNotReady):
		status, msg = http.StatusBadRequest, "Project is not ready for this action"
	case errors.Is(err, domain.ErrEmptyScript):
		status, msg = http.StatusBadRequest, "Script content is empty"
	case errors.Is(err, domain.ErrNoAssets):
		status, msg = http.StatusBadRequest, "No assets to render"
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, "Invalid argument"
	default:
		status, msg = http.StatusBadGateway, "Failed to process request"
		logging.With(ctx, s.log).Error().Err(err).Msg("request failed")
	}
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
