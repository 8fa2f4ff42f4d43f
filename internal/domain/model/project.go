package model

import (
	"encoding/json"
	"time"
)

// Project is a single video-generation project. Stage mutations other than
// creation go through ProjectRepository (plain writes for non-gating moves,
// AdvanceStage for anything that triggers a worker dispatch).
type Project struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"user_id"`
	Title         string          `json:"title"`
	HouseInfo     json.RawMessage `json:"house_info,omitempty"`
	Stage         Stage           `json:"status"`
	ScriptContent string          `json:"script_content,omitempty"`
	AudioURL      string          `json:"audio_url,omitempty"`
	FinalVideoURL string          `json:"final_video_url,omitempty"`
	BgmURL        string          `json:"bgm_url,omitempty"`

	// Error metadata, populated only while Stage == FAILED.
	ErrorLog       string     `json:"error_log,omitempty"`
	ErrorTaskID    string     `json:"error_task_id,omitempty"`
	ErrorRequestID string     `json:"error_request_id,omitempty"`
	ErrorStep      string     `json:"error_step,omitempty"`
	ErrorAt        *time.Time `json:"error_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ProjectError is the failure record attached to a project when a dispatch or
// worker step fails.
type ProjectError struct {
	Step      string
	TaskID    string
	RequestID string
	Detail    string
	At        time.Time
}
