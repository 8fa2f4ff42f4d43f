package celery

import "encoding/json"

// Task names as registered by the worker fleet. These are part of the wire
// contract and must not be renamed independently of the workers.
const (
	TaskAnalyzeVideo   = "tasks.analyze_video_task"
	TaskGenerateScript = "tasks.generate_script_task"
	TaskGenerateAudio  = "tasks.generate_audio_task"
	TaskRenderPipeline = "tasks.render_pipeline_task"
)

// SceneSummary is the per-asset payload handed to the script generator.
type SceneSummary struct {
	ID         string  `json:"id"`
	SceneLabel string  `json:"scene_label"`
	SceneScore float64 `json:"scene_score"`
	OssURL     string  `json:"oss_url"`
	Duration   float64 `json:"duration"`
}

// RenderAsset is the per-asset payload handed to the render pipeline.
type RenderAsset struct {
	ID       string  `json:"id"`
	OssURL   string  `json:"oss_url"`
	Duration float64 `json:"duration"`
}

// AnalyzeAssetTask asks the workers to detect the scene of one uploaded clip.
type AnalyzeAssetTask struct {
	ProjectID string
	AssetID   string
	VideoURL  string
}

func (t AnalyzeAssetTask) Name() string { return TaskAnalyzeVideo }
func (t AnalyzeAssetTask) Args() []any  { return []any{t.ProjectID, t.AssetID, t.VideoURL} }
func (t AnalyzeAssetTask) Headers() map[string]any {
	return map[string]any{"project_id": t.ProjectID, "asset_id": t.AssetID}
}

// GenerateScriptTask asks the workers to draft a narration script from the
// project's house info and the analyzed timeline.
type GenerateScriptTask struct {
	ProjectID string
	HouseInfo json.RawMessage
	Timeline  []SceneSummary
}

func (t GenerateScriptTask) Name() string { return TaskGenerateScript }
func (t GenerateScriptTask) Args() []any {
	houseInfo := t.HouseInfo
	if len(houseInfo) == 0 {
		houseInfo = json.RawMessage("null")
	}
	return []any{t.ProjectID, houseInfo, t.Timeline}
}
func (t GenerateScriptTask) Headers() map[string]any {
	return map[string]any{"project_id": t.ProjectID}
}

// GenerateAudioTask asks the workers to synthesize narration audio.
type GenerateAudioTask struct {
	ProjectID string
	Script    string
}

func (t GenerateAudioTask) Name() string { return TaskGenerateAudio }
func (t GenerateAudioTask) Args() []any  { return []any{t.ProjectID, t.Script} }
func (t GenerateAudioTask) Headers() map[string]any {
	return map[string]any{"project_id": t.ProjectID}
}

// RenderPipelineTask asks the workers to run the full render: TTS, timeline
// assembly and final video composition with background music.
type RenderPipelineTask struct {
	ProjectID string
	Script    string
	Assets    []RenderAsset
	BgmURL    string
}

func (t RenderPipelineTask) Name() string { return TaskRenderPipeline }
func (t RenderPipelineTask) Args() []any {
	var bgm any
	if t.BgmURL != "" {
		bgm = t.BgmURL
	}
	return []any{t.ProjectID, t.Script, t.Assets, bgm}
}
func (t RenderPipelineTask) Headers() map[string]any {
	return map[string]any{"project_id": t.ProjectID}
}
