package model

// Stage is the project's position in the generation pipeline. The pipeline
// advances strictly through the ordered stages below; FAILED is a side state
// reachable from any in-flight stage.
type Stage string

const (
	StageDraft            Stage = "DRAFT"
	StageUploading        Stage = "UPLOADING"
	StageAnalyzing        Stage = "ANALYZING"
	StageReview           Stage = "REVIEW"
	StageScriptGenerating Stage = "SCRIPT_GENERATING"
	StageScriptGenerated  Stage = "SCRIPT_GENERATED"
	StageAudioGenerating  Stage = "AUDIO_GENERATING"
	StageAudioGenerated   Stage = "AUDIO_GENERATED"
	StageRendering        Stage = "RENDERING"
	StageCompleted        Stage = "COMPLETED"
	StageFailed           Stage = "FAILED"
)

// stageOrder gives each pipeline stage its position. FAILED carries no
// position (-1): it sits outside the linear flow.
var stageOrder = map[Stage]int{
	StageDraft:            0,
	StageUploading:        1,
	StageAnalyzing:        2,
	StageReview:           3,
	StageScriptGenerating: 4,
	StageScriptGenerated:  5,
	StageAudioGenerating:  6,
	StageAudioGenerated:   7,
	StageRendering:        8,
	StageCompleted:        9,
}

func (s Stage) Valid() bool {
	if s == StageFailed {
		return true
	}
	_, ok := stageOrder[s]
	return ok
}

// AtOrAfter reports whether s sits at the same pipeline position as other or
// later. FAILED never compares as at-or-after anything.
func (s Stage) AtOrAfter(other Stage) bool {
	a, okA := stageOrder[s]
	b, okB := stageOrder[other]
	return okA && okB && a >= b
}

// Processing reports whether the stage means a worker job is (expected to be)
// in flight for the project.
func (s Stage) Processing() bool {
	switch s {
	case StageAnalyzing, StageScriptGenerating, StageAudioGenerating, StageRendering:
		return true
	}
	return false
}
