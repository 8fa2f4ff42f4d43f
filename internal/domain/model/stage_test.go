package model

import "testing"

func TestStageOrdering(t *testing.T) {
	if !StageRendering.AtOrAfter(StageScriptGenerated) {
		t.Error("RENDERING should be at-or-after SCRIPT_GENERATED")
	}
	if StageDraft.AtOrAfter(StageRendering) {
		t.Error("DRAFT is before RENDERING")
	}
	if !StageRendering.AtOrAfter(StageRendering) {
		t.Error("a stage is at-or-after itself")
	}
	if StageFailed.AtOrAfter(StageDraft) || StageDraft.AtOrAfter(StageFailed) {
		t.Error("FAILED sits outside the linear pipeline order")
	}
}

func TestStageProcessing(t *testing.T) {
	processing := []Stage{StageAnalyzing, StageScriptGenerating, StageAudioGenerating, StageRendering}
	for _, s := range processing {
		if !s.Processing() {
			t.Errorf("%s should be a processing stage", s)
		}
	}
	idle := []Stage{StageDraft, StageUploading, StageReview, StageScriptGenerated, StageAudioGenerated, StageCompleted, StageFailed}
	for _, s := range idle {
		if s.Processing() {
			t.Errorf("%s should not be a processing stage", s)
		}
	}
}

func TestStageValid(t *testing.T) {
	for _, s := range []Stage{StageDraft, StageCompleted, StageFailed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Stage("EXPLODED").Valid() {
		t.Error("unknown stage should not be valid")
	}
}
