package model

import "time"

// Stage is a step of the release pipeline
type Stage string

const (
	StageValidate Stage = "validate"
	StageBuild    Stage = "build"
	StageArchive  Stage = "archive"
	StagePublish  Stage = "publish"
	StageWait     Stage = "wait"
	StageSync     Stage = "sync"
)

// Stages lists the pipeline stages in execution order
var Stages = []Stage{
	StageValidate,
	StageBuild,
	StageArchive,
	StagePublish,
	StageWait,
	StageSync,
}

// StageStatus is the outcome of a stage
type StageStatus string

const (
	StatusSucceeded StageStatus = "succeeded"
	StatusFailed    StageStatus = "failed"
	StatusSkipped   StageStatus = "skipped"
)

// StageResult records the outcome of one stage
type StageResult struct {
	Stage    Stage
	Status   StageStatus
	Duration time.Duration
	Error    string
}

// SyncResult records the outcome of one downstream repository
type SyncResult struct {
	Repo       string
	Status     StageStatus
	Tag        string
	ReleaseURL string
	Error      string
}

// PipelineResult summarizes a release run
type PipelineResult struct {
	RunID     string
	Version   string
	StartedAt time.Time
	Stages    []StageResult
	Syncs     []SyncResult
	Err       error
}

// Succeeded reports whether the run completed without error
func (r *PipelineResult) Succeeded() bool {
	return r.Err == nil
}
