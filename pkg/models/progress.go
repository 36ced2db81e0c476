package models

import "time"

// Progress stages.
const (
	StageStarted    = "started"
	StageSection    = "section"
	StageCache      = "cache"
	StageValidating = "validating"
	StageAssembling = "assembling"
	StageComplete   = "complete"
	StageFailed     = "failed"
)

// ProgressEvent reports generation progress. Percent never decreases within a run.
type ProgressEvent struct {
	RunID     string    `json:"run_id"`
	Percent   int       `json:"percent"`
	Stage     string    `json:"stage"`
	Section   Section   `json:"section,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
