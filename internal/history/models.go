package history

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one persisted pipeline execution.
type Run struct {
	ID              string
	Status          Status
	StartedAt       time.Time
	FinishedAt      time.Time
	InputPath       string
	OutputPath      string
	MusicPath       string
	TargetRate      int
	TranscriptChars int
	DryRun          bool
	ErrorKind       string
	Error           string
}

// Duration returns the elapsed run time, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the fields set when a run finishes.
type Outcome struct {
	Status          Status
	OutputPath      string
	MusicPath       string
	TranscriptChars int
	ErrorKind       string
	Error           string
}
