package batch

import (
	"context"
	"errors"
	"time"

	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/types"
)

var (
	ErrAlreadyStarted = errors.New("run already started")
)

// Validator is satisfied by *validation.Service
type Validator interface {
	ValidateEmail(ctx context.Context, email string) provider.Result
	Provider() provider.ID
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task tracks a single generated address through the run
type Task struct {
	Email    types.GeneratedEmail `json:"email"`
	Status   TaskStatus           `json:"status"`
	Result   *provider.Result     `json:"result,omitempty"`
	Start    time.Time            `json:"startTime,omitempty"`
	End      time.Time            `json:"endTime,omitempty"`
	Duration time.Duration        `json:"duration,omitempty"`
}

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StatePaused     State = "paused"
	StateCompleted  State = "completed"
	StateStopped    State = "stopped"
)

// Status is a snapshot of a run's progress
type Status struct {
	RunID      string            `json:"runId"`
	State      State             `json:"state"`
	Processed  int               `json:"processed"`
	Total      int               `json:"total"`
	Pending    int               `json:"pending"`
	Processing int               `json:"processing"`
	Completed  int               `json:"completed"`
	Failed     int               `json:"failed"`
	Valid      []provider.Result `json:"valid"`
}

// Progress returns the share of processed tasks, between 0 and 100
func (s Status) Progress() int {
	if s.Total == 0 {
		return 100
	}

	return s.Processed * 100 / s.Total
}
