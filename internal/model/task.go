package model

import "time"

// TaskStatus is the lifecycle state of an upload task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Upload progress checkpoints
const (
	ProgressStarted   = 0
	ProgressPrepared  = 25
	ProgressEmbedded  = 50
	ProgressPersisted = 75
	ProgressDone      = 100
)

// UploadTask is one in-process save of a completed session record
type UploadTask struct {
	ID        string     `json:"task_id"`
	SessionID string     `json:"session_id"`
	Title     string     `json:"title,omitempty"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
	Attempts  int        `json:"attempts"`
	ListingID int64      `json:"listing_id,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Terminal reports whether the task will not change any more
func (t UploadTask) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// TaskEvent is published to subscribers on every progress change
type TaskEvent struct {
	TaskID    string     `json:"task_id"`
	SessionID string     `json:"session_id"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
	Detail    string     `json:"detail,omitempty"`
	At        time.Time  `json:"at"`
}
