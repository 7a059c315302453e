package tasks

import (
	"context"
	"fmt"
	"time"
)

type TaskType string

const (
	TaskTypeSyncBookmarks  TaskType = "sync_bookmarks"
	TaskTypeSyncBooks      TaskType = "sync_books"
	TaskTypeLastfmSnapshot TaskType = "lastfm_snapshot"
	TaskTypeFeedSnapshot   TaskType = "feed_snapshot"
)

const (
	// Snapshots are read-only upstream calls and safe to repeat. Sync runs
	// are not retried within a process; the next run picks up failures.
	DefaultSnapshotRetries = 2

	maxRetryDelay = 30 * time.Second
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetName() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	RetryDelay(base time.Duration) time.Duration
	LogAttrs() []any
	Start()
	GetDuration() time.Duration
}

// Task carries the bookkeeping shared by every command. Embed it and
// implement Execute.
type Task struct {
	ID         string
	Type       TaskType
	Name       string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time
}

func NewTask(taskType TaskType, name string, maxRetries int) Task {
	return Task{
		ID:         fmt.Sprintf("%s/%s/%d", taskType, name, time.Now().UnixNano()),
		Type:       taskType,
		Name:       name,
		MaxRetries: maxRetries,
	}
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetName() string {
	return t.Name
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

// RetryDelay doubles base for every retry already made, capped at 30s.
func (t *Task) RetryDelay(base time.Duration) time.Duration {
	delay := base
	for i := 1; i < t.RetryCount && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

// LogAttrs identifies the task in slog lines.
func (t *Task) LogAttrs() []any {
	return []any{
		"type", string(t.Type),
		"name", t.Name,
		"id", t.ID,
		"retry_count", t.RetryCount,
	}
}

// Start records the first start time only, so GetDuration spans retries.
func (t *Task) Start() {
	if t.StartedAt != nil {
		return
	}
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}
