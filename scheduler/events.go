package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/jetleaf/jetleaf-scheduling/pkg/eventbus"
)

// Event types published on the bus for task lifecycle transitions.
const (
	EventTaskScheduled = "task.scheduled"
	EventTaskStarted   = "task.started"
	EventTaskCompleted = "task.completed"
	EventTaskFailed    = "task.failed"
	EventTaskCancelled = "task.cancelled"
)

// ExecutionEvent is the bus payload for a single task execution.
type ExecutionEvent struct {
	ID       string        `json:"id"` // unique per execution
	Task     string        `json:"task"`
	Started  time.Time     `json:"started,omitzero"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func newExecutionID() string { return uuid.NewString() }

func publish(bus eventbus.Bus, eventType string, ev ExecutionEvent) {
	if bus == nil {
		return
	}
	bus.Publish(eventbus.Event{Type: eventType, Time: time.Now(), Data: ev})
}
