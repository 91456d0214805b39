package operations

import (
	"context"
	"sync"
	"time"
)

// Step is one unit of the pricing pipeline.
type Step interface {
	ID() string
	Name() string
	// Dependencies lists the IDs of steps that must run first.
	Dependencies() []string
	Execute(ctx context.Context, state *OperationState) error
}

// Skipper is implemented by steps that do not apply to every request.
// A non-empty reason skips the step.
type Skipper interface {
	SkipReason(state *OperationState) string
}

// StepStatus represents the status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// IsTerminal reports whether the status is final.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusFailed || s == StepStatusSkipped
}

// StepState tracks one step of a running operation.
type StepState struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Error     string     `json:"error,omitempty"`

	mu sync.RWMutex
}

// NewStepState creates a pending step state.
func NewStepState(id, name string) *StepState {
	return &StepState{ID: id, Name: name, Status: StepStatusPending}
}

// Start marks the step as running
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Status = StepStatusRunning
	s.StartTime = &now
	s.Progress = 0
}

// Complete marks the step as completed
func (s *StepState) Complete(message string) {
	s.finish(StepStatusCompleted, message, "")
}

// Fail marks the step as failed
func (s *StepState) Fail(err error) {
	s.finish(StepStatusFailed, "", err.Error())
}

// Skip marks the step as skipped
func (s *StepState) Skip(reason string) {
	s.finish(StepStatusSkipped, reason, "")
}

func (s *StepState) finish(status StepStatus, message, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Status = status
	s.EndTime = &now
	if message != "" {
		s.Message = message
	}
	s.Error = errMsg
	if status != StepStatusFailed {
		s.Progress = 100
	}
}

// UpdateProgress updates the step progress, clamped to [0, 100].
func (s *StepState) UpdateProgress(progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.Progress = progress
	s.Message = message
}

// GetStatus returns the current status.
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns how long the step ran, or has been running.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime == nil {
		return time.Since(*s.StartTime)
	}
	return s.EndTime.Sub(*s.StartTime)
}

// BaseStep carries the identity every step shares.
type BaseStep struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStep creates a new base step
func NewBaseStep(id, name string, dependencies ...string) BaseStep {
	return BaseStep{id: id, name: name, dependencies: dependencies}
}

// ID returns the step ID
func (b BaseStep) ID() string { return b.id }

// Name returns the step name
func (b BaseStep) Name() string { return b.name }

// Dependencies returns the step dependencies
func (b BaseStep) Dependencies() []string { return b.dependencies }
