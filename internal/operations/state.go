package operations

import (
	"sync"
	"time"

	"pricecube/internal/pricing"
	"pricecube/internal/storage"
)

// OperationStatus represents the overall status of an operation
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState is one pipeline run: its request, the state of each step
// and the data the steps hand to each other.
type OperationState struct {
	ID        string
	Request   Request
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps     map[string]*StepState
	stepOrder []string

	observations []pricing.Observation
	result       *pricing.Result
	files        []string
	run          *storage.Run

	progress func(stepID string, progress int, message string)

	mu sync.RWMutex
}

// NewOperationState creates a pending operation for req.
func NewOperationState(req Request) *OperationState {
	return &OperationState{
		ID:      req.ID,
		Request: req,
		Status:  OperationStatusPending,
		steps:   make(map[string]*StepState),
	}
}

// Start marks the operation as running
func (s *OperationState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = OperationStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the operation as completed
func (s *OperationState) Complete() {
	s.finish(OperationStatusCompleted, nil)
}

// Fail marks the operation as failed
func (s *OperationState) Fail(err error) {
	s.finish(OperationStatusFailed, err)
}

// Cancel marks the operation as cancelled
func (s *OperationState) Cancel(err error) {
	s.finish(OperationStatusCancelled, err)
}

func (s *OperationState) finish(status OperationStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Status = status
	s.EndTime = &now
	s.Error = err
}

// GetStatus returns the current status.
func (s *OperationState) GetStatus() OperationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// AddStep registers the state of a step, keeping insertion order.
func (s *OperationState) AddStep(step *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[step.ID]; !ok {
		s.stepOrder = append(s.stepOrder, step.ID)
	}
	s.steps[step.ID] = step
}

// Step returns the state of a step.
func (s *OperationState) Step(id string) (*StepState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.steps[id]
	return st, ok
}

// Steps returns the step states in execution order.
func (s *OperationState) Steps() []*StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StepState, len(s.stepOrder))
	for i, id := range s.stepOrder {
		out[i] = s.steps[id]
	}
	return out
}

// ReportProgress updates a running step and forwards the update to the
// operation's listener.
func (s *OperationState) ReportProgress(stepID string, progress int, message string) {
	s.mu.RLock()
	st := s.steps[stepID]
	listener := s.progress
	s.mu.RUnlock()

	if st != nil {
		st.UpdateProgress(progress, message)
	}
	if listener != nil {
		listener(stepID, progress, message)
	}
}

func (s *OperationState) onProgress(fn func(stepID string, progress int, message string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = fn
}

// SetObservations stores the loaded input table.
func (s *OperationState) SetObservations(obs []pricing.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = obs
}

// Observations returns the loaded input table.
func (s *OperationState) Observations() []pricing.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observations
}

// SetResult stores the derived table.
func (s *OperationState) SetResult(result *pricing.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

// Result returns the derived table, nil before the derive step.
func (s *OperationState) Result() *pricing.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// AddFiles records written output files.
func (s *OperationState) AddFiles(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, paths...)
}

// Files returns the written output files.
func (s *OperationState) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.files...)
}

// SetRun stores the persisted run.
func (s *OperationState) SetRun(run *storage.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = run
}

// Run returns the persisted run, nil when persistence was skipped.
func (s *OperationState) Run() *storage.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run
}
