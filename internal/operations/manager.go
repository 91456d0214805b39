package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pricecube/internal/infrastructure"
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStepTimeout bounds the duration of every step. Zero disables it.
func WithStepTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.stepTimeout = d }
}

// WithMetrics records run and step metrics.
func WithMetrics(metrics *infrastructure.PricingMetrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithTracer replaces the global tracer.
func WithTracer(tracer trace.Tracer) ManagerOption {
	return func(m *Manager) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// WithManagerLogger sets the logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager executes pipeline runs step by step in dependency order and
// reports every transition to the status broadcaster.
type Manager struct {
	registry    *Registry
	broadcaster *StatusBroadcaster
	tracer      trace.Tracer
	metrics     *infrastructure.PricingMetrics
	logger      *slog.Logger
	stepTimeout time.Duration
}

// NewManager creates a manager over registry. A nil broadcaster gets a
// private one without hub.
func NewManager(registry *Registry, broadcaster *StatusBroadcaster, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: registry,
		tracer:   otel.Tracer(infrastructure.InstrumentationName),
		logger:   infrastructure.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "operations"))
	if broadcaster == nil {
		broadcaster = NewStatusBroadcaster(nil, m.logger)
	}
	m.broadcaster = broadcaster
	return m
}

// Broadcaster returns the status broadcaster runs report to.
func (m *Manager) Broadcaster() *StatusBroadcaster {
	return m.broadcaster
}

// Snapshot returns the status of a run started by this manager.
func (m *Manager) Snapshot(id string) (*OperationSnapshot, bool) {
	return m.broadcaster.GetSnapshot(id)
}

// Execute runs the pipeline for req. The returned state is non-nil once the
// request passed validation, also when a step failed.
func (m *Manager) Execute(ctx context.Context, req Request) (*OperationState, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	steps, err := m.registry.DependencyOrder()
	if err != nil {
		return nil, err
	}

	state := NewOperationState(req)
	for _, step := range steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}
	state.onProgress(func(stepID string, progress int, message string) {
		m.broadcaster.UpdateStepProgress(state.ID, stepID, progress, message)
	})

	ctx = infrastructure.WithRunID(infrastructure.EnsureTraceID(ctx), state.ID)
	ctx, span := m.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", state.ID),
			attribute.String("operation.source", req.Source),
			attribute.Int64("operation.seed", req.Seed),
			attribute.Bool("operation.round", req.Round),
		))
	defer span.End()

	logger := m.logger.With(slog.String("operation_id", state.ID))
	logger.InfoContext(ctx, "operation started",
		slog.String("source", req.Source),
		slog.Int("steps", len(steps)))

	m.broadcaster.CreateOperation(state.ID, state.Steps())
	m.broadcaster.StartOperation(state.ID)
	state.Start()
	m.metrics.RunStarted(ctx)
	defer m.metrics.RunFinished(ctx)

	start := time.Now()
	for _, step := range steps {
		if err = m.runStep(ctx, state, step, logger); err != nil {
			break
		}
	}
	duration := time.Since(start)
	m.metrics.RecordRun(ctx, req.Source, duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		if errors.Is(err, context.Canceled) {
			state.Cancel(err)
			m.broadcaster.CancelOperation(state.ID)
		} else {
			state.Fail(err)
			m.broadcaster.FailOperation(state.ID, err)
		}
		logger.ErrorContext(ctx, "operation failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return state, err
	}

	state.Complete()
	message := "Operation completed"
	if result := state.Result(); result != nil {
		message = fmt.Sprintf("%d rows derived", len(result.Rows))
	}
	m.broadcaster.CompleteOperation(state.ID, message)
	logger.InfoContext(ctx, "operation completed",
		slog.Duration("duration", duration),
		slog.Int("files", len(state.Files())))
	return state, nil
}

func (m *Manager) runStep(ctx context.Context, state *OperationState, step Step, logger *slog.Logger) error {
	st, _ := state.Step(step.ID())

	if s, ok := step.(Skipper); ok {
		if reason := s.SkipReason(state); reason != "" {
			st.Skip(reason)
			m.broadcaster.SkipStep(state.ID, step.ID(), reason)
			logger.DebugContext(ctx, "step skipped",
				slog.String("step", step.ID()),
				slog.String("reason", reason))
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		return NewExecutionError(step.ID(), err)
	}

	stepCtx, span := m.tracer.Start(ctx, "operation.step."+step.ID(),
		trace.WithAttributes(attribute.String("step.id", step.ID())))
	defer span.End()
	if m.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, m.stepTimeout)
		defer cancel()
	}

	st.Start()
	m.broadcaster.StartStep(state.ID, step.ID())
	begin := time.Now()
	err := step.Execute(stepCtx, state)
	m.metrics.RecordStep(ctx, step.ID(), time.Since(begin), err == nil)

	if err != nil {
		st.Fail(err)
		m.broadcaster.FailStep(state.ID, step.ID(), err)
		infrastructure.RecordError(stepCtx, err)
		return NewExecutionError(step.ID(), err)
	}

	st.Complete("")
	m.broadcaster.CompleteStep(state.ID, step.ID(), "")
	logger.DebugContext(ctx, "step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", st.Duration()))
	return nil
}
