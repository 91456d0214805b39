package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStep struct {
	BaseStep
	run  func(ctx context.Context, state *OperationState) error
	skip string
}

func newFakeStep(id string, deps ...string) *fakeStep {
	return &fakeStep{BaseStep: NewBaseStep(id, "Step "+id, deps...)}
}

func (f *fakeStep) Execute(ctx context.Context, state *OperationState) error {
	if f.run != nil {
		return f.run(ctx, state)
	}
	return nil
}

func (f *fakeStep) SkipReason(*OperationState) string { return f.skip }

func ids(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID()
	}
	return out
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(newFakeStep("a")))
	assert.Error(t, r.Register(newFakeStep("a")), "duplicate")
	assert.Error(t, r.Register(newFakeStep("")), "empty id")
	assert.Error(t, r.Register(nil))

	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("b"))
	assert.Equal(t, 1, r.Count())

	step, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Step a", step.Name())
}

func TestRegistry_DependencyOrder(t *testing.T) {
	tests := []struct {
		name  string
		steps []*fakeStep
		want  []string
	}{
		{
			name:  "registration order when independent",
			steps: []*fakeStep{newFakeStep("x"), newFakeStep("y"), newFakeStep("z")},
			want:  []string{"x", "y", "z"},
		},
		{
			name:  "dependencies first",
			steps: []*fakeStep{newFakeStep("c", "b"), newFakeStep("b", "a"), newFakeStep("a")},
			want:  []string{"a", "b", "c"},
		},
		{
			name: "diamond",
			steps: []*fakeStep{
				newFakeStep("source"),
				newFakeStep("derive", "source"),
				newFakeStep("export", "derive"),
				newFakeStep("persist", "derive"),
			},
			want: []string{"source", "derive", "export", "persist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, s := range tt.steps {
				require.NoError(t, r.Register(s))
			}
			order, err := r.DependencyOrder()
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(order))
		})
	}
}

func TestRegistry_DependencyErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeStep("a", "missing")))
	_, err := r.DependencyOrder()
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, ErrorTypeDependency, opErr.Type)
	assert.Error(t, r.ValidateDependencies())

	r = NewRegistry()
	require.NoError(t, r.Register(newFakeStep("a", "b")))
	require.NoError(t, r.Register(newFakeStep("b", "a")))
	require.NoError(t, r.ValidateDependencies())
	_, err = r.DependencyOrder()
	assert.ErrorContains(t, err, "circular")
}
