package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticDecayInflection(t *testing.T) {
	tests := []struct {
		name     string
		maxUnits float64
		k        float64
		p0       float64
	}{
		{"unit curve", 1, 1, 0},
		{"headphones", 500, 0.25, 100},
		{"steep", 80, 3.7, 12.5},
		{"shallow", 1200, 0.01, 333.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.maxUnits/2, LogisticDecay(tt.p0, tt.maxUnits, tt.k, tt.p0))
		})
	}
}

func TestLogisticDecayMonotone(t *testing.T) {
	for _, k := range []float64{0.05, 0.5, 2, 10} {
		prev := LogisticDecay(0, 100, k, 50)
		for p := 0.5; p <= 200; p += 0.5 {
			v := LogisticDecay(p, 100, k, 50)
			assert.LessOrEqual(t, v, prev, "k=%v p=%v", k, p)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
			prev = v
		}
	}
}

func TestCurveVolumes(t *testing.T) {
	c := Curve{MaxUnits: 100, Steepness: 0.3, Inflection: 70}
	prices := []float64{55, 60, 70, 80, 95}

	volumes := c.Volumes(prices)
	require.Len(t, volumes, len(prices))
	for i, p := range prices {
		assert.Equal(t, c.Volume(p), volumes[i])
	}
	assert.Equal(t, 50.0, volumes[2])
	assert.Empty(t, c.Volumes(nil))
}

func TestFitCurve(t *testing.T) {
	c := fitCurve([]float64{60, 70, 80}, 100, 8)

	assert.Equal(t, 100.0, c.MaxUnits)
	assert.Equal(t, 70.0, c.Inflection)
	assert.InDelta(t, 0.4, c.Steepness, 1e-12)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, median([]float64{1, 3, 9}))
	assert.Equal(t, 70.0, median([]float64{60, 80}))
	assert.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
	assert.True(t, median(nil) != median(nil), "median of empty input is NaN")
}
