package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizationRecap_RevenueUplift(t *testing.T) {
	assert.InDelta(t, 0.25, OptimizationRecap{CurrentRevenue: 100, ExpectedRevenue: 125}.RevenueUplift(), 1e-12)
	assert.Equal(t, 0.0, OptimizationRecap{ExpectedRevenue: 10}.RevenueUplift())
}

func TestSkuModal_NullOptimum(t *testing.T) {
	data, err := json.Marshal(SkuModal{SKU: "A1", SuggestedOptimal: &Point{X: 1, Y: 2}})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["global_optimal"])
	assert.Equal(t, map[string]interface{}{"x": 1.0, "y": 2.0}, decoded["suggested_optimal"])
}
