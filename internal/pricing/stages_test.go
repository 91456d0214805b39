package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	table := []Observation{
		obs("B", 10, 30), obs("A", 5, 9), obs("B", 10, 20), obs("A", 5, 7), obs("B", 10, 25),
	}

	cohorts := Partition(table)
	require.Len(t, cohorts, 2)

	assert.Equal(t, "A", cohorts[0].SKU)
	assert.Equal(t, []float64{7, 9}, cohorts[0].Prices())
	assert.Equal(t, 5.0, cohorts[0].Cost())

	assert.Equal(t, "B", cohorts[1].SKU)
	assert.Equal(t, []float64{20, 25, 30}, cohorts[1].Prices())

	assert.Empty(t, Partition(nil))
	assert.Equal(t, 0.0, Cohort{}.Cost())
}

func TestPartitionStableForEqualPrices(t *testing.T) {
	first := obs("A", 5, 10)
	first.ProductName = "first"
	second := obs("A", 5, 10)
	second.ProductName = "second"

	cohorts := Partition([]Observation{first, obs("A", 5, 8), second})
	require.Len(t, cohorts, 1)
	assert.Equal(t, "first", cohorts[0].Observations[1].ProductName)
	assert.Equal(t, "second", cohorts[0].Observations[2].ProductName)
}

func TestDeriveMarginMetrics(t *testing.T) {
	rows := []Row{
		{
			Observation:       obs("A", 50, 60),
			UnitsSold:         10,
			SuggestedPrice:    ptr(70),
			ExpectedUnitsSold: ptr(8),
		},
	}

	DeriveMarginMetrics(rows)
	r := rows[0]

	assert.InDelta(t, 0.2, r.CurrentMarginPercentage, 1e-12)
	assert.InDelta(t, 100.0, r.CurrentNetMargin, 1e-12)
	require.NotNil(t, r.SuggestedMarginPercentage)
	assert.InDelta(t, 0.4, *r.SuggestedMarginPercentage, 1e-12)
	require.NotNil(t, r.ExpectedNetMarginExpectedVolume)
	assert.InDelta(t, 160.0, *r.ExpectedNetMarginExpectedVolume, 1e-12)
	assert.Nil(t, r.OptimalMarginPercentage)
	assert.Nil(t, r.OptimalNetMargin)
}

func TestDeriveRevenueMetrics(t *testing.T) {
	rows := []Row{
		{
			Observation:        obs("A", 50, 60),
			UnitsSold:          10,
			SuggestedPrice:     ptr(70),
			ExpectedUnitsSold:  ptr(8),
			GlobalOptimalPrice: ptr(65),
		},
	}

	DeriveRevenueMetrics(rows)
	r := rows[0]

	assert.Equal(t, 600.0, r.CurrentRevenue)
	require.NotNil(t, r.ExpectedRevenueExpectedVolume)
	assert.Equal(t, 560.0, *r.ExpectedRevenueExpectedVolume)
	// optimal units are missing, so the optimal revenue is too
	assert.Nil(t, r.OptimalRevenue)
}

func TestRowRecord(t *testing.T) {
	r := Row{
		Observation:    obs("A", 50, 60.5),
		MinPrice:       55,
		MaxPrice:       90,
		UnitsSold:      12,
		SuggestedPrice: ptr(71.25),
	}

	rec := r.Record()
	require.Len(t, rec, len(Columns))
	assert.Equal(t, "A", rec[0])
	assert.Equal(t, "2024-03-01", rec[1])
	assert.Equal(t, "60.5", rec[6])
	assert.Equal(t, "71.25", rec[9])
	assert.Equal(t, "", rec[10])
	assert.Equal(t, "12", rec[11])
	assert.Equal(t, 600.0, r.Costs())
}

func TestValidateCohortParams(t *testing.T) {
	assert.NoError(t, ValidateCohortParams("A", CohortParams{MaxUnits: 1, Bounds: PriceBounds{1, 2}}))
	assert.Error(t, ValidateCohortParams("A", CohortParams{MaxUnits: -1, Bounds: PriceBounds{1, 2}}))
	assert.Error(t, ValidateCohortParams("A", CohortParams{MaxUnits: 1, Bounds: PriceBounds{2, 2}}))
	assert.ErrorIs(t, ValidateCohortParams("A", CohortParams{MaxUnits: 1, Bounds: PriceBounds{3, 2}}), ErrInvalidCohortData)
}
