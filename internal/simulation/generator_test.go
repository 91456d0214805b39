package simulation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecube/internal/config"
	"pricecube/internal/pricing"
)

func TestGenerator_Generate(t *testing.T) {
	catalog := config.DefaultCatalog()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	g := NewGenerator(catalog, WithRows(2000), WithSeed(7), WithDateRange(start, end))
	obs, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 2000)

	seen := make(map[string]bool)
	for _, o := range obs {
		p, ok := catalog.Product(o.SKU)
		require.True(t, ok, o.SKU)
		seen[o.SKU] = true

		assert.Equal(t, p.Name, o.ProductName)
		assert.Equal(t, p.Category, o.ProductCategory)
		assert.Equal(t, p.UnitCost, o.UnitCost)
		assert.True(t, p.PriceRange.Contains(o.CurrentPrice), "%s price %v", o.SKU, o.CurrentPrice)
		assert.InDelta(t, o.CurrentPrice, math.Round(o.CurrentPrice*100)/100, 1e-9, "cents")
		assert.False(t, o.Date.Before(start) || o.Date.After(end), o.Date)
	}
	assert.Len(t, seen, len(catalog.Products), "every product is drawn")
}

func TestGenerator_Deterministic(t *testing.T) {
	catalog := config.DefaultCatalog()

	a, err := NewGenerator(catalog, WithRows(500)).Generate(context.Background())
	require.NoError(t, err)
	b, err := NewGenerator(catalog, WithRows(500)).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewGenerator(catalog, WithRows(500), WithSeed(43)).Generate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerator_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewGenerator(&config.Catalog{}).Generate(ctx)
	assert.Error(t, err)

	_, err = NewGenerator(config.DefaultCatalog(), WithRows(0)).Generate(ctx)
	assert.Error(t, err)

	_, err = NewGenerator(config.DefaultCatalog(), WithRows(MinRows(config.DefaultCatalog())-1)).Generate(ctx)
	assert.ErrorIs(t, err, ErrTooFewRows)

	_, err = NewGenerator(config.DefaultCatalog(), WithDateRange(DefaultEnd, DefaultStart)).Generate(ctx)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewGenerator(config.DefaultCatalog()).Generate(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerator_FromConfig(t *testing.T) {
	cfg := config.Default().Pricing
	cfg.Rows = 50
	cfg.StartDate = "2024-02-01"
	cfg.EndDate = "2024-02-01"

	g, err := NewGeneratorFromConfig(config.DefaultCatalog(), cfg, nil)
	require.NoError(t, err)

	obs, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 50)
	for _, o := range obs {
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), o.Date)
	}

	cfg.EndDate = "not a date"
	_, err = NewGeneratorFromConfig(config.DefaultCatalog(), cfg, nil)
	assert.Error(t, err)
}

func TestGenerator_FeedsDeriver(t *testing.T) {
	catalog := config.DefaultCatalog()
	obs, err := NewGenerator(catalog, WithRows(3000)).Generate(context.Background())
	require.NoError(t, err)

	result, err := pricing.NewDeriver(catalog.CohortParams()).Derive(context.Background(), obs)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 3000)
	assert.Len(t, result.Cohorts, len(catalog.Products))
}

func TestGenerator_SmallDatasetsDerive(t *testing.T) {
	catalog := config.DefaultCatalog()
	require.Equal(t, 2*len(catalog.Products), MinRows(catalog))

	for _, rows := range []int{MinRows(catalog), MinRows(catalog) + 1, 50, 100} {
		obs, err := NewGenerator(catalog, WithRows(rows), WithSeed(int64(rows))).Generate(context.Background())
		require.NoError(t, err, "rows=%d", rows)

		prices := make(map[string]map[float64]bool)
		for _, o := range obs {
			if prices[o.SKU] == nil {
				prices[o.SKU] = make(map[float64]bool)
			}
			prices[o.SKU][o.CurrentPrice] = true
		}
		assert.Len(t, prices, len(catalog.Products), "rows=%d", rows)
		for sku, seen := range prices {
			assert.GreaterOrEqual(t, len(seen), 2, "rows=%d sku=%s", rows, sku)
		}

		result, err := pricing.NewDeriver(catalog.CohortParams()).Derive(context.Background(), obs)
		require.NoError(t, err, "rows=%d", rows)
		assert.Len(t, result.Rows, rows)
	}
}
