package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())

	assert.Len(t, c.Products, 15)
	assert.Len(t, c.Categories, 5)

	categories := make(map[string]Category)
	for _, cat := range c.Categories {
		categories[cat.Name] = cat
	}

	for _, p := range c.Products {
		t.Run(p.SKU, func(t *testing.T) {
			cat, ok := categories[p.Category]
			require.True(t, ok, "unknown category %q", p.Category)
			assert.True(t, cat.CostRange.Contains(p.UnitCost), "cost outside category range")
			assert.Less(t, p.UnitCost, p.PriceRange.Low, "cost must be below every sampled price")
			assert.GreaterOrEqual(t, p.Constraint.Low, p.PriceRange.Low)
			assert.LessOrEqual(t, p.Constraint.High, p.PriceRange.High)
			assert.NotEmpty(t, p.Description)
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	c := DefaultCatalog()

	p, ok := c.Product("BEAU002")
	require.True(t, ok)
	assert.Equal(t, "Hair Dryer", p.Name)

	_, ok = c.Product("NOPE")
	assert.False(t, ok)

	params := c.CohortParams()
	assert.Len(t, params, 15)
	assert.Equal(t, 500.0, params["ELEC001"].MaxUnits)
	assert.Equal(t, 90.0, params["ELEC001"].Bounds.Low)

	assert.Equal(t, "ELEC001", c.SKUs()[0])

	byName := c.ByName()
	assert.Equal(t, "Air Fryer", byName[0].Name)
	assert.Equal(t, "Yoga Mat", byName[len(byName)-1].Name)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.yaml", `
products:
  - sku: TEST001
    name: Test Product
    category: Testing
    unit_cost: 10
    price_range: {low: 15, high: 30}
    constraint: {low: 18, high: 28}
    max_units: 100
`)

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Products, 1)
	assert.Equal(t, 18.0, c.Products[0].Constraint.Low)

	loaded, err := CatalogFor(PricingConfig{CatalogFile: path})
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	builtin, err := CatalogFor(PricingConfig{})
	require.NoError(t, err)
	assert.Len(t, builtin.Products, 15)
}

func TestCatalogValidate(t *testing.T) {
	valid := Product{SKU: "A", UnitCost: 1, PriceRange: bounds(2, 3), Constraint: bounds(2, 3), MaxUnits: 10}

	tests := []struct {
		name     string
		products []Product
	}{
		{"empty", nil},
		{"duplicate", []Product{valid, valid}},
		{"no sku", []Product{{UnitCost: 1, PriceRange: bounds(2, 3), Constraint: bounds(2, 3), MaxUnits: 10}}},
		{"zero cost", []Product{{SKU: "A", PriceRange: bounds(2, 3), Constraint: bounds(2, 3), MaxUnits: 10}}},
		{"bad range", []Product{{SKU: "A", UnitCost: 1, PriceRange: bounds(3, 2), Constraint: bounds(2, 3), MaxUnits: 10}}},
		{"no max units", []Product{{SKU: "A", UnitCost: 1, PriceRange: bounds(2, 3), Constraint: bounds(2, 3)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, (&Catalog{Products: tt.products}).Validate())
		})
	}
}
