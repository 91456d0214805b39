package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"pricecube/internal/pricing"
)

// Product categories.
const (
	CategoryElectronics    = "Electronics"
	CategoryApparel        = "Apparel"
	CategoryHomeKitchen    = "Home & Kitchen"
	CategorySportsOutdoors = "Sports & Outdoors"
	CategoryBeautyHealth   = "Beauty & Health"
)

// Category groups products with a shared cost range and price elasticity.
type Category struct {
	Name       string              `yaml:"name" json:"name"`
	CostRange  pricing.PriceBounds `yaml:"cost_range" json:"cost_range"`
	Elasticity float64             `yaml:"elasticity" json:"elasticity"`
}

// Product is one catalog entry with everything needed to simulate and price it.
type Product struct {
	SKU         string              `yaml:"sku" json:"sku"`
	Name        string              `yaml:"name" json:"name"`
	Description string              `yaml:"description" json:"description"`
	Category    string              `yaml:"category" json:"category"`
	UnitCost    float64             `yaml:"unit_cost" json:"unit_cost"`
	PriceRange  pricing.PriceBounds `yaml:"price_range" json:"price_range"` // sampling range
	Constraint  pricing.PriceBounds `yaml:"constraint" json:"constraint"`   // optimization bounds
	MaxUnits    float64             `yaml:"max_units" json:"max_units"`
}

// Catalog is the set of products the generator draws from.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
	Products   []Product  `yaml:"products" json:"products"`
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// CatalogFor returns the catalog named by the pricing config, or the
// built-in one when no file is configured.
func CatalogFor(cfg PricingConfig) (*Catalog, error) {
	if cfg.CatalogFile == "" {
		return DefaultCatalog(), nil
	}
	return LoadCatalog(cfg.CatalogFile)
}

// Validate checks that every product is priceable.
func (c *Catalog) Validate() error {
	if len(c.Products) == 0 {
		return fmt.Errorf("catalog has no products")
	}

	seen := make(map[string]bool, len(c.Products))
	for _, p := range c.Products {
		if p.SKU == "" {
			return fmt.Errorf("catalog product %q has no sku", p.Name)
		}
		if seen[p.SKU] {
			return fmt.Errorf("duplicate sku %s", p.SKU)
		}
		seen[p.SKU] = true

		if p.UnitCost <= 0 {
			return fmt.Errorf("product %s: unit cost must be positive", p.SKU)
		}
		if !p.PriceRange.IsValid() {
			return fmt.Errorf("product %s: invalid price range %+v", p.SKU, p.PriceRange)
		}
		if err := pricing.ValidateCohortParams(p.SKU, p.CohortParams()); err != nil {
			return err
		}
	}
	return nil
}

// CohortParams returns the pricing inputs for p.
func (p Product) CohortParams() pricing.CohortParams {
	return pricing.CohortParams{MaxUnits: p.MaxUnits, Bounds: p.Constraint}
}

// CohortParams returns the pricing inputs of every product keyed by SKU.
func (c *Catalog) CohortParams() map[string]pricing.CohortParams {
	params := make(map[string]pricing.CohortParams, len(c.Products))
	for _, p := range c.Products {
		params[p.SKU] = p.CohortParams()
	}
	return params
}

// Product looks up a product by SKU.
func (c *Catalog) Product(sku string) (Product, bool) {
	for _, p := range c.Products {
		if p.SKU == sku {
			return p, true
		}
	}
	return Product{}, false
}

// SKUs returns product SKUs in catalog order.
func (c *Catalog) SKUs() []string {
	skus := make([]string, len(c.Products))
	for i, p := range c.Products {
		skus[i] = p.SKU
	}
	return skus
}

// ByName returns the products sorted by name.
func (c *Catalog) ByName() []Product {
	out := append([]Product(nil), c.Products...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func bounds(low, high float64) pricing.PriceBounds {
	return pricing.PriceBounds{Low: low, High: high}
}

// DefaultCatalog returns the built-in 15 product catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{
			{Name: CategoryElectronics, CostRange: bounds(50, 500), Elasticity: -2.0},
			{Name: CategoryApparel, CostRange: bounds(10, 100), Elasticity: -1.5},
			{Name: CategoryHomeKitchen, CostRange: bounds(20, 200), Elasticity: -1.5},
			{Name: CategorySportsOutdoors, CostRange: bounds(15, 150), Elasticity: -1.3},
			{Name: CategoryBeautyHealth, CostRange: bounds(5, 80), Elasticity: -0.8},
		},
		Products: []Product{
			{
				SKU: "ELEC001", Name: "Wireless Headphones", Category: CategoryElectronics,
				Description: "Premium over-ear headphones with active noise cancellation, deep bass, and Bluetooth 5.0 for seamless wireless audio.",
				UnitCost:    55, PriceRange: bounds(80, 120), Constraint: bounds(90, 115), MaxUnits: 500,
			},
			{
				SKU: "ELEC002", Name: "Smartphone", Category: CategoryElectronics,
				Description: "Cutting-edge smartphone featuring a 6.5-inch OLED display, ultra-fast processor, and 128GB of storage for all your apps and media.",
				UnitCost:    240, PriceRange: bounds(300, 450), Constraint: bounds(320, 420), MaxUnits: 200,
			},
			{
				SKU: "ELEC003", Name: "Smartwatch", Category: CategoryElectronics,
				Description: "Stylish fitness smartwatch with built-in heart rate monitor, GPS tracking, sleep analysis, and water-resistant design.",
				UnitCost:    70, PriceRange: bounds(100, 180), Constraint: bounds(115, 165), MaxUnits: 350,
			},
			{
				SKU: "APP001", Name: "Denim Jeans", Category: CategoryApparel,
				Description: "Classic-fit denim jeans crafted from a stretchable cotton blend, offering comfort, durability, and timeless style.",
				UnitCost:    12, PriceRange: bounds(20, 40), Constraint: bounds(24, 36), MaxUnits: 900,
			},
			{
				SKU: "APP002", Name: "Winter Jacket", Category: CategoryApparel,
				Description: "Heavy-duty insulated winter jacket with fleece lining, windproof shell, and adjustable hood for superior cold protection.",
				UnitCost:    35, PriceRange: bounds(50, 90), Constraint: bounds(55, 85), MaxUnits: 400,
			},
			{
				SKU: "APP003", Name: "Running Shoes", Category: CategoryApparel,
				Description: "Ultra-lightweight running shoes with cushioned soles, breathable mesh upper, and shock-absorbing design for peak performance.",
				UnitCost:    20, PriceRange: bounds(30, 60), Constraint: bounds(35, 55), MaxUnits: 600,
			},
			{
				SKU: "HOME001", Name: "Blender", Category: CategoryHomeKitchen,
				Description: "High-powered blender with stainless steel blades, multiple speed settings, and a durable glass jar for smoothies, soups, and more.",
				UnitCost:    28, PriceRange: bounds(40, 80), Constraint: bounds(45, 75), MaxUnits: 450,
			},
			{
				SKU: "HOME002", Name: "Air Fryer", Category: CategoryHomeKitchen,
				Description: "Digital air fryer with rapid hot air circulation, touchscreen controls, and 5L capacity for healthy, oil-free cooking.",
				UnitCost:    45, PriceRange: bounds(60, 120), Constraint: bounds(70, 110), MaxUnits: 380,
			},
			{
				SKU: "HOME003", Name: "Cookware Set", Category: CategoryHomeKitchen,
				Description: "Comprehensive 10-piece non-stick cookware set with ergonomic handles and even heat distribution, suitable for all stovetops.",
				UnitCost:    38, PriceRange: bounds(50, 100), Constraint: bounds(55, 95), MaxUnits: 300,
			},
			{
				SKU: "SPORT001", Name: "Yoga Mat", Category: CategorySportsOutdoors,
				Description: "Eco-friendly, high-density yoga mat with anti-slip surface, optimal cushioning, and a carry strap for easy transport.",
				UnitCost:    15, PriceRange: bounds(20, 35), Constraint: bounds(22, 33), MaxUnits: 700,
			},
			{
				SKU: "SPORT002", Name: "Dumbbell Set", Category: CategorySportsOutdoors,
				Description: "Versatile adjustable dumbbell set with ergonomic grips and multiple weight options for effective strength training at home.",
				UnitCost:    30, PriceRange: bounds(40, 90), Constraint: bounds(45, 85), MaxUnits: 350,
			},
			{
				SKU: "SPORT003", Name: "Camping Tent", Category: CategorySportsOutdoors,
				Description: "Compact waterproof 2-person tent with quick setup, breathable mesh panels, and durable weather-resistant materials.",
				UnitCost:    55, PriceRange: bounds(70, 130), Constraint: bounds(80, 120), MaxUnits: 250,
			},
			{
				SKU: "BEAU001", Name: "Facial Cleanser", Category: CategoryBeautyHealth,
				Description: "Gentle daily foaming cleanser enriched with aloe vera and vitamin E, designed to remove impurities without drying the skin.",
				UnitCost:    5, PriceRange: bounds(8, 15), Constraint: bounds(9, 14), MaxUnits: 1200,
			},
			{
				SKU: "BEAU002", Name: "Hair Dryer", Category: CategoryBeautyHealth,
				Description: "Professional-grade ionic hair dryer with multiple heat and speed settings, cool shot feature, and diffuser for salon-quality results.",
				UnitCost:    14, PriceRange: bounds(20, 40), Constraint: bounds(22, 38), MaxUnits: 500,
			},
			{
				SKU: "BEAU003", Name: "Electric Toothbrush", Category: CategoryBeautyHealth,
				Description: "Rechargeable electric toothbrush with smart timer, 3 brushing modes, and long-lasting battery for superior oral hygiene.",
				UnitCost:    22, PriceRange: bounds(30, 60), Constraint: bounds(35, 55), MaxUnits: 450,
			},
		},
	}
}
