package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"pricecube/internal/config"
	"pricecube/internal/pricing"
)

// Defaults reproduce the reference dataset.
const (
	DefaultRows = 10000
)

// ErrTooFewRows is returned when the requested row count cannot give every
// product two distinct prices.
var ErrTooFewRows = errors.New("too few rows for catalog")

// maxRedraws bounds the attempts at a second, different price for a product.
const maxRedraws = 100

// MinRows is the smallest dataset Generate accepts for catalog: two rows per
// product, so every cohort has a price spread.
func MinRows(catalog *config.Catalog) int {
	if catalog == nil {
		return 0
	}
	return 2 * len(catalog.Products)
}

var (
	DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	DefaultEnd   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the seed of the generator's random source.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithRows sets the number of observations generated.
func WithRows(n int) Option {
	return func(g *Generator) { g.rows = n }
}

// WithDateRange sets the inclusive range observation dates are drawn from.
func WithDateRange(start, end time.Time) Option {
	return func(g *Generator) {
		g.start = start
		g.end = end
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator draws synthetic sale observations from a product catalog.
type Generator struct {
	catalog *config.Catalog
	seed    int64
	rows    int
	start   time.Time
	end     time.Time
	logger  *slog.Logger
}

// NewGenerator creates a generator over catalog.
func NewGenerator(catalog *config.Catalog, opts ...Option) *Generator {
	g := &Generator{
		catalog: catalog,
		seed:    pricing.DefaultSeed,
		rows:    DefaultRows,
		start:   DefaultStart,
		end:     DefaultEnd,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGeneratorFromConfig builds a generator from the pricing settings.
func NewGeneratorFromConfig(catalog *config.Catalog, cfg config.PricingConfig, logger *slog.Logger) (*Generator, error) {
	start, end, err := cfg.DateRange()
	if err != nil {
		return nil, err
	}
	return NewGenerator(catalog,
		WithSeed(cfg.Seed),
		WithRows(cfg.Rows),
		WithDateRange(start, end),
		WithLogger(logger),
	), nil
}

// Generate returns the configured number of observations. The first
// MinRows rows visit every product twice in catalog order with two different
// prices; the rest pick a product uniformly. Prices are uniform inside the
// product's sampling range rounded to cents, days uniform inside the date
// range. The output depends only on the seed, the catalog and the options.
func (g *Generator) Generate(ctx context.Context) ([]pricing.Observation, error) {
	if g.catalog == nil || len(g.catalog.Products) == 0 {
		return nil, fmt.Errorf("catalog has no products")
	}
	if g.rows <= 0 {
		return nil, fmt.Errorf("rows must be positive: %d", g.rows)
	}
	if need := MinRows(g.catalog); g.rows < need {
		return nil, fmt.Errorf("%w: %d rows, need at least %d", ErrTooFewRows, g.rows, need)
	}
	if g.end.Before(g.start) {
		return nil, fmt.Errorf("end date %s before start date %s",
			g.end.Format(pricing.DateLayout), g.start.Format(pricing.DateLayout))
	}

	rng := rand.New(rand.NewSource(g.seed))
	days := int(g.end.Sub(g.start).Hours()/24) + 1
	products := g.catalog.Products
	seeded := MinRows(g.catalog)

	observations := make([]pricing.Observation, g.rows)
	for i := range observations {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var p config.Product
		if i < seeded {
			p = products[i%len(products)]
		} else {
			p = products[rng.Intn(len(products))]
		}
		price := drawPrice(rng, p.PriceRange)
		if i >= len(products) && i < seeded {
			first := observations[i-len(products)].CurrentPrice
			for try := 0; price == first; try++ {
				if try == maxRedraws {
					return nil, fmt.Errorf("product %s: no second price in range %+v", p.SKU, p.PriceRange)
				}
				price = drawPrice(rng, p.PriceRange)
			}
		}

		observations[i] = pricing.Observation{
			SKU:                p.SKU,
			Date:               g.start.AddDate(0, 0, rng.Intn(days)),
			ProductName:        p.Name,
			ProductDescription: p.Description,
			ProductCategory:    p.Category,
			UnitCost:           p.UnitCost,
			CurrentPrice:       price,
		}
	}

	g.logger.InfoContext(ctx, "dataset generated",
		slog.Int("rows", len(observations)),
		slog.Int("products", len(products)),
		slog.Int64("seed", g.seed))
	return observations, nil
}

func drawPrice(rng *rand.Rand, r pricing.PriceBounds) float64 {
	return math.Round(uniform(rng, r.Low, r.High)*100) / 100
}

func uniform(rng *rand.Rand, low, high float64) float64 {
	return low + rng.Float64()*(high-low)
}
