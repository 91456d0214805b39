package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCohortData marks input whose metrics would be undefined.
var ErrInvalidCohortData = errors.New("invalid cohort data")

// ValidationError represents a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in field %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets callers match any validation failure with ErrInvalidCohortData.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidCohortData
}

// CohortError describes why one SKU cohort was rejected.
type CohortError struct {
	SKU    string
	Reason string
}

func (e *CohortError) Error() string {
	return fmt.Sprintf("cohort %s: %s", e.SKU, e.Reason)
}

func (e *CohortError) Unwrap() error {
	return ErrInvalidCohortData
}

// CohortErrors collects every rejected cohort of a table.
type CohortErrors []*CohortError

func (es CohortErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidCohortData, strings.Join(parts, "; "))
}

func (es CohortErrors) Unwrap() error {
	return ErrInvalidCohortData
}

// SKUs returns the rejected SKUs in ascending order.
func (es CohortErrors) SKUs() []string {
	seen := make(map[string]bool, len(es))
	var skus []string
	for _, e := range es {
		if !seen[e.SKU] {
			seen[e.SKU] = true
			skus = append(skus, e.SKU)
		}
	}
	sort.Strings(skus)
	return skus
}

// ValidateCohortParams checks the configured inputs for one SKU.
func ValidateCohortParams(sku string, p CohortParams) error {
	if !isFinite(p.MaxUnits) || p.MaxUnits <= 0 {
		return &ValidationError{
			Field:   sku + ".max_units",
			Message: "maximum units must be positive and finite",
			Value:   p.MaxUnits,
		}
	}
	if !p.Bounds.IsValid() {
		return &ValidationError{
			Field:   sku + ".bounds",
			Message: "price bounds must be finite with low < high",
			Value:   p.Bounds,
		}
	}
	return nil
}

// ValidateObservations checks every cohort and returns all problems at once.
// A nil return guarantees that each cohort is non-empty, cost-homogeneous
// with a positive cost, has a non-zero price spread and has parameters.
func ValidateObservations(cohorts []Cohort, params map[string]CohortParams) error {
	if len(cohorts) == 0 {
		return &ValidationError{Field: "observations", Message: "no observations provided", Value: 0}
	}

	var errs CohortErrors
	reject := func(sku, format string, args ...interface{}) {
		errs = append(errs, &CohortError{SKU: sku, Reason: fmt.Sprintf(format, args...)})
	}

	for _, c := range cohorts {
		if c.SKU == "" {
			reject(c.SKU, "empty sku")
		}
		if len(c.Observations) == 0 {
			reject(c.SKU, "no observations")
			continue
		}

		cost := c.Observations[0].UnitCost
		if !isFinite(cost) || cost <= 0 {
			reject(c.SKU, "unit cost must be positive, got %v", cost)
		}
		for _, o := range c.Observations[1:] {
			if o.UnitCost != cost {
				reject(c.SKU, "mixed unit costs %v and %v", cost, o.UnitCost)
				break
			}
		}
		for _, o := range c.Observations {
			if !isFinite(o.CurrentPrice) || o.CurrentPrice <= 0 {
				reject(c.SKU, "current price must be positive and finite, got %v", o.CurrentPrice)
				break
			}
		}
		prices := c.Prices()
		if len(prices) > 0 && isFinite(prices[0]) && prices[len(prices)-1] == prices[0] {
			reject(c.SKU, "zero price spread at %v", prices[0])
		}

		p, ok := params[c.SKU]
		if !ok {
			reject(c.SKU, "no cohort parameters configured")
			continue
		}
		if err := ValidateCohortParams(c.SKU, p); err != nil {
			reject(c.SKU, "%v", err)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
