// Package screening evaluates threshold filters over stored stock records.
package screening

import (
	"github.com/shopspring/decimal"

	"stockscreener/internal/models"
)

// FilterSpec holds optional screening criteria. A nil or false field places
// no constraint on that dimension; active constraints are combined with AND.
type FilterSpec struct {
	MaxForwardPE     *decimal.Decimal
	MinDividendYield *decimal.Decimal
	AboveMA50        bool
	AboveMA200       bool
}

// IsEmpty reports whether no constraint is active.
func (f FilterSpec) IsEmpty() bool {
	return f.MaxForwardPE == nil && f.MinDividendYield == nil && !f.AboveMA50 && !f.AboveMA200
}

// Filter returns the stocks matching spec, preserving input order. A null
// metric never satisfies an active constraint, so stocks that have not been
// fetched yet only appear when spec is empty.
func Filter(stocks []models.Stock, spec FilterSpec) []models.Stock {
	result := make([]models.Stock, 0, len(stocks))
	for i := range stocks {
		if Matches(&stocks[i], spec) {
			result = append(result, stocks[i])
		}
	}
	return result
}

// Matches evaluates spec against a single stock.
func Matches(s *models.Stock, spec FilterSpec) bool {
	if spec.IsEmpty() {
		return true
	}
	if !s.IsFetched() {
		return false
	}

	if spec.MaxForwardPE != nil {
		if !s.ForwardPE.Valid || s.ForwardPE.Decimal.GreaterThan(*spec.MaxForwardPE) {
			return false
		}
	}
	if spec.MinDividendYield != nil {
		if !s.DividendYield.Valid || s.DividendYield.Decimal.LessThan(*spec.MinDividendYield) {
			return false
		}
	}
	if spec.AboveMA50 && !priceAbove(s.Price, s.MovingAverage50) {
		return false
	}
	if spec.AboveMA200 && !priceAbove(s.Price, s.MovingAverage200) {
		return false
	}
	return true
}

func priceAbove(price, average decimal.NullDecimal) bool {
	return price.Valid && average.Valid && price.Decimal.GreaterThan(average.Decimal)
}
