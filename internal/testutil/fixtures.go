package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"stockscreener/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Metrics describes the fetched values of a test stock. Empty strings are stored as null.
type Metrics struct {
	Price         string
	ForwardPE     string
	DividendYield string
	MA50          string
	MA200         string
}

// CreateTestStock creates a stock with a unique symbol and no metrics yet.
func CreateTestStock(t *testing.T, db *gorm.DB) *models.Stock {
	t.Helper()
	return CreateTestStockWithSymbol(t, db, fmt.Sprintf("TST%d", nextID()))
}

// CreateTestStockWithSymbol creates a pending stock with the given symbol.
func CreateTestStockWithSymbol(t *testing.T, db *gorm.DB, symbol string) *models.Stock {
	t.Helper()

	stock := &models.Stock{Symbol: symbol}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test stock: %v", err)
	}
	return stock
}

// CreateFetchedStock creates a stock whose metrics were already fetched.
func CreateFetchedStock(t *testing.T, db *gorm.DB, symbol string, m Metrics) *models.Stock {
	t.Helper()

	now := time.Now().UTC()
	stock := &models.Stock{
		Symbol:           symbol,
		Price:            Dec(m.Price),
		ForwardPE:        Dec(m.ForwardPE),
		DividendYield:    Dec(m.DividendYield),
		MovingAverage50:  Dec(m.MA50),
		MovingAverage200: Dec(m.MA200),
		LastUpdated:      &now,
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create fetched test stock: %v", err)
	}
	return stock
}

// Dec parses s into a NullDecimal; an empty string yields null. Panics on bad input.
func Dec(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
