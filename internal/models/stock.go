package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is one tracked ticker symbol together with the metrics from its
// most recent successful quote fetch. Metric fields stay null until the
// first fetch succeeds.
type Stock struct {
	Base
	Symbol           string              `gorm:"not null;uniqueIndex:uq_stocks_symbol" json:"symbol"`
	Price            decimal.NullDecimal `gorm:"type:numeric(20,6)" json:"price"`
	ForwardPE        decimal.NullDecimal `gorm:"column:forward_pe;type:numeric(20,6)" json:"forward_pe"`
	DividendYield    decimal.NullDecimal `gorm:"type:numeric(20,6)" json:"dividend_yield"`
	MovingAverage50  decimal.NullDecimal `gorm:"column:ma50;type:numeric(20,6)" json:"ma50"`
	MovingAverage200 decimal.NullDecimal `gorm:"column:ma200;type:numeric(20,6)" json:"ma200"`
	LastUpdated      *time.Time          `json:"last_updated"`
	LastErrorCode    *string             `json:"last_error_code"`
	LastError        *string             `json:"last_error"`
}

// IsFetched reports whether the stock has had at least one successful fetch.
func (s *Stock) IsFetched() bool {
	return s.LastUpdated != nil
}
