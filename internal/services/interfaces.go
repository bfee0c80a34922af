package services

import (
	"stockscreener/internal/models"
	"stockscreener/internal/provider"
	"stockscreener/internal/screening"
)

// StockStore persists one record per ticker symbol. UpdateMetrics is the
// only mutation after Create and is applied atomically.
type StockStore interface {
	Create(symbol string) (*models.Stock, error)
	GetAll() ([]models.Stock, error)
	GetByID(id uint) (*models.Stock, error)
	Exists(symbol string) (bool, error)
	UpdateMetrics(symbol string, quote *provider.QuoteData, fetchErr error) error
	Delete(id uint) (*models.Stock, error)
}

// Rejection explains why an input symbol was not added.
type Rejection struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// AddResult reports which symbols were added and which were rejected.
type AddResult struct {
	Accepted []string    `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// Syncer creates stock records and keeps their metrics up to date in the background.
type Syncer interface {
	AddSymbols(symbols []string) *AddResult
	Refresh(symbol string) bool
}

// StockServicer defines the contract for the stock list operations exposed over HTTP.
type StockServicer interface {
	AddStocks(symbols []string) (*AddResult, error)
	ListStocks(filter screening.FilterSpec) ([]models.Stock, error)
	GetStockByID(id uint) (*models.Stock, error)
	RemoveStock(id uint) (*models.Stock, error)
	RefreshStock(id uint) (*models.Stock, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
