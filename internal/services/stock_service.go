package services

import (
	apperrors "stockscreener/internal/errors"
	"stockscreener/internal/models"
	"stockscreener/internal/screening"
)

// stockService combines the store, the sync engine and the screening filter.
type stockService struct {
	store  StockStore
	syncer Syncer
}

// NewStockService creates a new StockServicer.
func NewStockService(store StockStore, syncer Syncer) StockServicer {
	return &stockService{store: store, syncer: syncer}
}

// AddStocks adds the given symbols and schedules their first fetch.
func (s *stockService) AddStocks(symbols []string) (*AddResult, error) {
	if len(symbols) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "At least one symbol is required")
	}
	return s.syncer.AddSymbols(symbols), nil
}

// ListStocks returns the stored stocks that satisfy filter, in insertion order.
func (s *stockService) ListStocks(filter screening.FilterSpec) ([]models.Stock, error) {
	stocks, err := s.store.GetAll()
	if err != nil {
		return nil, err
	}
	return screening.Filter(stocks, filter), nil
}

// GetStockByID returns a single stock.
func (s *stockService) GetStockByID(id uint) (*models.Stock, error) {
	return s.store.GetByID(id)
}

// RemoveStock deletes a stock. A fetch still running for it is discarded when it completes.
func (s *stockService) RemoveStock(id uint) (*models.Stock, error) {
	return s.store.Delete(id)
}

// RefreshStock schedules a fetch for an existing stock and returns its current state.
func (s *stockService) RefreshStock(id uint) (*models.Stock, error) {
	stock, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	s.syncer.Refresh(stock.Symbol)
	return stock, nil
}
