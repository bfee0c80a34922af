package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "stockscreener/internal/errors"
	"stockscreener/internal/models"
	"stockscreener/internal/provider"
)

// stockStore is the GORM-backed StockStore.
type stockStore struct {
	db *gorm.DB
}

// NewStockStore creates a new StockStore.
func NewStockStore(db *gorm.DB) StockStore {
	return &stockStore{db: db}
}

// Create inserts a stock with no metrics. Symbols are compared after
// uppercasing, so "aapl" collides with an existing "AAPL".
func (s *stockStore) Create(symbol string) (*models.Stock, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidFormat, "Symbol is required")
	}

	stock := &models.Stock{Symbol: normalized}
	if err := s.db.Create(stock).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrAlreadyExists
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stock, nil
}

// GetAll returns every stock in insertion order.
func (s *stockStore) GetAll() ([]models.Stock, error) {
	var stocks []models.Stock
	if err := s.db.Order("id ASC").Find(&stocks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stocks, nil
}

// GetByID returns a stock by its ID.
func (s *stockStore) GetByID(id uint) (*models.Stock, error) {
	var stock models.Stock
	if err := s.db.First(&stock, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}

// Exists reports whether a stock with the given symbol is stored.
func (s *stockStore) Exists(symbol string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Stock{}).Where("symbol = ?", symbol).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// UpdateMetrics records the outcome of a fetch in a single UPDATE. On
// success every metric is overwritten and the error cleared; on failure
// only the error columns change, so earlier metrics survive. Returns
// ErrStockNotFound when the row no longer exists.
func (s *stockStore) UpdateMetrics(symbol string, quote *provider.QuoteData, fetchErr error) error {
	var updates map[string]interface{}
	switch {
	case fetchErr != nil:
		updates = map[string]interface{}{
			"last_error_code": string(provider.KindOf(fetchErr)),
			"last_error":      fetchErr.Error(),
		}
	case quote != nil:
		fetchedAt := quote.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = time.Now().UTC()
		}
		updates = map[string]interface{}{
			"price":           quote.Price,
			"forward_pe":      quote.ForwardPE,
			"dividend_yield":  quote.DividendYield,
			"ma50":            quote.MovingAverage50,
			"ma200":           quote.MovingAverage200,
			"last_updated":    fetchedAt,
			"last_error_code": nil,
			"last_error":      nil,
		}
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Either a quote or a fetch error is required")
	}

	result := s.db.Model(&models.Stock{}).Where("symbol = ?", symbol).Updates(updates)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrStockNotFound
	}
	return nil
}

// Delete removes a stock permanently and returns the removed record.
func (s *stockStore) Delete(id uint) (*models.Stock, error) {
	var stock models.Stock
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&stock, id).Error; err != nil {
			return err
		}
		return tx.Delete(&stock).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}

// isUniqueConstraintError checks if a GORM error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
