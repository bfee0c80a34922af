// Package provider wraps external market-data sources and normalizes their
// responses and failure modes into QuoteData and FetchError.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrorKind classifies a failed quote fetch.
type ErrorKind string

const (
	// KindInvalidSymbol means the source reports the ticker does not exist.
	KindInvalidSymbol ErrorKind = "INVALID_SYMBOL"
	// KindUnavailable covers network errors, timeouts and rate limiting.
	KindUnavailable ErrorKind = "UNAVAILABLE"
	// KindMalformedResponse means the source answered with data we cannot use.
	KindMalformedResponse ErrorKind = "MALFORMED_RESPONSE"
)

// QuoteData is the normalized set of metrics for one symbol. Fields the
// source does not report are null.
type QuoteData struct {
	Symbol           string              `json:"symbol"`
	Price            decimal.NullDecimal `json:"price"`
	ForwardPE        decimal.NullDecimal `json:"forward_pe"`
	DividendYield    decimal.NullDecimal `json:"dividend_yield"`
	MovingAverage50  decimal.NullDecimal `json:"ma50"`
	MovingAverage200 decimal.NullDecimal `json:"ma200"`
	FetchedAt        time.Time           `json:"fetched_at"`
}

// FetchError represents a failed quote fetch for a specific symbol.
type FetchError struct {
	Symbol string
	Kind   ErrorKind
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetching quote for %s: %v", e.Kind, e.Symbol, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

func newFetchError(symbol string, kind ErrorKind, format string, args ...any) *FetchError {
	return &FetchError{Symbol: symbol, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the ErrorKind carried by err. Errors that are not a
// FetchError are treated as the source being unavailable.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnavailable
}

// Provider fetches current metrics for a ticker symbol.
type Provider interface {
	// Name returns the provider's display name (e.g., "Yahoo Finance").
	Name() string

	// FetchQuote fetches metrics for one uppercase symbol. Any returned
	// error is a *FetchError. Implementations never retry.
	FetchQuote(ctx context.Context, symbol string) (*QuoteData, error)
}

// FetchQuotes fetches many symbols with at most limit requests in flight.
// Each symbol succeeds or fails independently of the others.
func FetchQuotes(ctx context.Context, p Provider, symbols []string, limit int) (map[string]*QuoteData, map[string]error) {
	quotes := make(map[string]*QuoteData, len(symbols))
	failures := make(map[string]error)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			q, err := p.FetchQuote(gctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[symbol] = err
			} else {
				quotes[symbol] = q
			}
			return nil
		})
	}
	_ = g.Wait()

	return quotes, failures
}
