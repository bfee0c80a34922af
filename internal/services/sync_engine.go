package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "stockscreener/internal/errors"
	"stockscreener/internal/logger"
	"stockscreener/internal/provider"
	"stockscreener/internal/validator"
)

// SyncConfig tunes the background quote sync.
type SyncConfig struct {
	Workers      int
	FetchTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// Interval between full refreshes of every stored stock. Zero disables them.
	Interval time.Duration
}

// DefaultSyncConfig returns the settings used when nothing is configured.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Workers:      4,
		FetchTimeout: 10 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 2 * time.Second,
		Interval:     15 * time.Minute,
	}
}

type symbolState int

const (
	stateQueued symbolState = iota + 1
	stateRunning
	// stateRunningDirty means a refresh arrived while the fetch was running;
	// the symbol is queued again once the current fetch finishes.
	stateRunningDirty
)

// SyncEngine fetches quotes in the background and writes them to the store.
// Each symbol has at most one fetch running and at most one queued behind it.
type SyncEngine struct {
	store    StockStore
	provider provider.Provider
	config   SyncConfig
	log      *zap.SugaredLogger

	mu      sync.Mutex
	pending []string
	states  map[string]symbolState
	wake    chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewSyncEngine creates a SyncEngine. Call Start to begin processing.
func NewSyncEngine(store StockStore, p provider.Provider, config SyncConfig) *SyncEngine {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &SyncEngine{
		store:    store,
		provider: p,
		config:   config,
		log:      logger.Named("sync"),
		states:   make(map[string]symbolState),
		wake:     make(chan struct{}, 1),
	}
}

// Start launches the workers and, when an interval is configured, the
// periodic refresh loop. Work queued before Start is picked up.
func (e *SyncEngine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.mu.Unlock()

	for i := 0; i < e.config.Workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	if e.config.Interval > 0 {
		e.wg.Add(1)
		go e.periodicLoop()
	}

	e.log.Infow("sync engine started",
		"provider", e.provider.Name(),
		"workers", e.config.Workers,
		"interval", e.config.Interval,
	)
}

// Stop cancels in-flight fetches and waits for the workers to exit.
func (e *SyncEngine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	e.wg.Wait()
	e.log.Info("sync engine stopped")
}

// AddSymbols validates and stores each symbol, then schedules its first
// fetch. It never waits on the network.
func (e *SyncEngine) AddSymbols(symbols []string) *AddResult {
	result := &AddResult{Accepted: []string{}, Rejected: []Rejection{}}

	for _, raw := range symbols {
		symbol, ok := validator.NormalizeSymbol(raw)
		if !ok {
			result.Rejected = append(result.Rejected, Rejection{Symbol: raw, Reason: apperrors.ErrInvalidFormat.Code})
			continue
		}

		stock, err := e.store.Create(symbol)
		if err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				result.Rejected = append(result.Rejected, Rejection{Symbol: raw, Reason: apperrors.ErrAlreadyExists.Code})
				continue
			}
			e.log.Errorw("failed to store stock", "symbol", symbol, "error", err)
			result.Rejected = append(result.Rejected, Rejection{Symbol: raw, Reason: apperrors.ErrInternalServer.Code})
			continue
		}

		result.Accepted = append(result.Accepted, stock.Symbol)
		e.Refresh(stock.Symbol)
	}

	return result
}

// Refresh schedules a fetch for symbol. A request for a symbol that is
// already queued is absorbed; one for a symbol being fetched right now runs
// once more after the current fetch. Returns false when absorbed.
func (e *SyncEngine) Refresh(symbol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.states[symbol] {
	case stateQueued, stateRunningDirty:
		return false
	case stateRunning:
		e.states[symbol] = stateRunningDirty
		return true
	}

	e.states[symbol] = stateQueued
	e.pending = append(e.pending, symbol)
	e.signal()
	return true
}

// RefreshAll schedules a fetch for every stored stock and returns how many were newly scheduled.
func (e *SyncEngine) RefreshAll() (int, error) {
	stocks, err := e.store.GetAll()
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for _, stock := range stocks {
		if e.Refresh(stock.Symbol) {
			scheduled++
		}
	}
	return scheduled, nil
}

// InFlight returns the number of symbols queued or being fetched.
func (e *SyncEngine) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.states)
}

// signal wakes one idle worker. Caller must hold e.mu.
func (e *SyncEngine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *SyncEngine) worker() {
	defer e.wg.Done()
	for {
		symbol, ok := e.next()
		if !ok {
			return
		}
		e.sync(symbol)
		e.finish(symbol)
	}
}

// next blocks until a symbol is pending or the engine stops.
func (e *SyncEngine) next() (string, bool) {
	for {
		if e.ctx.Err() != nil {
			return "", false
		}

		e.mu.Lock()
		if len(e.pending) > 0 {
			symbol := e.pending[0]
			e.pending[0] = ""
			e.pending = e.pending[1:]
			e.states[symbol] = stateRunning
			if len(e.pending) > 0 {
				e.signal()
			}
			e.mu.Unlock()
			return symbol, true
		}
		e.mu.Unlock()

		select {
		case <-e.ctx.Done():
			return "", false
		case <-e.wake:
		}
	}
}

func (e *SyncEngine) finish(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.states[symbol] == stateRunningDirty {
		e.states[symbol] = stateQueued
		e.pending = append(e.pending, symbol)
		e.signal()
		return
	}
	delete(e.states, symbol)
}

// sync performs one fetch cycle for symbol and records the outcome.
func (e *SyncEngine) sync(symbol string) {
	exists, err := e.store.Exists(symbol)
	if err != nil {
		e.log.Warnw("failed to check stock before fetch", "symbol", symbol, "error", err)
	} else if !exists {
		e.log.Debugw("skipping fetch for removed stock", "symbol", symbol)
		return
	}

	start := time.Now()
	quote, fetchErr := e.fetchWithRetry(symbol)
	if e.ctx.Err() != nil {
		return
	}

	if err := e.store.UpdateMetrics(symbol, quote, fetchErr); err != nil {
		if errors.Is(err, apperrors.ErrStockNotFound) {
			e.log.Debugw("discarding fetch result for removed stock", "symbol", symbol)
			return
		}
		e.log.Errorw("failed to record fetch result", "symbol", symbol, "error", err)
		return
	}

	if fetchErr != nil {
		e.log.Warnw("quote fetch failed",
			"symbol", symbol,
			"kind", provider.KindOf(fetchErr),
			"timeout", provider.IsTimeout(fetchErr),
			"error", fetchErr,
		)
		return
	}
	e.log.Infow("stock synced",
		"symbol", symbol,
		"price", quote.Price.Decimal.String(),
		"duration", time.Since(start),
	)
}

// fetchWithRetry retries UNAVAILABLE failures with a linear backoff.
// Other failure kinds are final.
func (e *SyncEngine) fetchWithRetry(symbol string) (*provider.QuoteData, error) {
	var lastErr error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(e.config.RetryBackoff * time.Duration(attempt))
			select {
			case <-e.ctx.Done():
				timer.Stop()
				return nil, lastErr
			case <-timer.C:
			}
		}

		quote, err := e.fetchOnce(symbol)
		if err == nil {
			return quote, nil
		}
		lastErr = err
		if provider.KindOf(err) != provider.KindUnavailable {
			break
		}
		e.log.Debugw("quote fetch attempt failed", "symbol", symbol, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (e *SyncEngine) fetchOnce(symbol string) (*provider.QuoteData, error) {
	ctx := e.ctx
	if e.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.FetchTimeout)
		defer cancel()
	}

	quote, err := e.provider.FetchQuote(ctx, symbol)
	if err == nil && quote == nil {
		return nil, &provider.FetchError{Symbol: symbol, Kind: provider.KindMalformedResponse, Err: errors.New("empty quote")}
	}
	return quote, err
}

func (e *SyncEngine) periodicLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			scheduled, err := e.RefreshAll()
			if err != nil {
				e.log.Errorw("periodic refresh failed", "error", err)
				continue
			}
			e.log.Infow("periodic refresh scheduled", "stocks", scheduled)
		}
	}
}
