// Command quote fetches metrics for the given symbols once and prints them as
// JSON, without touching the database. Useful for checking the quote source.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stockscreener/internal/config"
	"stockscreener/internal/logger"
	"stockscreener/internal/provider"
	"stockscreener/internal/validator"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("Quote error: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: quote <SYMBOL> [SYMBOL...]")
	}
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	symbols := make([]string, 0, len(args))
	for _, raw := range args {
		symbol, ok := validator.NormalizeSymbol(raw)
		if !ok {
			log.Warnw("skipping malformed symbol", "symbol", raw)
			continue
		}
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no valid symbols given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quotes := provider.NewYahooProvider(&http.Client{Timeout: cfg.RequestTimeout}, cfg.QuoteBaseURL)
	results, failures := provider.FetchQuotes(ctx, quotes, symbols, cfg.SyncWorkers)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, symbol := range symbols {
		if q, ok := results[symbol]; ok {
			if err := enc.Encode(q); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			continue
		}
		fetchErr := failures[symbol]
		log.Warnw("quote fetch failed",
			"symbol", symbol,
			"kind", provider.KindOf(fetchErr),
			"timeout", provider.IsTimeout(fetchErr),
			"error", fetchErr,
		)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d fetches failed", len(failures), len(symbols))
	}
	return nil
}
