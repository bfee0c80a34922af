package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const (
	yahooBaseURL  = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	yahooUA       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
	yahooModules  = "summaryDetail"
	yahooNotFound = "Not Found"
	maxBodyBytes  = 1 << 20
)

var hundred = decimal.NewFromInt(100)

// yahooValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper. Omitted
// values come back as {} or are missing altogether.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

// yahooSummaryDetail holds the summaryDetail module fields we read.
type yahooSummaryDetail struct {
	PreviousClose        *yahooValue `json:"previousClose"`
	ForwardPE            *yahooValue `json:"forwardPE"`
	DividendYield        *yahooValue `json:"dividendYield"`
	FiftyDayAverage      *yahooValue `json:"fiftyDayAverage"`
	TwoHundredDayAverage *yahooValue `json:"twoHundredDayAverage"`
}

// yahooSummaryResponse is the top-level quoteSummary response.
type yahooSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail *yahooSummaryDetail `json:"summaryDetail"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// YahooProvider fetches quote metrics from the Yahoo Finance quoteSummary API.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	now        func() time.Time
}

// NewYahooProvider creates a Yahoo Finance provider. An empty baseURL
// selects the public endpoint.
func NewYahooProvider(httpClient *http.Client, baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooProvider{httpClient: httpClient, baseURL: baseURL, now: time.Now}
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo Finance" }

// FetchQuote fetches the summaryDetail module for symbol.
func (p *YahooProvider) FetchQuote(ctx context.Context, symbol string) (*QuoteData, error) {
	endpoint := p.baseURL + "/" + url.PathEscape(symbol) + "?modules=" + yahooModules

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newFetchError(symbol, KindUnavailable, "building request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, newFetchError(symbol, KindUnavailable, "http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, newFetchError(symbol, KindUnavailable, "reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, newFetchError(symbol, KindInvalidSymbol, "symbol not found")
	case resp.StatusCode != http.StatusOK:
		return nil, newFetchError(symbol, KindUnavailable, "unexpected status %d", resp.StatusCode)
	}

	var summary yahooSummaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, newFetchError(symbol, KindMalformedResponse, "decoding response: %w", err)
	}

	if e := summary.QuoteSummary.Error; e != nil {
		if e.Code == yahooNotFound {
			return nil, newFetchError(symbol, KindInvalidSymbol, "%s", e.Description)
		}
		return nil, newFetchError(symbol, KindUnavailable, "source error %s: %s", e.Code, e.Description)
	}

	if len(summary.QuoteSummary.Result) == 0 || summary.QuoteSummary.Result[0].SummaryDetail == nil {
		return nil, newFetchError(symbol, KindMalformedResponse, "response has no summaryDetail")
	}

	return p.normalize(symbol, summary.QuoteSummary.Result[0].SummaryDetail)
}

// normalize maps the raw summary into QuoteData. Price is mandatory; every
// other metric is best-effort and negative values are dropped to null.
func (p *YahooProvider) normalize(symbol string, d *yahooSummaryDetail) (*QuoteData, error) {
	price := rawValue(d.PreviousClose)
	if !price.Valid || !price.Decimal.IsPositive() {
		return nil, newFetchError(symbol, KindMalformedResponse, "missing or non-positive price")
	}

	yield := nonNegative(rawValue(d.DividendYield))
	if yield.Valid {
		yield.Decimal = yield.Decimal.Mul(hundred)
	}

	return &QuoteData{
		Symbol:           symbol,
		Price:            price,
		ForwardPE:        nonNegative(rawValue(d.ForwardPE)),
		DividendYield:    yield,
		MovingAverage50:  nonNegative(rawValue(d.FiftyDayAverage)),
		MovingAverage200: nonNegative(rawValue(d.TwoHundredDayAverage)),
		FetchedAt:        p.now().UTC(),
	}, nil
}

func rawValue(v *yahooValue) decimal.NullDecimal {
	if v == nil || v.Raw == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v.Raw))
}

func nonNegative(v decimal.NullDecimal) decimal.NullDecimal {
	if v.Valid && v.Decimal.IsNegative() {
		return decimal.NullDecimal{}
	}
	return v
}

// IsTimeout reports whether err came from a deadline or client timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
