package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const aaplSummary = `{"quoteSummary":{"result":[{"summaryDetail":{
	"previousClose":{"raw":178.72,"fmt":"178.72"},
	"forwardPE":{"raw":28.5,"fmt":"28.50"},
	"dividendYield":{"raw":0.0044,"fmt":"0.44%"},
	"fiftyDayAverage":{"raw":170.1,"fmt":"170.10"},
	"twoHundredDayAverage":{"raw":165.25,"fmt":"165.25"}
}}],"error":null}}`

const notFoundSummary = `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for ticker symbol: FAKESYM"}}}`

// newSummaryServer serves quoteSummary bodies keyed by ticker path.
// Tickers not in the map get a 404 with Yahoo's not-found body.
func newSummaryServer(bodies map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "application/json")

		body, ok := bodies[ticker]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(notFoundSummary))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func newTestYahoo(server *httptest.Server) *YahooProvider {
	p := NewYahooProvider(server.Client(), server.URL)
	p.now = func() time.Time { return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC) }
	return p
}

func assertDecimal(t *testing.T, field string, got decimal.NullDecimal, want string) {
	t.Helper()
	if !got.Valid {
		t.Errorf("%s: expected %s, got null", field, want)
		return
	}
	if !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", field, want, got.Decimal)
	}
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.Kind != want {
		t.Errorf("expected kind %s, got %s (%v)", want, fe.Kind, fe.Err)
	}
}

func TestYahooProvider_FetchQuote_Success(t *testing.T) {
	var capturedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.RawQuery
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		_, _ = w.Write([]byte(aaplSummary))
	}))
	defer server.Close()

	q, err := newTestYahoo(server).FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", q.Symbol)
	}
	assertDecimal(t, "price", q.Price, "178.72")
	assertDecimal(t, "forward_pe", q.ForwardPE, "28.5")
	assertDecimal(t, "dividend_yield", q.DividendYield, "0.44")
	assertDecimal(t, "ma50", q.MovingAverage50, "170.1")
	assertDecimal(t, "ma200", q.MovingAverage200, "165.25")
	if !q.FetchedAt.Equal(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected fetched_at %v", q.FetchedAt)
	}
	if capturedQuery != "modules=summaryDetail" {
		t.Errorf("expected summaryDetail module query, got %q", capturedQuery)
	}
}

func TestYahooProvider_FetchQuote_OmittedFieldsAreNull(t *testing.T) {
	server := newSummaryServer(map[string]string{
		"SPY": `{"quoteSummary":{"result":[{"summaryDetail":{
			"previousClose":{"raw":512.3},
			"forwardPE":{},
			"fiftyDayAverage":{"raw":505.0}
		}}],"error":null}}`,
	})
	defer server.Close()

	q, err := newTestYahoo(server).FetchQuote(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "price", q.Price, "512.3")
	assertDecimal(t, "ma50", q.MovingAverage50, "505")
	if q.ForwardPE.Valid {
		t.Errorf("expected null forward_pe, got %s", q.ForwardPE.Decimal)
	}
	if q.DividendYield.Valid {
		t.Errorf("expected null dividend_yield, got %s", q.DividendYield.Decimal)
	}
	if q.MovingAverage200.Valid {
		t.Errorf("expected null ma200, got %s", q.MovingAverage200.Decimal)
	}
}

func TestYahooProvider_FetchQuote_NegativeMetricsAreNull(t *testing.T) {
	server := newSummaryServer(map[string]string{
		"LOSS": `{"quoteSummary":{"result":[{"summaryDetail":{
			"previousClose":{"raw":12.5},
			"forwardPE":{"raw":-4.2}
		}}],"error":null}}`,
	})
	defer server.Close()

	q, err := newTestYahoo(server).FetchQuote(context.Background(), "LOSS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ForwardPE.Valid {
		t.Errorf("expected negative forward_pe to be dropped, got %s", q.ForwardPE.Decimal)
	}
}

func TestYahooProvider_FetchQuote_NotFound(t *testing.T) {
	server := newSummaryServer(map[string]string{})
	defer server.Close()

	_, err := newTestYahoo(server).FetchQuote(context.Background(), "FAKESYM")
	assertKind(t, err, KindInvalidSymbol)
	if !strings.Contains(err.Error(), "FAKESYM") {
		t.Errorf("expected error to mention symbol, got %v", err)
	}
}

func TestYahooProvider_FetchQuote_NotFoundInBody(t *testing.T) {
	server := newSummaryServer(map[string]string{"GONE": notFoundSummary})
	defer server.Close()

	_, err := newTestYahoo(server).FetchQuote(context.Background(), "GONE")
	assertKind(t, err, KindInvalidSymbol)
}

func TestYahooProvider_FetchQuote_Unavailable(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusUnauthorized} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newTestYahoo(server).FetchQuote(context.Background(), "AAPL")
		assertKind(t, err, KindUnavailable)
		server.Close()
	}
}

func TestYahooProvider_FetchQuote_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestYahoo(server).FetchQuote(ctx, "AAPL")
	assertKind(t, err, KindUnavailable)
	if !IsTimeout(err) {
		t.Errorf("expected a timeout error, got %v", err)
	}
}

func TestYahooProvider_FetchQuote_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	p := newTestYahoo(server)
	server.Close()

	_, err := p.FetchQuote(context.Background(), "AAPL")
	assertKind(t, err, KindUnavailable)
}

func TestYahooProvider_FetchQuote_Malformed(t *testing.T) {
	tests := map[string]string{
		"garbage":        `<html>oops</html>`,
		"empty_result":   `{"quoteSummary":{"result":[],"error":null}}`,
		"no_summary":     `{"quoteSummary":{"result":[{}],"error":null}}`,
		"missing_price":  `{"quoteSummary":{"result":[{"summaryDetail":{"forwardPE":{"raw":10}}}],"error":null}}`,
		"zero_price":     `{"quoteSummary":{"result":[{"summaryDetail":{"previousClose":{"raw":0}}}],"error":null}}`,
		"negative_price": `{"quoteSummary":{"result":[{"summaryDetail":{"previousClose":{"raw":-1}}}],"error":null}}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			server := newSummaryServer(map[string]string{"AAPL": body})
			defer server.Close()

			_, err := newTestYahoo(server).FetchQuote(context.Background(), "AAPL")
			assertKind(t, err, KindMalformedResponse)
		})
	}
}

func TestFetchQuotes_IndependentResults(t *testing.T) {
	server := newSummaryServer(map[string]string{"AAPL": aaplSummary, "MSFT": aaplSummary})
	defer server.Close()

	quotes, failures := FetchQuotes(context.Background(), newTestYahoo(server), []string{"AAPL", "MSFT", "FAKESYM"}, 2)

	if len(quotes) != 2 {
		t.Errorf("expected 2 quotes, got %d", len(quotes))
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if KindOf(failures["FAKESYM"]) != KindInvalidSymbol {
		t.Errorf("expected INVALID_SYMBOL for FAKESYM, got %v", failures["FAKESYM"])
	}
}

func TestKindOf_NonFetchError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnavailable {
		t.Errorf("expected UNAVAILABLE, got %s", got)
	}
}
