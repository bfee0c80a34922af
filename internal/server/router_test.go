package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stockscreener/internal/handlers"
	"stockscreener/internal/logger"
	"stockscreener/internal/models"
	"stockscreener/internal/provider"
	"stockscreener/internal/services"
	"stockscreener/internal/testutil"
	"stockscreener/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// quoteSource is a fake quoteSummary endpoint whose bodies can change between fetches.
type quoteSource struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (s *quoteSource) set(symbol, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[symbol] = body
}

func (s *quoteSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body, ok := s.bodies[strings.TrimPrefix(r.URL.Path, "/")]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`))
		return
	}
	_, _ = w.Write([]byte(body))
}

func summary(price, pe, yield, ma50, ma200 float64) string {
	return fmt.Sprintf(`{"quoteSummary":{"result":[{"summaryDetail":{
		"previousClose":{"raw":%g},"forwardPE":{"raw":%g},"dividendYield":{"raw":%g},
		"fiftyDayAverage":{"raw":%g},"twoHundredDayAverage":{"raw":%g}}}],"error":null}}`,
		price, pe, yield, ma50, ma200)
}

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Engine *services.SyncEngine
	Source *quoteSource
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)

	source := &quoteSource{bodies: map[string]string{
		"MSFT": summary(420, 32, 0.007, 410, 380),
		"KO":   summary(60, 20, 0.031, 61, 58),
		"T":    summary(17, 8, 0.065, 16, 18),
	}}
	quoteServer := httptest.NewServer(source)

	store := services.NewStockStore(db)
	quotes := provider.NewYahooProvider(quoteServer.Client(), quoteServer.URL)
	engine := services.NewSyncEngine(store, quotes, services.SyncConfig{
		Workers:      2,
		FetchTimeout: 2 * time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})
	engine.Start(context.Background())

	stockService := services.NewStockService(store, engine)
	auditService := services.NewAuditService(db)
	router := NewRouter(handlers.NewStockHandler(stockService, auditService))

	t.Cleanup(func() {
		engine.Stop()
		quoteServer.Close()
		testutil.TeardownTestDB(t, db)
	})

	return &testApp{DB: db, Router: router, Engine: engine, Source: source}
}

func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) waitIdle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for app.Engine.InFlight() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("background sync did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func (app *testApp) listSymbols(t *testing.T, query string) []string {
	t.Helper()
	rec := app.request("GET", "/api/v1/stocks"+query, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].([]interface{})
	symbols := make([]string, len(data))
	for i, item := range data {
		symbols[i] = item.(map[string]interface{})["symbol"].(string)
	}
	return symbols
}

func assertSymbols(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestScreeningFlow(t *testing.T) {
	app := setupApp(t)

	// Step 1: add symbols, one malformed and one unknown to the source
	rec := app.request("POST", "/api/v1/stocks", `{"symbols":["msft","KO","T","bad!sym","ZZZZ"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if accepted := result["accepted"].([]interface{}); len(accepted) != 4 {
		t.Errorf("expected 4 accepted, got %v", accepted)
	}
	if rejected := result["rejected"].([]interface{}); len(rejected) != 1 {
		t.Errorf("expected 1 rejected, got %v", rejected)
	}

	// Step 2: wait for the background fetches
	app.waitIdle(t)

	// Step 3: screen
	assertSymbols(t, app.listSymbols(t, ""), "MSFT", "KO", "T", "ZZZZ")
	assertSymbols(t, app.listSymbols(t, "?forward_pe=20"), "KO", "T")
	assertSymbols(t, app.listSymbols(t, "?dividend_yield=3.1"), "KO", "T")
	assertSymbols(t, app.listSymbols(t, "?ma50=true"), "MSFT", "T")
	assertSymbols(t, app.listSymbols(t, "?ma200=true"), "MSFT", "KO")
	assertSymbols(t, app.listSymbols(t, "?ma50=true&ma200=true"), "MSFT")
	assertSymbols(t, app.listSymbols(t, "?forward_pe=25&dividend_yield=3&ma200=true"), "KO")

	// Step 4: the unknown symbol records its failure and stays pending
	var unknown models.Stock
	if err := app.DB.Where("symbol = ?", "ZZZZ").First(&unknown).Error; err != nil {
		t.Fatalf("failed to load ZZZZ: %v", err)
	}
	if unknown.IsFetched() || unknown.LastErrorCode == nil || *unknown.LastErrorCode != "INVALID_SYMBOL" {
		t.Errorf("expected pending ZZZZ with INVALID_SYMBOL, got fetched=%v code=%v", unknown.IsFetched(), unknown.LastErrorCode)
	}

	// Step 5: duplicates are rejected
	rec = app.request("POST", "/api/v1/stocks", `{"symbol":"ko"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	rejected := parseJSON(t, rec)["rejected"].([]interface{})
	if len(rejected) != 1 || rejected[0].(map[string]interface{})["reason"] != "ALREADY_EXISTS" {
		t.Errorf("expected ALREADY_EXISTS, got %v", rejected)
	}
}

func TestRefreshAndDeleteFlow(t *testing.T) {
	app := setupApp(t)

	rec := app.request("POST", "/api/v1/stocks", `{"symbols":["T"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	app.waitIdle(t)

	var stock models.Stock
	if err := app.DB.Where("symbol = ?", "T").First(&stock).Error; err != nil {
		t.Fatalf("failed to load T: %v", err)
	}
	assertSymbols(t, app.listSymbols(t, "?ma50=true"), "T")

	// Price falls below both averages; a refresh picks it up
	app.Source.set("T", summary(15, 8, 0.065, 16, 18))
	rec = app.request("POST", fmt.Sprintf("/api/v1/stocks/%d/refresh", stock.ID), "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	app.waitIdle(t)
	assertSymbols(t, app.listSymbols(t, "?ma50=true"))

	rec = app.request("GET", fmt.Sprintf("/api/v1/stocks/%d", stock.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := parseJSON(t, rec)["stock"].(map[string]interface{})
	if got["price"] != "15" {
		t.Errorf("expected refreshed price 15, got %v", got["price"])
	}

	// Delete, then confirm it is gone
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/stocks/%d", stock.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if msg := parseJSON(t, rec)["message"]; msg != "Stock T deleted successfully" {
		t.Errorf("unexpected message %v", msg)
	}

	rec = app.request("DELETE", fmt.Sprintf("/api/v1/stocks/%d", stock.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{}); !ok || errObj["code"] != "STOCK_NOT_FOUND" {
		t.Errorf("expected STOCK_NOT_FOUND error body, got %s", rec.Body.String())
	}
	assertSymbols(t, app.listSymbols(t, ""))

	var audits int64
	app.DB.Model(&models.AuditLog{}).Count(&audits)
	if audits != 3 {
		t.Errorf("expected 3 audit entries (add, refresh, remove), got %d", audits)
	}
}
