package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "stockscreener/internal/errors"
	"stockscreener/internal/pagination"
	"stockscreener/internal/screening"
	"stockscreener/internal/services"
)

// StockHandler handles stock list and screening requests.
type StockHandler struct {
	stockService services.StockServicer
	auditService services.AuditServicer
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockService services.StockServicer, auditService services.AuditServicer) *StockHandler {
	return &StockHandler{stockService: stockService, auditService: auditService}
}

// AddStocksRequest represents the request payload for adding stocks.
// Either a batch of symbols or a single symbol may be given.
type AddStocksRequest struct {
	Symbols []string `json:"symbols" binding:"omitempty,max=100"`
	Symbol  string   `json:"symbol" binding:"omitempty,ticker"`
}

// StockFilterQuery holds the screening thresholds accepted on the list endpoint.
type StockFilterQuery struct {
	ForwardPE     string `form:"forward_pe"`
	DividendYield string `form:"dividend_yield"`
	AboveMA50     bool   `form:"ma50"`
	AboveMA200    bool   `form:"ma200"`
}

// FilterSpec converts the query into screening criteria.
func (q StockFilterQuery) FilterSpec() (screening.FilterSpec, error) {
	spec := screening.FilterSpec{AboveMA50: q.AboveMA50, AboveMA200: q.AboveMA200}

	if q.ForwardPE != "" {
		maxPE, err := decimal.NewFromString(q.ForwardPE)
		if err != nil {
			return spec, apperrors.WithMessage(apperrors.ErrInvalidInput, "forward_pe must be a number")
		}
		spec.MaxForwardPE = &maxPE
	}
	if q.DividendYield != "" {
		minYield, err := decimal.NewFromString(q.DividendYield)
		if err != nil {
			return spec, apperrors.WithMessage(apperrors.ErrInvalidInput, "dividend_yield must be a number")
		}
		spec.MinDividendYield = &minYield
	}
	return spec, nil
}

// AddStocks handles adding one or more symbols to the list
// @Summary     Add stocks
// @Description Validate and store ticker symbols; metrics are fetched in the background
// @Tags        stocks
// @Accept      json
// @Produce     json
// @Param       request body AddStocksRequest true "Symbols to add"
// @Success     202 {object} services.AddResult "Accepted and rejected symbols"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks [post]
func (h *StockHandler) AddStocks(c *gin.Context) {
	var req AddStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	symbols := req.Symbols
	if req.Symbol != "" {
		symbols = append(symbols, req.Symbol)
	}

	result, err := h.stockService.AddStocks(symbols)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if len(result.Accepted) > 0 {
		h.auditService.Log(services.AuditActionAddStock, "stock", 0, c.ClientIP(),
			map[string]interface{}{"symbols": result.Accepted})
	}

	c.JSON(http.StatusAccepted, result)
}

// ListStocks handles listing stocks with optional screening filters
// @Summary     List stocks
// @Description List stored stocks in insertion order, optionally screened by thresholds
// @Tags        stocks
// @Produce     json
// @Param       forward_pe     query number false "Maximum forward P/E (inclusive)"
// @Param       dividend_yield query number false "Minimum dividend yield in percent (inclusive)"
// @Param       ma50           query bool   false "Price strictly above the 50-day moving average"
// @Param       ma200          query bool   false "Price strictly above the 200-day moving average"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default all, max 500)"
// @Success     200 {object} pagination.PageResponse[models.Stock] "Matching stocks"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks [get]
func (h *StockHandler) ListStocks(c *gin.Context) {
	var query StockFilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	filter, err := query.FilterSpec()
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	stocks, err := h.stockService.ListStocks(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Slice(stocks, page))
}

// GetStock handles the retrieval of a single stock
// @Summary     Get stock by ID
// @Description Get a stored stock and its latest metrics
// @Tags        stocks
// @Produce     json
// @Param       id path int true "Stock ID"
// @Success     200 {object} models.Stock "Stock details"
// @Failure     400 {object} ErrorResponse "Invalid stock ID"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks/{id} [get]
func (h *StockHandler) GetStock(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.stockService.GetStockByID(stockID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// DeleteStock handles removing a stock from the list
// @Summary     Delete stock
// @Description Remove a stock; a fetch still running for it is discarded
// @Tags        stocks
// @Produce     json
// @Param       id path int true "Stock ID"
// @Success     200 {object} MessageResponse "Stock deleted"
// @Failure     400 {object} ErrorResponse "Invalid stock ID"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks/{id} [delete]
func (h *StockHandler) DeleteStock(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.stockService.RemoveStock(stockID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditActionRemoveStock, "stock", stock.ID, c.ClientIP(),
		map[string]interface{}{"symbol": stock.Symbol})

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Stock %s deleted successfully", stock.Symbol)})
}

// RefreshStock handles scheduling a new fetch for a stock
// @Summary     Refresh stock
// @Description Schedule a background fetch of the latest metrics
// @Tags        stocks
// @Produce     json
// @Param       id path int true "Stock ID"
// @Success     202 {object} models.Stock "Refresh scheduled"
// @Failure     400 {object} ErrorResponse "Invalid stock ID"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks/{id}/refresh [post]
func (h *StockHandler) RefreshStock(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.stockService.RefreshStock(stockID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditActionRefreshStock, "stock", stock.ID, c.ClientIP(), nil)

	c.JSON(http.StatusAccepted, gin.H{"stock": stock})
}
