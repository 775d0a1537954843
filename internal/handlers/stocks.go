package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/models"
)

// StockService is the stock domain surface the handlers consume.
type StockService interface {
	Quote(ctx context.Context, symbol string) (models.Stock, error)
	Quotes(ctx context.Context, symbols []string) ([]models.Stock, error)
	Complete(ctx context.Context, symbol string) (models.StockComplete, error)
	History(ctx context.Context, symbol, timeframe string) ([]models.PricePoint, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	MarketOverview(ctx context.Context) (models.MarketOverview, error)
}

type StockHandler struct {
	svc    StockService
	logger logger.Logger
}

func NewStockHandler(svc StockService, log logger.Logger) *StockHandler {
	return &StockHandler{svc: svc, logger: log}
}

func (h *StockHandler) Quote(c *gin.Context) {
	symbol := c.Param("symbol")

	stock, err := h.svc.Quote(c.Request.Context(), symbol)
	if err != nil {
		h.logger.Debug("Quote unavailable",
			logger.String("symbol", symbol),
			logger.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stock)
}

// Quotes serves a batch lookup: ?symbols=AAPL,TCS.NS
func (h *StockHandler) Quotes(c *gin.Context) {
	raw := c.Query("symbols")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols query parameter is required"})
		return
	}

	symbols := strings.Split(raw, ",")
	stocks, err := h.svc.Quotes(c.Request.Context(), symbols)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stocks": stocks,
		"count":  len(stocks),
	})
}

func (h *StockHandler) Complete(c *gin.Context) {
	symbol := c.Param("symbol")

	complete, err := h.svc.Complete(c.Request.Context(), symbol)
	if err != nil {
		h.logger.Debug("Complete record unavailable",
			logger.String("symbol", symbol),
			logger.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, complete)
}

func (h *StockHandler) History(c *gin.Context) {
	symbol := c.Param("symbol")
	timeframe := c.DefaultQuery("timeframe", "daily")

	points, err := h.svc.History(c.Request.Context(), symbol, timeframe)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    strings.ToUpper(symbol),
		"timeframe": timeframe,
		"history":   points,
	})
}

func (h *StockHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	results, err := h.svc.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

func (h *StockHandler) MarketOverview(c *gin.Context) {
	overview, err := h.svc.MarketOverview(c.Request.Context())
	if err != nil {
		h.logger.Error("Market overview failed", logger.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
