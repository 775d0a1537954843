package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/models"
)

// CryptoService is the crypto domain surface the handlers consume.
type CryptoService interface {
	Coin(ctx context.Context, id string) (models.Crypto, error)
	Coins(ctx context.Context, ids []string) ([]models.Crypto, error)
	TopMarkets(ctx context.Context, n int) ([]models.Crypto, error)
	Search(ctx context.Context, query string) ([]models.CoinSearchResult, error)
}

type CryptoHandler struct {
	svc    CryptoService
	logger logger.Logger
}

func NewCryptoHandler(svc CryptoService, log logger.Logger) *CryptoHandler {
	return &CryptoHandler{svc: svc, logger: log}
}

func (h *CryptoHandler) Coin(c *gin.Context) {
	id := c.Param("id")

	coin, err := h.svc.Coin(c.Request.Context(), id)
	if err != nil {
		h.logger.Debug("Coin unavailable",
			logger.String("id", id),
			logger.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, coin)
}

// Coins serves a batch lookup: ?ids=bitcoin,ethereum
func (h *CryptoHandler) Coins(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids query parameter is required"})
		return
	}

	coins, err := h.svc.Coins(c.Request.Context(), strings.Split(raw, ","))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coins": coins,
		"count": len(coins),
	})
}

func (h *CryptoHandler) Markets(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	coins, err := h.svc.TopMarkets(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coins": coins,
		"count": len(coins),
	})
}

func (h *CryptoHandler) Search(c *gin.Context) {
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
