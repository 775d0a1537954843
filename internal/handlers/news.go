package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/models"
)

// NewsService is the news domain surface the handlers consume.
type NewsService interface {
	Headlines(ctx context.Context, category string, limit int) ([]models.NewsArticle, error)
	Search(ctx context.Context, query string, limit int) ([]models.NewsArticle, error)
}

type NewsHandler struct {
	svc    NewsService
	logger logger.Logger
}

func NewNewsHandler(svc NewsService, log logger.Logger) *NewsHandler {
	return &NewsHandler{svc: svc, logger: log}
}

func (h *NewsHandler) Headlines(c *gin.Context) {
	category := c.DefaultQuery("category", "business")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	articles, err := h.svc.Headlines(c.Request.Context(), category, limit)
	if err != nil {
		h.logger.Error("Headlines failed",
			logger.String("category", category),
			logger.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

func (h *NewsHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	articles, err := h.svc.Search(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}
