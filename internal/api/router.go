// Package api assembles the gin router, middleware, and route table.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/finfeed/internal/handlers"
	"github.com/jonesrussell/finfeed/internal/logger"
)

const corsMaxAgeHours = 12

const requestIDHeader = "X-Request-ID"

// Services bundles the domain services the router exposes.
type Services struct {
	Stocks handlers.StockService
	Crypto handlers.CryptoService
	News   handlers.NewsService
}

func NewRouter(svcs Services, corsOrigins []string, log logger.Logger) *gin.Engine {
	router := gin.New()

	// CORS middleware must run first.
	router.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	stockHandler := handlers.NewStockHandler(svcs.Stocks, log)
	stocks := v1.Group("/stocks")
	stocks.GET("", stockHandler.Quotes)
	stocks.GET("/search", stockHandler.Search)
	stocks.GET("/market-overview", stockHandler.MarketOverview)
	stocks.GET("/:symbol", stockHandler.Quote)
	stocks.GET("/:symbol/complete", stockHandler.Complete)
	stocks.GET("/:symbol/history", stockHandler.History)

	cryptoHandler := handlers.NewCryptoHandler(svcs.Crypto, log)
	crypto := v1.Group("/crypto")
	crypto.GET("", cryptoHandler.Coins)
	crypto.GET("/markets", cryptoHandler.Markets)
	crypto.GET("/search", cryptoHandler.Search)
	crypto.GET("/:id", cryptoHandler.Coin)

	newsHandler := handlers.NewNewsHandler(svcs.News, log)
	news := v1.Group("/news")
	news.GET("/headlines", newsHandler.Headlines)
	news.GET("/search", newsHandler.Search)

	return router
}

// requestID attaches an id to each request for log correlation, honoring an
// id supplied by the caller.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.String("request_id", c.GetString("request_id")),
			logger.Duration("duration", duration),
		)
	}
}
