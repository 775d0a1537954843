// Package handlers implements the HTTP endpoints over the domain services.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/finfeed/internal/engine"
	"github.com/jonesrussell/finfeed/internal/providers"
	"github.com/jonesrussell/finfeed/internal/upstream"
)

// respondError maps domain errors to HTTP statuses. An exhausted fallback
// chain and an unknown identifier are both "not found" from the client's
// perspective; provider failures surface as bad gateway.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrDataUnavailable), errors.Is(err, providers.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": "Data not available"})
	case errors.Is(err, engine.ErrInvalidResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Provider returned invalid data"})
	case upstream.IsUpstream(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Provider unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
