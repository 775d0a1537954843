package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/jonesrussell/finfeed/internal/api"
	"github.com/jonesrussell/finfeed/internal/config"
	"github.com/jonesrussell/finfeed/internal/logger"
)

// SetupHTTPServer builds the router and wraps it in an http.Server with the
// configured timeouts.
func SetupHTTPServer(cfg *config.Config, svcs *Services, log logger.Logger) *http.Server {
	router := api.NewRouter(api.Services{
		Stocks: svcs.Stocks,
		Crypto: svcs.Crypto,
		News:   svcs.News,
	}, cfg.Server.CORSOrigins, log)

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
