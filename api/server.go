// Package api exposes the HTTP server construction for cmd/api.
package api

import (
	"net/http"
	"time"

	"github.com/oelhadidy/agrovet-backend/api/routes"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
)

// NewServer wraps the router in an http.Server with sane timeouts.
func NewServer(cfg *config.Config, deps routes.Deps) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
