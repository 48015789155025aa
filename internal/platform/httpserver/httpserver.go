// Package httpserver builds the process HTTP server with conservative
// timeouts. Per-request deadlines live in router middleware.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server for the given handler. The write timeout leaves
// room for a full manual sweep triggered over /internal/sweep.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
