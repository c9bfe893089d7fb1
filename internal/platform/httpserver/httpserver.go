package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server with timeouts sized for short JSON requests.
// Image uploads go to object storage directly, so nothing here streams
// large bodies.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
