package server

import (
	"log/slog"
	"net/http"
	"net/url"
)

// NewCheckOrigin admits browser upgrades from the app's own origin. Requests
// without an Origin header (native clients) pass. Development also admits
// localhost.
func NewCheckOrigin(appURL string, isDevelopment bool) func(r *http.Request) bool {
	allowed := originOf(appURL)

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		switch {
		case origin == "", origin == allowed:
			return true
		case isDevelopment && isLoopback(origin):
			return true
		}
		slog.Warn("WebSocket origin rejected", "origin", origin, "path", r.URL.Path)
		return false
	}
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLoopback(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
