package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gorilla "github.com/gorilla/websocket"

	"github.com/hdesk/helpdesk-backend/internal/adapters/primary/websocket"
	"github.com/hdesk/helpdesk-backend/internal/auth"
	"github.com/hdesk/helpdesk-backend/internal/config"
)

// WebSocketHandler upgrades HTTP requests to WebSocket connections and
// registers the resulting client with the hub.
type WebSocketHandler struct {
	hub          *websocket.Hub
	tokenManager *auth.TokenManager
	upgrader     gorilla.Upgrader
	logger       *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *websocket.Hub, tokenManager *auth.TokenManager, cfg *config.Config, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		tokenManager: tokenManager,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin:     makeOriginChecker(cfg.WebSocket.AllowedOrigins, cfg.IsDevelopment()),
		},
		logger: logger.With("handler", "websocket"),
	}
}

// makeOriginChecker returns an origin validation function for the upgrader.
// Entries of the form "*.example.com" match any subdomain of example.com.
func makeOriginChecker(allowedOrigins []string, isDevelopment bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}

		if isDevelopment && len(allowedOrigins) == 0 {
			return true
		}

		parsed, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := parsed.Hostname()

		for _, allowed := range allowedOrigins {
			if allowed == "*" {
				return true
			}
			if after, ok := strings.CutPrefix(allowed, "*."); ok {
				if host == after || strings.HasSuffix(host, "."+after) {
					return true
				}
				continue
			}
			if origin == allowed || host == allowed {
				return true
			}
		}

		return false
	}
}

// HandleConnection handles GET /ws
//
// Browsers cannot set headers on WebSocket handshakes, so the access token
// is passed as a query parameter instead of an Authorization header.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenManager.Validate(token)
	if err != nil {
		h.logger.Debug("websocket auth failed", "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an error response.
		h.logger.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	client := websocket.NewClient(h.hub, conn, claims.UserID, claims.Username, claims.ParsedRole(), h.logger)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
