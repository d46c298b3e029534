package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	wsAdapter "github.com/lorrc/helpdesk-bridge/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk-bridge/internal/auth"
	"github.com/lorrc/helpdesk-bridge/internal/config"
)

// WebSocketHandler upgrades operator connections to the live cycle feed.
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	tm       *auth.TokenManager
	upgrader websocket.Upgrader
	opts     wsAdapter.ClientOptions
	logger   *slog.Logger
}

// NewWebSocketHandler creates the feed handler. With allowAnyOrigin every
// browser origin is accepted, which is meant for development only.
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm *auth.TokenManager,
	cfg config.WebSocketConfig,
	allowAnyOrigin bool,
	logger *slog.Logger,
) *WebSocketHandler {
	h := &WebSocketHandler{
		hub: hub,
		tm:  tm,
		opts: wsAdapter.ClientOptions{
			PongWait:     cfg.PongWait,
			PingInterval: cfg.PingInterval,
		},
		logger: logger.With("handler", "websocket"),
	}

	allowed := cfg.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAnyOrigin || originAllowed(origin, allowed) {
				return true
			}
			h.logger.WarnContext(r.Context(), "websocket origin rejected",
				"origin", origin,
				"remote_addr", r.RemoteAddr,
			)
			return false
		},
	}
	return h
}

// originAllowed accepts an empty origin (non-browser clients), exact host
// matches and "*.example.com" wildcards that also cover the bare domain.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	host := u.Host
	for _, pattern := range allowed {
		if domain, ok := strings.CutPrefix(pattern, "*."); ok {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

// wsToken reads the bearer token from the Authorization header, falling back
// to ?token= because browsers cannot set headers on the handshake.
func wsToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}

// ServeHTTP authenticates the operator and hands the connection to the hub.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := wsToken(r)
	if token == "" {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Missing authentication token", Code: "UNAUTHORIZED"})
		return
	}

	claims, err := h.tm.ValidateToken(token)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket rejected: invalid token", "remote_addr", r.RemoteAddr, "error", err)
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token", Code: "UNAUTHORIZED"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already wrote the error response.
		h.logger.WarnContext(ctx, "websocket upgrade failed", "subject", claims.Subject, "error", err)
		return
	}

	h.logger.InfoContext(ctx, "websocket connected", "subject", claims.Subject, "remote_addr", r.RemoteAddr)
	wsAdapter.NewClient(h.hub, conn, claims.Subject, h.opts, h.logger).Start()
}
