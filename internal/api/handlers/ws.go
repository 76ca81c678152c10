package handlers

import (
	"log"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bolsamaster/bolsamaster-backend/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// StreamHandler pushes a fresh PortfolioResponse to websocket clients after
// every quote refresh or ledger change.
type StreamHandler struct {
	portfolioService *service.PortfolioService
	upgrader         websocket.Upgrader
}

// NewStreamHandler creates a StreamHandler accepting connections from
// allowedOrigins. Requests without an Origin header (non-browser clients)
// are always accepted.
func NewStreamHandler(portfolioService *service.PortfolioService, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		portfolioService: portfolioService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

// Stream upgrades the connection and sends the current portfolio, then every
// update until the client goes away.
//
// Endpoint: GET /api/portfolio/ws
// Response: 101 Switching Protocols, then PortfolioResponse JSON messages
// Error: 400 Bad Request if the upgrade handshake fails
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Subscribe before reading the snapshot so no update is missed in between.
	updates, cancel := h.portfolioService.Subscribe()
	defer cancel()

	current, err := h.portfolioService.GetPortfolio(r.Context())
	if err != nil {
		log.Printf("websocket: %v", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "portfolio unavailable"),
			time.Now().Add(wsWriteWait))
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(current); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case update, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(update); err != nil {
				log.Printf("websocket write error: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
