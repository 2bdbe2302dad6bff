package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// checkOrigin accepts same-origin pages and the configured CORS origins. Browsers do not
// apply CORS to WebSocket upgrades, so the stream checks the Origin header itself.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// wsStream upgrades to WebSocket and pushes status, records and reset frames to the client.
// The client first receives the current status and the retained records, then every change.
func (s *Server) wsStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	var client *wsClient
	s.messageService.Attach(func(snapshot []domain.Record) {
		client = s.hub.register(snapshot)
	})
	if client == nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		return
	}
	defer s.hub.unregister(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				utils.Logger.Debug("websocket read ended", "client", client.id, "err", err)
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-client.send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				utils.Logger.Info("websocket write failed, stopping stream", "client", client.id, "err", err)
				return
			}
		}
	}
}
