package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP connections for the live price feed.
type Server struct {
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(hub *Hub, logger *zap.Logger) *Server {
	return &Server{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is the HTTP handler for /ws/prices.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &conn{ws: wsConn}
	s.hub.add(c)
	s.logger.Info("price feed subscriber connected", zap.String("remote", r.RemoteAddr))

	// Reader loop only services control frames; clients never send data.
	go func() {
		defer s.hub.remove(c)
		for {
			if _, _, err := wsConn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
