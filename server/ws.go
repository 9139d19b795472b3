package server

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
}

// WSHandler upgrades to WebSocket and treats every text message as a job.
// Each job is answered with one JSON result message.
type WSHandler struct {
	jobs     *jobQueue
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler returns a standalone handler with its own per-device
// serialization.
func NewWSHandler(runner Runner, logger *zap.Logger) *WSHandler {
	return &WSHandler{jobs: newJobQueue(runner), upgrader: newUpgrader(), logger: logger.Named("ws")}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.logger.With(zap.String("client", r.RemoteAddr))
	log.Debug("client connected")
	conn.SetReadLimit(MaxJobSize)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read failed", zap.Error(err))
			}
			return
		}

		res := h.jobs.process(context.Background(), msg)
		if err := conn.WriteJSON(res); err != nil {
			log.Warn("failed to write result", zap.Error(err))
			return
		}
	}
}
