package server

import (
	"net/http"
	"time"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream is read-only public data.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamMessage is the JSON frame sent on an epoch stream: one "snapshot" on connect,
// then one "epoch" per transition.
type StreamMessage struct {
	Type     string                `json:"type"`
	Snapshot *domain.EpochSnapshot `json:"snapshot,omitempty"`
	Event    *domain.EpochEvent    `json:"event,omitempty"`
}

func (s *Server) streamEpochs(ctx echo.Context) error {
	clock, key, err := s.clockFor(ctx)
	if err != nil {
		return err
	}

	ws, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// the upgrader has already replied to the client
		logger.Warn("WebSocket upgrade for %s failed: %v", key, err)
		return nil
	}
	defer ws.Close()

	sub := s.hub.Subscribe(key)
	if sub == nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		return nil
	}
	defer s.hub.Unsubscribe(sub)

	snapshot := clock.Snapshot()
	if err := writeJSON(ws, StreamMessage{Type: "snapshot", Snapshot: &snapshot}); err != nil {
		return nil
	}

	// Drain client frames so control messages are processed and a disconnect is noticed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return nil
			}
			if err := writeJSON(ws, StreamMessage{Type: "epoch", Event: &event}); err != nil {
				logger.Debug("Closing %s stream: %v", key, err)
				return nil
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-gone:
			return nil
		}
	}
}

func writeJSON(ws *websocket.Conn, msg StreamMessage) error {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteJSON(msg)
}
