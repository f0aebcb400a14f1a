package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"IslandWar/internal/shared/logs"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 32
)

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Conn wraps one client websocket: a buffered outbound queue drained by a
// single write pump, and a Done channel closed when the peer goes away.
type Conn struct {
	ws   *websocket.Conn
	send chan Envelope

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan Envelope, sendBuffer),
		done: make(chan struct{}),
	}
}

// Push queues an event; a slow or dead client drops it rather than
// blocking the caller.
func (c *Conn) Push(event string, payload any) {
	select {
	case c.send <- Envelope{Event: event, Payload: payload}:
	case <-c.done:
	default:
		logs.Warn("ws send buffer full, dropping event",
			zap.String("event", event), zap.String("addr", c.Addr()))
	}
}

func (c *Conn) Addr() string {
	return c.ws.RemoteAddr().String()
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case env := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump delivers inbound frames to handle and tears the conn down on
// read failure.
func (c *Conn) readPump(handle func(event string, payload json.RawMessage)) {
	defer c.Close()

	c.ws.SetReadLimit(64 << 10)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := c.ws.ReadJSON(&frame); err != nil {
			return
		}
		if handle != nil {
			handle(frame.Event, frame.Payload)
		}
	}
}
