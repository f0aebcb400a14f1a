package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"IslandWar/internal/report"
	"IslandWar/internal/shared/logs"
	"IslandWar/internal/shared/security"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated clients and serves the small inbound
// command surface; everything heavier goes over HTTP.
type Handler struct {
	hub     *Hub
	reports *report.Service
}

func NewHandler(hub *Hub, reports *report.Service) *Handler {
	return &Handler{hub: hub, reports: reports}
}

// Register mounts the websocket endpoint. The token rides in a query
// parameter because browsers cannot set headers on websocket dials.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/ws", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	claims, err := security.ParseToken(c.Query("token"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code": "AUTH_TOKEN_INVALID", "msg": "invalid or expired token",
		})
		return
	}

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logs.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConn(wsConn)
	h.hub.Bind(claims.AccountID, conn)
	logs.Info("websocket connected",
		zap.String("accountId", claims.AccountID), zap.String("addr", conn.Addr()))

	go conn.writePump()
	go conn.readPump(func(event string, payload json.RawMessage) {
		// The request context dies with the upgrade handler; commands run
		// on their own.
		h.dispatch(context.Background(), conn, claims.AccountID, event, payload)
	})
}

func (h *Handler) dispatch(ctx context.Context, conn *Conn, accountID, event string, payload json.RawMessage) {
	switch event {
	case "ping":
		conn.Push("pong", nil)

	case "report.markRead":
		var raw map[string]any
		if err := json.Unmarshal(payload, &raw); err != nil {
			conn.Push("error", gin.H{"event": event, "msg": "malformed payload"})
			return
		}
		var req struct {
			ReportID string `mapstructure:"reportId"`
		}
		if err := mapstructure.Decode(raw, &req); err != nil || req.ReportID == "" {
			conn.Push("error", gin.H{"event": event, "msg": "missing reportId"})
			return
		}
		if err := h.reports.MarkRead(ctx, accountID, req.ReportID); err != nil {
			conn.Push("error", gin.H{"event": event, "msg": err.Error()})
			return
		}
		conn.Push("report.read", gin.H{"reportId": req.ReportID})

	default:
		conn.Push("error", gin.H{"event": event, "msg": "unknown event"})
	}
}
