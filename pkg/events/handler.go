package events

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nftmarket/pkg/response"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/events", h.ServeWS)
	r.GET("/events/status", h.Status)
}

// ServeWS godoc
// @Summary Stream market events
// @Description Upgrades to a websocket that receives MarketItemCreated, MarketItemSold and MarketItemDeleted events as JSON
// @Tags events
// @Param address query string false "Only events where this address is seller or buyer"
// @Success 101
// @Failure 400 {object} response.APIResponse
// @Router /ws/events [get]
func (h *Handler) ServeWS(c *gin.Context) {
	var filter common.Address
	if raw := c.Query("address"); raw != "" {
		if !common.IsHexAddress(raw) {
			response.SendAPIError(c, http.StatusBadRequest, "INVALID_INPUT", "invalid address filter")
			return
		}
		filter = common.HexToAddress(raw)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Websocket upgrade failed")
		return
	}

	client := h.hub.AddClient(conn, filter)
	zap.L().With(
		zap.String("client", client.ID.String()),
		zap.String("filter", filter.Hex()),
	).Info("Event subscriber connected")

	go h.readLoop(client)
	go h.writeLoop(client)
}

// Status godoc
// @Summary Event stream status
// @Description Returns the number of connected event subscribers
// @Tags events
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /events/status [get]
func (h *Handler) Status(c *gin.Context) {
	response.SendAPIResponse(c, http.StatusOK, true, "event stream status", gin.H{
		"subscribers": h.hub.Count(),
	})
}

// readLoop only services control frames; subscribers have nothing to say.
func (h *Handler) readLoop(client *Client) {
	defer func() {
		h.hub.RemoveClient(client.ID)
		_ = client.Conn.Close()
		zap.L().With(zap.String("client", client.ID.String())).Info("Event subscriber disconnected")
	}()

	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				zap.L().With(zap.String("client", client.ID.String()), zap.Error(err)).Warn("Websocket read failed")
			}
			return
		}
	}
}

func (h *Handler) writeLoop(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.Done:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = client.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return

		case ev := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(ev); err != nil {
				zap.L().With(zap.String("client", client.ID.String()), zap.Error(err)).Warn("Websocket write failed")
				return
			}

		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
