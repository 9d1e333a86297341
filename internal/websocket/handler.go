package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"quickpoll/internal/events"
	"quickpoll/internal/services"
	"quickpoll/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const readWait = 60 * time.Second

type Handler struct {
	auth      *services.AuthService
	hub       *Hub
	recounter Recounter
}

func NewHandler(auth *services.AuthService, hub *Hub, recounter Recounter) *Handler {
	return &Handler{auth: auth, hub: hub, recounter: recounter}
}

// clientCommand is what viewers send: subscribe/unsubscribe to a poll.
type clientCommand struct {
	Action string `json:"action"`
	PollID string `json:"poll_id"`
}

// Connect upgrades the request and serves the subscription loop. Anyone may
// watch a poll; a valid token just attributes the connection to a user.
func (h *Handler) Connect(c *gin.Context) {
	userID := ""
	if token := c.Query("token"); token != "" {
		claims, err := h.auth.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			return
		}
		userID = claims.UserID
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	go client.WriteLoop(ctx)

	conn.SetReadDeadline(time.Now().Add(readWait))
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		var cmd clientCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			continue
		}
		h.dispatch(ctx, client, cmd)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, cmd clientCommand) {
	pollID, err := uuid.Parse(cmd.PollID)
	if err != nil {
		return
	}
	channel := events.PollChannel(pollID)

	switch cmd.Action {
	case "subscribe":
		h.hub.Subscribe(client, channel)
		// Prime the new viewer with the current tally so it does not wait
		// for the next vote to see state.
		if t, err := h.recounter.ComputeTally(ctx, pollID); err == nil {
			if data, err := json.Marshal(Message{Type: MessageTally, Data: httpdto.ToTallyView(t)}); err == nil {
				client.SendMessage(data)
			}
		}
	case "unsubscribe":
		h.hub.Unsubscribe(client, channel)
	}
}
