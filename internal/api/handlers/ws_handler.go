package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/univeil/univeil/internal/services"
	"github.com/univeil/univeil/internal/utils"
)

// WSHandler relays the identified conversation a mutual extension unlocks.
// Messages fan out through Redis Pub/Sub so any instance holding the partner's
// socket delivers them; the transcript is persisted through the blind service
// so the polling fallback stays consistent.
type WSHandler struct {
	blind    services.BlindService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(blind services.BlindService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		blind: blind,
		redis: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsChatMsg struct {
	Type      string `json:"type"` // message | end_session
	Text      string `json:"text,omitempty"`
	SenderID  string `json:"sender_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) ConversationWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.ConversationWS", "missing session_id", nil))
		return
	}

	// authorize membership and require a live session
	st, err := h.blind.Messages(c.Request.Context(), userID, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !sessionStatusOK(st.Status) {
		writeError(c, utils.E(utils.CodeSessionExpired, "WSHandler.ConversationWS", "session is not live", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	channel := "blind:" + sessionID + ":messages"
	pubsub := h.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	// reader: WS -> persist + publish
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg wsChatMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "message":
				updated, serr := h.blind.Send(ctx, userID, sessionID, msg.Text)
				if serr != nil {
					out, _ := json.Marshal(APIError{Code: utils.ErrCode(serr), Message: "send failed"})
					_ = wc.writeText(out)
					if utils.IsCode(serr, utils.CodeSessionExpired) {
						return
					}
					continue
				}

				last := updated.Messages[len(updated.Messages)-1]
				payload, _ := json.Marshal(wsChatMsg{
					Type:      "message",
					Text:      last.Text,
					SenderID:  last.SenderID,
					CreatedAt: last.CreatedAt.Format(time.RFC3339),
				})
				_ = h.redis.Publish(ctx, channel, string(payload)).Err()

			case "end_session":
				_ = h.blind.End(ctx, userID, sessionID)
				_ = h.redis.Publish(ctx, channel, `{"type":"status","status":"ended"}`).Err()
				return

			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			// forward as-is (payload expected JSON string)
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
