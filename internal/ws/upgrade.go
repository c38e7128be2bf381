package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"tripsync/config"
	"tripsync/internal/auth"
	"tripsync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type clientFrame struct {
	Type string `json:"type"`
}

// UpgradePresenceWS joins the caller to a trip's presence room. The token and
// trip membership are checked before the client registers; any failure closes
// the socket with a single error frame. Presence is best-effort: the page
// keeps working without it, so nothing here retries.
func UpgradePresenceWS(cfg *config.JWTConfig, presenceCfg *config.PresenceConfig, hub *PresenceHub, tripRepo *repository.TripRepository, userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		token := c.Query("token")
		if token == "" {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"token required"}`))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
			return
		}
		tripID64, err := strconv.ParseUint(c.Query("trip_id"), 10, 32)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"trip_id required"}`))
			return
		}
		tripID := uint(tripID64)
		if _, err := tripRepo.GetMember(tripID, claims.UserID); err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"not a trip member"}`))
			return
		}
		user, err := userRepo.GetByID(claims.UserID)
		if err != nil {
			// profile lookup failed; degrade to no presence rather than erroring the page
			log.Printf("presence: profile lookup for user %d failed: %v", claims.UserID, err)
			return
		}

		client := &Client{
			UserID: claims.UserID,
			TripID: tripID,
			Send:   make(chan []byte, 256),
		}
		profile := user.Public()
		hub.Join(client, profile.Username, profile.AvatarURL)
		defer client.Close()

		go writePump(client, conn, presenceCfg.HeartbeatInterval)
		readPump(conn, hub, tripID, claims.UserID)
	}
}

// writePump copies frames from client.Send to the connection and pings on the
// heartbeat interval to keep intermediaries from dropping the socket.
func writePump(c *Client, conn *websocket.Conn, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes client frames until the socket dies. Heartbeats refresh
// the caller's presence entry; everything else is ignored.
func readPump(conn *websocket.Conn, hub *PresenceHub, tripID, userID uint) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var frame clientFrame
		if json.Unmarshal(data, &frame) == nil && frame.Type == "heartbeat" {
			hub.Heartbeat(tripID, userID)
		}
	}
}
