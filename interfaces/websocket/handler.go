// Package websocket streams note snapshots to connected clients. Each
// connection gets its own feed subscription; a slow client only ever
// receives the newest snapshot, never a backlog.
package websocket

import (
	"net/http"
	"time"

	"maxnotes/application/ports"
	"maxnotes/application/services"
	"maxnotes/interfaces/http/rest/handlers"
	"maxnotes/pkg/auth"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// snapshotFrame is one pushed message
type snapshotFrame struct {
	Type  string                  `json:"type"`
	Notes []handlers.NoteResponse `json:"notes"`
}

// errorFrame is sent before closing when the stream fails
type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Handler upgrades connections and pumps feed snapshots into them
type Handler struct {
	session  *services.SessionController
	feed     *services.NoteFeed
	tokens   *auth.TokenService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler
func NewHandler(
	session *services.SessionController,
	feed *services.NoteFeed,
	tokens *auth.TokenService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		session: session,
		feed:    feed,
		tokens:  tokens,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP authenticates via the token query parameter, upgrades the
// connection and streams snapshots until either side closes
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := h.tokens.Validate(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	identity := h.session.Identity()
	if identity == nil || identity.ID != claims.UserID {
		http.Error(w, "token does not match active session", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.feed.Watch()
	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

// readPump drains client frames so pong handling works, and releases the
// subscription when the client goes away
func (h *Handler) readPump(conn *websocket.Conn, sub *ports.Subscription) {
	defer func() {
		sub.Close() //nolint:errcheck
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards snapshots and keeps the connection alive with pings.
// When the subscription ends it reports a terminal stream error to the
// client before closing.
func (h *Handler) writePump(conn *websocket.Conn, sub *ports.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				if err := sub.Err(); err != nil {
					h.writeError(conn, err.Error())
				}
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait)) //nolint:errcheck
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := conn.WriteJSON(snapshotFrame{
				Type:  "snapshot",
				Notes: handlers.ToNoteResponses(snapshot),
			}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeError(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	conn.WriteJSON(errorFrame{Type: "error", Message: message}) //nolint:errcheck
}
