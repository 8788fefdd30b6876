package websocket

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/service"
)

const (
	// How long to wait for a pong before declaring the participant dropped.
	pongWait = 60 * time.Second
	// Must be shorter than pongWait.
	pingPeriod = 25 * time.Second

	writeWait = 10 * time.Second
)

// PresenceHandler upgrades participant connections and keeps the presence
// state in sync with the socket lifetime. The socket itself carries no
// application payload: opening it marks the participant present, losing
// it opens the disconnect grace window.
type PresenceHandler struct {
	upgrader     websocket.Upgrader
	matchService *service.MatchService
}

// NewPresenceHandler creates a PresenceHandler instance.
func NewPresenceHandler(matchService *service.MatchService) *PresenceHandler {
	if matchService == nil {
		panic("MatchService cannot be nil for PresenceHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: restrict origins once the client domains are fixed.
			return true
		},
	}

	return &PresenceHandler{
		upgrader:     upgrader,
		matchService: matchService,
	}
}

// HandleConnection handles GET /ws/sessions/:sessionId.
func (h *PresenceHandler) HandleConnection(c *gin.Context) {
	logCtx := logrus.WithFields(logrus.Fields{})

	userIDAny, exists := c.Get("user_id")
	if !exists {
		logCtx.Warn("Presence: user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logCtx.Error("Presence: user ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx = logCtx.WithField("user_id", userID)

	sessionIDStr := c.Param("sessionId")
	sessionID64, err := strconv.ParseUint(sessionIDStr, 10, 32)
	if err != nil {
		logCtx.WithError(err).Warnf("Presence: invalid session ID format: %s", sessionIDStr)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID format"})
		return
	}
	sessionID := uint(sessionID64)
	logCtx = logCtx.WithField("session_id", sessionID)

	// The caller must already hold a seat; presence does not grant one.
	if err := h.matchService.HandleConnect(c.Request.Context(), sessionID, userID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			logCtx.Warn("Presence: no active seat for this user")
			c.JSON(http.StatusNotFound, gin.H{"error": "No active seat in this session"})
			return
		}
		logCtx.WithError(err).Error("Presence: connect handling failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register presence"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logCtx.WithError(err).Error("Presence: failed to upgrade connection")
		h.matchService.HandleDisconnect(c.Request.Context(), sessionID, userID)
		return
	}
	logCtx.Info("Presence: connection established")

	go h.keepAlive(conn, sessionID, userID, logCtx)
}

// keepAlive pings the client and drains its frames until the socket dies,
// then opens the disconnect grace window.
func (h *PresenceHandler) keepAlive(conn *websocket.Conn, sessionID, userID uint, logCtx *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		// The socket context is gone; disconnect handling gets its own.
		h.matchService.HandleDisconnect(context.Background(), sessionID, userID)
		logCtx.Info("Presence: connection closed")
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logCtx.WithError(err).Warn("Presence: unexpected socket close")
			}
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
