package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prepstack/satprep-backend/internal/middleware"
	"github.com/prepstack/satprep-backend/internal/service"
	"github.com/prepstack/satprep-backend/internal/session"
	ws "github.com/prepstack/satprep-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live session state to the test screen: a snapshot every
// second and a single time-up event when the countdown hits zero. The read
// side carries app lifecycle signals (background/foreground).
type WSHandler struct {
	sessionService *service.TestSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.TestSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/tests/:paper_id/stream?token=...
// Upgrades to WebSocket for the live countdown and lifecycle signals. The
// session must already be started via the REST endpoint.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	paperID, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper ID"})
		return
	}

	engine, err := h.sessionService.Get(claims.StudentID, paperID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for this paper"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.StudentID).
		Str("paper_id", paperID.String()).
		Logger()
	wsLog.Info().Msg("Session stream connected")

	// All writes funnel through one goroutine; gorilla connections allow a
	// single concurrent writer.
	outgoing := make(chan interface{}, 8)
	done := make(chan struct{})

	go h.writePump(conn, engine, outgoing, done, wsLog)
	h.readPump(c.Request.Context(), conn, claims.StudentID, paperID, outgoing, wsLog)

	close(done)

	// A dropped connection means the app went away without saying so; treat it
	// as a background event so progress is checkpointed right away. The request
	// context is already canceled at this point.
	if err := h.sessionService.Backgrounded(context.Background(), claims.StudentID, paperID); err != nil && !errors.Is(err, service.ErrNoActiveSession) {
		wsLog.Warn().Err(err).Msg("Disconnect checkpoint failed")
	}
	wsLog.Info().Msg("Session stream closed")
}

// writePump streams a snapshot every second and relays read-side replies.
// The time-up signal is forwarded exactly once, then ticks continue so the
// client keeps seeing the expired snapshot until it submits.
func (h *WSHandler) writePump(conn *websocket.Conn, engine *session.Engine, outgoing <-chan interface{}, done <-chan struct{}, wsLog zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-engine.TimeUp():
			if err := ws.WriteTyped(conn, ws.TimeUpResponse{Event: ws.EventTimeUp, Snapshot: engine.Snapshot()}); err != nil {
				return
			}
		case msg := <-outgoing:
			if err := ws.WriteTyped(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			// An open stream counts as renderer activity; without this a
			// student watching the timer would be reaped as idle.
			engine.Touch()
			snap := engine.Snapshot()
			if snap.Status == session.StatusSubmitted {
				return
			}
			if err := ws.WriteTyped(conn, ws.TickResponse{Event: ws.EventTick, Snapshot: snap}); err != nil {
				return
			}
		}
	}
}

// readPump consumes lifecycle actions until the connection drops.
func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, studentID int, paperID uuid.UUID, outgoing chan<- interface{}, wsLog zerolog.Logger) {
	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionBackground:
			if err := h.sessionService.Backgrounded(ctx, studentID, paperID); err != nil {
				wsLog.Warn().Err(err).Msg("Background checkpoint failed")
			}
		case ws.ActionForeground:
			if err := h.sessionService.Foregrounded(ctx, studentID, paperID); err != nil {
				wsLog.Warn().Err(err).Msg("Foreground reconciliation failed")
			}
		case ws.ActionPing:
			select {
			case outgoing <- ws.PongResponse{Event: ws.EventPong}:
			default:
			}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			select {
			case outgoing <- ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)}:
			default:
			}
		}
	}
}
