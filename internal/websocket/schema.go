package websocket

import "github.com/prepstack/satprep-backend/internal/session"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	// ActionBackground is sent when the app leaves the foreground so the
	// session checkpoints immediately.
	ActionBackground Action = "background"
	// ActionForeground is sent on return so the countdown reconciles
	// against wall-clock time.
	ActionForeground Action = "foreground"
	ActionPing       Action = "ping"
)

// RequestPayload carries every client action; only Action is always set.
type RequestPayload struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick   Event = "tick"
	EventTimeUp Event = "time_up"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// TickResponse streams the session snapshot once per second.
type TickResponse struct {
	Event    Event            `json:"event"`
	Snapshot session.Snapshot `json:"snapshot"`
}

// TimeUpResponse fires once when the countdown hits zero. The client is
// expected to prompt the student and submit; the server never auto-submits.
type TimeUpResponse struct {
	Event    Event            `json:"event"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
