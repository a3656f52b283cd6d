package worker

import (
	"context"
	"time"

	"github.com/prepstack/satprep-backend/internal/service"
	"github.com/rs/zerolog"
)

const (
	ReapInterval = time.Minute
	// MaxSessionIdle is how long a hosted engine may sit without renderer
	// activity before its in-process resources are released. The Redis
	// checkpoint survives, so the student still resumes seamlessly.
	MaxSessionIdle = 30 * time.Minute
)

// SessionReaper periodically closes idle session engines.
type SessionReaper struct {
	sessions *service.TestSessionService
	log      zerolog.Logger
}

// NewSessionReaper creates a new SessionReaper.
func NewSessionReaper(sessions *service.TestSessionService, log zerolog.Logger) *SessionReaper {
	return &SessionReaper{
		sessions: sessions,
		log:      log.With().Str("component", "session_reaper").Logger(),
	}
}

// Start begins the reaper loop. Call in a goroutine.
func (w *SessionReaper) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sessions.ReapIdle(ctx, MaxSessionIdle)
		}
	}
}
