package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepstack/satprep-backend/internal/config"
	"github.com/prepstack/satprep-backend/internal/model"
	"github.com/prepstack/satprep-backend/internal/session"
	"github.com/rs/zerolog"
)

var ErrNoActiveSession = errors.New("no active test session")

// PaperSource supplies the question sequence and duration for a paper.
// Satisfied by PaperService.
type PaperSource interface {
	SessionMaterial(ctx context.Context, paperID uuid.UUID) ([]session.Question, int, error)
}

// TestSessionService hosts the live session engines, one per
// (student, paper). Engines are created on start, resumed transparently from
// their Redis checkpoint, and deregistered on submission or abandonment.
type TestSessionService struct {
	papers PaperSource
	store  session.CheckpointStore
	sink   session.SubmissionSink
	log    zerolog.Logger

	mu      sync.Mutex
	engines map[string]*session.Engine
}

// NewTestSessionService creates a new TestSessionService.
func NewTestSessionService(
	papers PaperSource,
	store session.CheckpointStore,
	sink session.SubmissionSink,
	log zerolog.Logger,
) *TestSessionService {
	return &TestSessionService{
		papers:  papers,
		store:   store,
		sink:    sink,
		log:     log.With().Str("component", "test_session_service").Logger(),
		engines: make(map[string]*session.Engine),
	}
}

// Start begins or resumes a session for a student on a paper. Starting is
// idempotent: an engine already hosted in-process is returned as is, and an
// interrupted one is rebuilt from its checkpoint.
func (s *TestSessionService) Start(ctx context.Context, studentID int, paperID uuid.UUID) (*session.Engine, error) {
	key := config.CacheKey.TestCheckpointKey(paperID.String(), studentID)

	s.mu.Lock()
	if e, ok := s.engines[key]; ok {
		s.mu.Unlock()
		return e, nil
	}
	s.mu.Unlock()

	questions, durationSeconds, err := s.papers.SessionMaterial(ctx, paperID)
	if err != nil {
		return nil, err
	}

	e, err := session.New(ctx, session.Config{
		Identity:             session.Identity{StudentID: studentID, PaperID: paperID.String()},
		Key:                  key,
		TotalDurationSeconds: durationSeconds,
		Store:                s.store,
		Sink:                 s.sink,
		Log:                  s.log,
	}, questions)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// A concurrent Start may have won the race; keep the first engine and
	// stop ours without writing to the shared checkpoint slot — the winner
	// owns it now and a close-time save would clobber its state.
	if existing, ok := s.engines[key]; ok {
		s.mu.Unlock()
		e.Discard()
		return existing, nil
	}
	s.engines[key] = e
	s.mu.Unlock()

	return e, nil
}

// Get returns the hosted engine for a student's session on a paper.
func (s *TestSessionService) Get(studentID int, paperID uuid.UUID) (*session.Engine, error) {
	key := config.CacheKey.TestCheckpointKey(paperID.String(), studentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[key]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return e, nil
}

// Snapshot returns the renderer view of a session.
func (s *TestSessionService) Snapshot(studentID int, paperID uuid.UUID) (*session.Snapshot, error) {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return nil, err
	}
	snap := e.Snapshot()
	return &snap, nil
}

// SelectAnswer records an option text for the question at an index.
func (s *TestSessionService) SelectAnswer(studentID int, paperID uuid.UUID, index int, answer string) error {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return err
	}
	return e.SelectAnswer(index, answer)
}

// GoTo jumps the current question pointer.
func (s *TestSessionService) GoTo(studentID int, paperID uuid.UUID, index int) error {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return err
	}
	return e.GoTo(index)
}

// Next advances one question.
func (s *TestSessionService) Next(studentID int, paperID uuid.UUID) error {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return err
	}
	return e.Next()
}

// Previous steps back one question.
func (s *TestSessionService) Previous(studentID int, paperID uuid.UUID) error {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return err
	}
	return e.Previous()
}

// Questions returns the sanitized question sequence of a hosted session.
func (s *TestSessionService) Questions(studentID int, paperID uuid.UUID) ([]session.Question, error) {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return nil, err
	}
	return e.Questions(), nil
}

// Submit grades the session and, on success, deregisters the engine. On sink
// failure the engine stays hosted with its state intact so the student can
// retry.
func (s *TestSessionService) Submit(ctx context.Context, studentID int, paperID uuid.UUID) (*session.Result, error) {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return nil, err
	}

	result, err := e.Submit(ctx)
	if err != nil {
		return nil, err
	}

	s.deregister(studentID, paperID)
	return result, nil
}

// Backgrounded checkpoints a session when the app leaves the foreground.
func (s *TestSessionService) Backgrounded(ctx context.Context, studentID int, paperID uuid.UUID) error {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return err
	}
	e.Backgrounded(ctx)
	return nil
}

// Foregrounded reconciles a session against wall-clock time after the app
// returns to the foreground.
func (s *TestSessionService) Foregrounded(ctx context.Context, studentID int, paperID uuid.UUID) error {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return err
	}
	e.Foregrounded(ctx)
	return nil
}

// Abandon discards a session and its checkpoint.
func (s *TestSessionService) Abandon(ctx context.Context, studentID int, paperID uuid.UUID) error {
	e, err := s.Get(studentID, paperID)
	if err != nil {
		return err
	}
	if err := e.Abandon(ctx); err != nil {
		return err
	}
	s.deregister(studentID, paperID)
	return nil
}

func (s *TestSessionService) deregister(studentID int, paperID uuid.UUID) {
	key := config.CacheKey.TestCheckpointKey(paperID.String(), studentID)
	s.mu.Lock()
	delete(s.engines, key)
	s.mu.Unlock()
}

// CloseAll checkpoints and stops every hosted engine. Called on shutdown so
// in-flight sessions resume cleanly after a restart.
func (s *TestSessionService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	engines := make([]*session.Engine, 0, len(s.engines))
	for _, e := range s.engines {
		engines = append(engines, e)
	}
	s.engines = make(map[string]*session.Engine)
	s.mu.Unlock()

	for _, e := range engines {
		e.Close(ctx)
	}
	s.log.Info().Int("count", len(engines)).Msg("All sessions checkpointed and closed")
}

// ReapIdle closes engines with no renderer activity for longer than maxIdle.
// Their checkpoints survive, so a returning student resumes where they left
// off; only the in-process resources are released.
func (s *TestSessionService) ReapIdle(ctx context.Context, maxIdle time.Duration) int {
	now := time.Now()

	s.mu.Lock()
	var stale []*session.Engine
	for key, e := range s.engines {
		if now.Sub(e.LastActivity()) > maxIdle {
			stale = append(stale, e)
			delete(s.engines, key)
		}
	}
	s.mu.Unlock()

	for _, e := range stale {
		e.Close(ctx)
	}
	if len(stale) > 0 {
		s.log.Info().Int("count", len(stale)).Msg("Idle sessions reaped")
	}
	return len(stale)
}

// SanitizedQuestions converts session questions into API DTOs.
func SanitizedQuestions(questions []session.Question) []model.SanitizedQuestion {
	out := make([]model.SanitizedQuestion, 0, len(questions))
	for _, q := range questions {
		id, _ := uuid.Parse(q.ID)
		out = append(out, model.SanitizedQuestion{
			ID:           id,
			QuestionText: q.Text,
			Options:      q.Options,
			Passage:      q.Passage,
			Subject:      model.Subject(q.Subject),
		})
	}
	return out
}
