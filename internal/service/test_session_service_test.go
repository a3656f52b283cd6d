package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepstack/satprep-backend/internal/config"
	"github.com/prepstack/satprep-backend/internal/session"
	"github.com/rs/zerolog"
)

type fakePapers struct {
	questions []session.Question
	duration  int
	err       error
}

func (f *fakePapers) SessionMaterial(ctx context.Context, paperID uuid.UUID) ([]session.Question, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.questions, f.duration, nil
}

type recordSink struct {
	err   error
	calls int
}

func (s *recordSink) Submit(ctx context.Context, id session.Identity, timeTakenSeconds int, answers []session.SubmittedAnswer) ([]session.AnswerResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	results := make([]session.AnswerResult, 0, len(answers))
	for _, a := range answers {
		results = append(results, session.AnswerResult{QuestionID: a.QuestionID, IsCorrect: true})
	}
	return results, nil
}

func newTestService(t *testing.T) (*TestSessionService, *session.MemoryStore, *recordSink) {
	t.Helper()
	papers := &fakePapers{
		questions: []session.Question{
			{ID: uuid.NewString(), Text: "q1", Options: []string{"a", "b"}},
			{ID: uuid.NewString(), Text: "q2", Options: []string{"c", "d"}},
			{ID: uuid.NewString(), Text: "q3", Options: []string{"e", "f"}},
		},
		duration: 300,
	}
	store := session.NewMemoryStore()
	sink := &recordSink{}
	return NewTestSessionService(papers, store, sink, zerolog.Nop()), store, sink
}

func TestStartIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	paperID := uuid.New()

	first, err := svc.Start(ctx, 1, paperID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.CloseAll(ctx)

	second, err := svc.Start(ctx, 1, paperID)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if first != second {
		t.Error("second Start returned a different engine")
	}
}

func TestStartIsolatesStudentsAndPapers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	paperID := uuid.New()

	a, err := svc.Start(ctx, 1, paperID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.CloseAll(ctx)

	b, err := svc.Start(ctx, 2, paperID)
	if err != nil {
		t.Fatalf("Start student 2: %v", err)
	}
	if a == b {
		t.Error("students share an engine")
	}

	c, err := svc.Start(ctx, 1, uuid.New())
	if err != nil {
		t.Fatalf("Start other paper: %v", err)
	}
	if a == c {
		t.Error("papers share an engine")
	}
}

func TestGetWithoutStart(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Get(1, uuid.New()); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Get = %v, want ErrNoActiveSession", err)
	}
	if _, err := svc.Snapshot(1, uuid.New()); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Snapshot = %v, want ErrNoActiveSession", err)
	}
	if err := svc.SelectAnswer(1, uuid.New(), 0, "a"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("SelectAnswer = %v, want ErrNoActiveSession", err)
	}
}

func TestReapThenResumeKeepsProgress(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	paperID := uuid.New()

	if _, err := svc.Start(ctx, 1, paperID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.CloseAll(ctx)

	if err := svc.SelectAnswer(1, paperID, 0, "b"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	// Reap with zero tolerance: the engine is closed but its checkpoint stays.
	time.Sleep(time.Millisecond)
	if n := svc.ReapIdle(ctx, 0); n != 1 {
		t.Fatalf("ReapIdle = %d, want 1", n)
	}
	if _, err := svc.Get(1, paperID); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("engine still hosted after reap: %v", err)
	}

	resumed, err := svc.Start(ctx, 1, paperID)
	if err != nil {
		t.Fatalf("resume Start: %v", err)
	}
	snap := resumed.Snapshot()
	if snap.AnsweredCount != 1 {
		t.Errorf("answered_count after resume = %d, want 1", snap.AnsweredCount)
	}
	if got := snap.Answers[0]; got != "b" {
		t.Errorf("answers[0] after resume = %q, want %q", got, "b")
	}
}

func TestStreamedSessionSurvivesReaping(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	paperID := uuid.New()

	engine, err := svc.Start(ctx, 1, paperID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.CloseAll(ctx)

	// A live stream touches the engine on every tick even when the student
	// issues no command; that must keep the reaper away.
	time.Sleep(20 * time.Millisecond)
	engine.Touch()
	if n := svc.ReapIdle(ctx, 10*time.Millisecond); n != 0 {
		t.Fatalf("ReapIdle = %d, want 0 for a streamed session", n)
	}
	if _, err := svc.Get(1, paperID); err != nil {
		t.Errorf("engine reaped while streamed: %v", err)
	}

	// Once the touches stop, the same threshold reaps it.
	time.Sleep(20 * time.Millisecond)
	if n := svc.ReapIdle(ctx, 10*time.Millisecond); n != 1 {
		t.Errorf("ReapIdle = %d, want 1 after activity stops", n)
	}
}

func TestSubmitDeregistersAndClearsCheckpoint(t *testing.T) {
	svc, store, sink := newTestService(t)
	ctx := context.Background()
	paperID := uuid.New()

	if _, err := svc.Start(ctx, 7, paperID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.SelectAnswer(7, paperID, 0, "a"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	result, err := svc.Submit(ctx, 7, paperID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sink.calls != 1 {
		t.Errorf("sink calls = %d, want 1", sink.calls)
	}
	if len(result.Results) != 1 {
		t.Errorf("results = %d, want 1", len(result.Results))
	}

	if _, err := svc.Get(7, paperID); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("engine still hosted after submit: %v", err)
	}

	key := config.CacheKey.TestCheckpointKey(paperID.String(), 7)
	if _, err := store.Read(ctx, key); !errors.Is(err, session.ErrNoCheckpoint) {
		t.Errorf("checkpoint not cleared after submit: %v", err)
	}
}

func TestSubmitSinkFailureKeepsEngineHosted(t *testing.T) {
	svc, _, sink := newTestService(t)
	ctx := context.Background()
	paperID := uuid.New()

	if _, err := svc.Start(ctx, 1, paperID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.CloseAll(ctx)

	sink.err = errors.New("queue down")
	if _, err := svc.Submit(ctx, 1, paperID); err == nil {
		t.Fatal("Submit succeeded with failing sink")
	}

	// The session survives the failure; a retry succeeds.
	if _, err := svc.Get(1, paperID); err != nil {
		t.Fatalf("engine gone after failed submit: %v", err)
	}
	sink.err = nil
	if _, err := svc.Submit(ctx, 1, paperID); err != nil {
		t.Errorf("retry Submit: %v", err)
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	paperID := uuid.New()

	if _, err := svc.Start(ctx, 3, paperID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Backgrounded(ctx, 3, paperID); err != nil {
		t.Fatalf("Backgrounded: %v", err)
	}

	key := config.CacheKey.TestCheckpointKey(paperID.String(), 3)
	if _, err := store.Read(ctx, key); err != nil {
		t.Fatalf("checkpoint missing before abandon: %v", err)
	}

	if err := svc.Abandon(ctx, 3, paperID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := svc.Get(3, paperID); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("engine still hosted after abandon: %v", err)
	}
	if _, err := store.Read(ctx, key); !errors.Is(err, session.ErrNoCheckpoint) {
		t.Errorf("checkpoint survived abandon: %v", err)
	}
}

func TestCloseAllCheckpointsEverything(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	paperID := uuid.New()

	if _, err := svc.Start(ctx, 1, paperID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Start(ctx, 2, paperID); err != nil {
		t.Fatalf("Start student 2: %v", err)
	}

	svc.CloseAll(ctx)

	for _, studentID := range []int{1, 2} {
		if _, err := svc.Get(studentID, paperID); !errors.Is(err, ErrNoActiveSession) {
			t.Errorf("student %d still hosted after CloseAll: %v", studentID, err)
		}
		key := config.CacheKey.TestCheckpointKey(paperID.String(), studentID)
		if _, err := store.Read(ctx, key); err != nil {
			t.Errorf("student %d checkpoint missing after CloseAll: %v", studentID, err)
		}
	}
}

func TestStartPropagatesPaperErrors(t *testing.T) {
	papers := &fakePapers{err: ErrPaperNotAvailable}
	svc := NewTestSessionService(papers, session.NewMemoryStore(), &recordSink{}, zerolog.Nop())

	if _, err := svc.Start(context.Background(), 1, uuid.New()); !errors.Is(err, ErrPaperNotAvailable) {
		t.Errorf("Start = %v, want ErrPaperNotAvailable", err)
	}
}

func TestSanitizedQuestionsStripAnswerKey(t *testing.T) {
	id := uuid.New()
	out := SanitizedQuestions([]session.Question{
		{ID: id.String(), Text: "2+2?", Options: []string{"3", "4"}, Subject: "MATH"},
	})
	if len(out) != 1 {
		t.Fatalf("got %d questions, want 1", len(out))
	}
	q := out[0]
	if q.ID != id || q.QuestionText != "2+2?" || len(q.Options) != 2 {
		t.Errorf("unexpected DTO: %+v", q)
	}
}
