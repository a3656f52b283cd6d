package session

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeClock is a manually-advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSink records the last submission and can be primed to fail.
type fakeSink struct {
	mu         sync.Mutex
	err        error
	calls      int
	gotID      Identity
	gotTime    int
	gotAnswers []SubmittedAnswer
}

func (s *fakeSink) Submit(ctx context.Context, id Identity, timeTaken int, answers []SubmittedAnswer) ([]AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gotID = id
	s.gotTime = timeTaken
	s.gotAnswers = answers
	if s.err != nil {
		return nil, s.err
	}
	results := make([]AnswerResult, 0, len(answers))
	for _, a := range answers {
		results = append(results, AnswerResult{QuestionID: a.QuestionID, IsCorrect: true})
	}
	return results, nil
}

// failingStore wraps a MemoryStore and fails writes on demand.
type failingStore struct {
	*MemoryStore
	failWrites bool
}

func (s *failingStore) Write(ctx context.Context, key string, data []byte) error {
	if s.failWrites {
		return errors.New("store unavailable")
	}
	return s.MemoryStore.Write(ctx, key, data)
}

func testQuestions() []Question {
	return []Question{
		{ID: "q0", Text: "2+2?", Options: []string{"3", "4", "5", "6"}},
		{ID: "q1", Text: "3*3?", Options: []string{"6", "9", "12", "27"}},
		{ID: "q2", Text: "Capital of the UK?", Options: []string{"Paris", "London", "Dublin", "Madrid"}},
		{ID: "q3", Text: "H2O is?", Options: []string{"Water", "Salt", "Air", "Gold"}},
		{ID: "q4", Text: "Largest planet?", Options: []string{"Mars", "Venus", "Jupiter", "Saturn"}},
	}
}

func testConfig(clock Clock, store CheckpointStore, sink SubmissionSink, duration int) Config {
	return Config{
		Identity:             Identity{StudentID: 7, PaperID: "paper-1"},
		Key:                  "student:7:paper:paper-1:checkpoint",
		TotalDurationSeconds: duration,
		Clock:                clock,
		Store:                store,
		Sink:                 sink,
		Log:                  zerolog.Nop(),
		// Keep the real loop dormant so tests drive ticks deterministically.
		TickInterval:     time.Hour,
		AutosaveInterval: time.Hour,
	}
}

func newTestEngine(t *testing.T, clock Clock, store CheckpointStore, sink SubmissionSink, duration int) *Engine {
	t.Helper()
	e, err := New(context.Background(), testConfig(clock, store, sink, duration), testQuestions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestFreshStart(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400)

	snap := e.Snapshot()
	if snap.Status != StatusActive {
		t.Fatalf("status = %s, want ACTIVE", snap.Status)
	}
	if snap.TimeRemainingSeconds != 5400 {
		t.Errorf("time remaining = %d, want 5400", snap.TimeRemainingSeconds)
	}
	if snap.TimeRemaining != "01:30:00" {
		t.Errorf("formatted time = %q, want 01:30:00", snap.TimeRemaining)
	}
	if snap.CurrentIndex != 0 {
		t.Errorf("current index = %d, want 0", snap.CurrentIndex)
	}
	if snap.Grid[0] != GridCurrent {
		t.Errorf("grid[0] = %s, want current", snap.Grid[0])
	}
	for i := 1; i < 5; i++ {
		if snap.Grid[i] != GridUnseen {
			t.Errorf("grid[%d] = %s, want unseen", i, snap.Grid[i])
		}
	}
	if snap.AnsweredCount != 0 || snap.UnansweredCount != 5 {
		t.Errorf("counts = %d answered / %d unanswered, want 0/5", snap.AnsweredCount, snap.UnansweredCount)
	}
}

func TestNoQuestionsIsFatal(t *testing.T) {
	_, err := New(context.Background(), testConfig(newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400), nil)
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
}

// The answered set equals exactly the set of indices ever selected, no matter
// how many times each was selected.
func TestAnsweredSetIdempotence(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400)

	calls := []struct {
		index  int
		answer string
	}{
		{0, "4"}, {2, "Paris"}, {0, "4"}, {2, "London"}, {4, "Jupiter"}, {0, "5"},
	}
	for _, c := range calls {
		if err := e.SelectAnswer(c.index, c.answer); err != nil {
			t.Fatalf("SelectAnswer(%d, %q): %v", c.index, c.answer, err)
		}
	}

	snap := e.Snapshot()
	if snap.AnsweredCount != 3 {
		t.Fatalf("answered count = %d, want 3", snap.AnsweredCount)
	}
	want := map[int]string{0: "5", 2: "London", 4: "Jupiter"}
	if !reflect.DeepEqual(snap.Answers, want) {
		t.Errorf("answers = %v, want %v", snap.Answers, want)
	}
}

func TestSelectAnswerRejections(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400)

	if err := e.SelectAnswer(9, "4"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("out-of-range err = %v, want ErrIndexOutOfRange", err)
	}
	if err := e.SelectAnswer(0, "42"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("unknown option err = %v, want ErrUnknownOption", err)
	}
	before := e.Snapshot()
	if before.AnsweredCount != 0 {
		t.Fatalf("rejected commands mutated state: %v", before.Answers)
	}
}

// Selecting, navigating away and navigating back reproduces the same
// recorded selection.
func TestGoToRoundTripPreservesAnswer(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400)

	if err := e.SelectAnswer(1, "9"); err != nil {
		t.Fatal(err)
	}
	if err := e.GoTo(3); err != nil {
		t.Fatal(err)
	}
	if err := e.GoTo(1); err != nil {
		t.Fatal(err)
	}

	if got, ok := e.AnswerFor(1); !ok || got != "9" {
		t.Fatalf("AnswerFor(1) = %q, %t; want \"9\", true", got, ok)
	}
}

func TestGoToMarksVisited(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400)

	if err := e.GoTo(3); err != nil {
		t.Fatal(err)
	}

	snap := e.Snapshot()
	if snap.CurrentIndex != 3 {
		t.Errorf("current = %d, want 3", snap.CurrentIndex)
	}
	// Index 0 was visited at creation, now skipped; 3 is current.
	if snap.Grid[0] != GridSkipped {
		t.Errorf("grid[0] = %s, want skipped", snap.Grid[0])
	}
	if snap.Grid[3] != GridCurrent {
		t.Errorf("grid[3] = %s, want current", snap.Grid[3])
	}
	if snap.Grid[1] != GridUnseen || snap.Grid[2] != GridUnseen || snap.Grid[4] != GridUnseen {
		t.Errorf("unvisited cells changed: %v", snap.Grid)
	}
	if snap.AnsweredCount != 0 {
		t.Errorf("answered count = %d, want 0", snap.AnsweredCount)
	}
}

func TestGoToOutOfRange(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400)
	if err := e.GoTo(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
	}
	if err := e.GoTo(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestNextPreviousClampAtBounds(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400)

	if err := e.Previous(); err != nil {
		t.Fatalf("Previous at first question: %v", err)
	}
	if got := e.Snapshot().CurrentIndex; got != 0 {
		t.Fatalf("current = %d after clamped Previous, want 0", got)
	}

	if err := e.GoTo(4); err != nil {
		t.Fatal(err)
	}
	if err := e.Next(); err != nil {
		t.Fatalf("Next at last question: %v", err)
	}
	if got := e.Snapshot().CurrentIndex; got != 4 {
		t.Fatalf("current = %d after clamped Next, want 4", got)
	}
}

func writeCheckpoint(t *testing.T, store CheckpointStore, key string, cp Checkpoint) {
	t.Helper()
	data, err := json.Marshal(cp)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(context.Background(), key, data); err != nil {
		t.Fatal(err)
	}
}

// Reconciliation law: remaining = max(0, stored - elapsed).
func TestResumeReconciliation(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	cfg := testConfig(clock, store, &fakeSink{}, 5400)

	started := clock.Now().Add(-100 * time.Second)
	writeCheckpoint(t, store, cfg.Key, Checkpoint{
		TimeRemainingSeconds: 5300,
		CurrentIndex:         1,
		AnsweredIndices:      []int{1},
		VisitedIndices:       []int{0, 1},
		Answers:              map[int]string{1: "9"},
		StartedAt:            started,
		LastSavedAt:          clock.Now().Add(-65 * time.Second),
	})

	e, err := New(context.Background(), cfg, testQuestions())
	if err != nil {
		t.Fatal(err)
	}

	snap := e.Snapshot()
	if snap.TimeRemainingSeconds != 5235 {
		t.Errorf("remaining = %d, want 5235", snap.TimeRemainingSeconds)
	}
	if snap.Status != StatusActive {
		t.Errorf("status = %s, want ACTIVE", snap.Status)
	}
	if snap.CurrentIndex != 1 {
		t.Errorf("current = %d, want 1", snap.CurrentIndex)
	}
	if got, ok := e.AnswerFor(1); !ok || got != "9" {
		t.Errorf("AnswerFor(1) = %q, %t; want restored answer", got, ok)
	}
	// startedAt restored verbatim, not reset on resume.
	if e.startedAt != started {
		t.Errorf("startedAt = %v, want %v", e.startedAt, started)
	}
}

func TestResumeExpired(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	cfg := testConfig(clock, store, &fakeSink{}, 5400)

	writeCheckpoint(t, store, cfg.Key, Checkpoint{
		TimeRemainingSeconds: 10,
		CurrentIndex:         0,
		VisitedIndices:       []int{0},
		Answers:              map[int]string{},
		StartedAt:            clock.Now().Add(-90 * time.Minute),
		LastSavedAt:          clock.Now().Add(-15 * time.Second),
	})

	e, err := New(context.Background(), cfg, testQuestions())
	if err != nil {
		t.Fatal(err)
	}

	if got := e.Status(); got != StatusExpired {
		t.Fatalf("status = %s, want EXPIRED", got)
	}
	if got := e.Snapshot().TimeRemainingSeconds; got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
	select {
	case <-e.TimeUp():
	default:
		t.Error("time-up signal not fired on expired resume")
	}
	if !e.stopped {
		t.Error("countdown started on an expired session")
	}
}

func TestCorruptCheckpointStartsFresh(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	cfg := testConfig(clock, store, &fakeSink{}, 5400)

	cases := map[string][]byte{
		"garbage":   []byte("{not json"),
		"negative":  mustMarshal(t, Checkpoint{TimeRemainingSeconds: -1, VisitedIndices: []int{0}, StartedAt: clock.Now(), LastSavedAt: clock.Now()}),
		"unvisited": mustMarshal(t, Checkpoint{TimeRemainingSeconds: 100, CurrentIndex: 0, AnsweredIndices: []int{2}, VisitedIndices: []int{0}, Answers: map[int]string{2: "Paris"}, StartedAt: clock.Now(), LastSavedAt: clock.Now()}),
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if err := store.Write(context.Background(), cfg.Key, payload); err != nil {
				t.Fatal(err)
			}
			e, err := New(context.Background(), cfg, testQuestions())
			if err != nil {
				t.Fatal(err)
			}
			snap := e.Snapshot()
			if snap.TimeRemainingSeconds != 5400 || snap.Status != StatusActive || snap.AnsweredCount != 0 {
				t.Errorf("corrupt checkpoint not discarded: %+v", snap)
			}
		})
	}
}

func mustMarshal(t *testing.T, cp Checkpoint) []byte {
	t.Helper()
	data, err := json.Marshal(cp)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestTickExpiry(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 3)

	e.tick()
	e.tick()
	if got := e.Status(); got != StatusActive {
		t.Fatalf("status = %s after 2 ticks, want ACTIVE", got)
	}
	e.tick()
	if got := e.Status(); got != StatusExpired {
		t.Fatalf("status = %s after 3 ticks, want EXPIRED", got)
	}
	select {
	case <-e.TimeUp():
	default:
		t.Error("time-up signal not fired")
	}
	// Further ticks must not drive remaining below zero or change status.
	e.tick()
	if got := e.Snapshot().TimeRemainingSeconds; got != 0 {
		t.Errorf("remaining = %d after post-expiry tick, want 0", got)
	}
}

// Overwritten answers submit exactly one entry, carrying the latest text.
func TestSubmitPayloadLastWriteWins(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	sink := &fakeSink{}
	e := newTestEngine(t, clock, store, sink, 5400)

	if err := e.SelectAnswer(2, "Paris"); err != nil {
		t.Fatal(err)
	}
	if err := e.SelectAnswer(2, "London"); err != nil {
		t.Fatal(err)
	}

	clock.Advance(42 * time.Second)
	res, err := e.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(sink.gotAnswers) != 1 {
		t.Fatalf("payload has %d entries, want 1: %v", len(sink.gotAnswers), sink.gotAnswers)
	}
	if sink.gotAnswers[0].QuestionID != "q2" || sink.gotAnswers[0].Answer != "London" {
		t.Errorf("payload = %+v, want q2/London", sink.gotAnswers[0])
	}
	if sink.gotTime != 42 {
		t.Errorf("time taken = %d, want 42", sink.gotTime)
	}
	if sink.gotID.StudentID != 7 || sink.gotID.PaperID != "paper-1" {
		t.Errorf("identity = %+v", sink.gotID)
	}
	if res.TotalQuestions != 5 {
		t.Errorf("total questions = %d, want 5", res.TotalQuestions)
	}
	if res.TimeTaken != "00:00:42" {
		t.Errorf("time taken = %q, want 00:00:42", res.TimeTaken)
	}
	if got := e.Status(); got != StatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", got)
	}

	// Checkpoint destroyed on successful submission.
	if _, err := store.Read(context.Background(), e.cfg.Key); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("checkpoint still present after submission: %v", err)
	}
}

func TestSubmitSinkFailureLeavesStateUntouched(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	sink := &fakeSink{err: errors.New("grading backend unreachable")}
	e := newTestEngine(t, clock, store, sink, 5400)

	if err := e.SelectAnswer(0, "4"); err != nil {
		t.Fatal(err)
	}
	e.autosave(context.Background())
	before := e.Snapshot()

	if _, err := e.Submit(context.Background()); err == nil {
		t.Fatal("Submit succeeded with failing sink")
	}

	after := e.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("state changed across failed submit:\nbefore %+v\nafter  %+v", before, after)
	}
	// Checkpoint retained so a retry after app restart still works.
	if _, err := store.Read(context.Background(), e.cfg.Key); err != nil {
		t.Errorf("checkpoint lost after failed submit: %v", err)
	}

	// Retry succeeds once the sink recovers.
	sink.err = nil
	if _, err := e.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := e.Status(); got != StatusSubmitted {
		t.Errorf("status = %s after retry, want SUBMITTED", got)
	}
}

func TestSubmitAfterExpiry(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 1)
	e.tick()
	if got := e.Status(); got != StatusExpired {
		t.Fatalf("status = %s, want EXPIRED", got)
	}
	if _, err := e.Submit(context.Background()); err != nil {
		t.Fatalf("forced submission after expiry failed: %v", err)
	}
	if got := e.Status(); got != StatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", got)
	}
}

func TestSubmitTerminalRejected(t *testing.T) {
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), &fakeSink{}, 5400)
	if _, err := e.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Submit(context.Background()); !errors.Is(err, ErrTerminal) {
		t.Fatalf("second submit err = %v, want ErrTerminal", err)
	}
	if err := e.SelectAnswer(0, "4"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("post-submit select err = %v, want ErrNotActive", err)
	}
}

// blockingSink parks the first Submit call until released.
type blockingSink struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSink) Submit(ctx context.Context, id Identity, timeTaken int, answers []SubmittedAnswer) ([]AnswerResult, error) {
	close(s.started)
	<-s.release
	return nil, nil
}

func TestSubmitReentrancyGuard(t *testing.T) {
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	e := newTestEngine(t, newFakeClock(), NewMemoryStore(), sink, 5400)

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background())
		done <- err
	}()

	<-sink.started
	if _, err := e.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("concurrent submit err = %v, want ErrSubmitInFlight", err)
	}

	close(sink.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

func TestBackgroundForegroundReconciliation(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	e := newTestEngine(t, clock, store, &fakeSink{}, 5400)

	if err := e.SelectAnswer(0, "4"); err != nil {
		t.Fatal(err)
	}
	e.Backgrounded(context.Background())

	// 30 seconds suspended: no ticks fired, but wall time moved on.
	clock.Advance(30 * time.Second)
	e.Foregrounded(context.Background())

	snap := e.Snapshot()
	if snap.TimeRemainingSeconds != 5370 {
		t.Errorf("remaining = %d after foreground, want 5370", snap.TimeRemainingSeconds)
	}
	if snap.Status != StatusActive {
		t.Errorf("status = %s, want ACTIVE", snap.Status)
	}
	if got, ok := e.AnswerFor(0); !ok || got != "4" {
		t.Errorf("answer lost across background/foreground: %q %t", got, ok)
	}
}

func TestForegroundAfterExpiryWindow(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	e := newTestEngine(t, clock, store, &fakeSink{}, 20)

	e.Backgrounded(context.Background())
	clock.Advance(25 * time.Second)
	e.Foregrounded(context.Background())

	if got := e.Status(); got != StatusExpired {
		t.Fatalf("status = %s, want EXPIRED", got)
	}
	select {
	case <-e.TimeUp():
	default:
		t.Error("time-up signal not fired")
	}
}

func TestAutosaveFailureIsAbsorbed(t *testing.T) {
	clock := newFakeClock()
	store := &failingStore{MemoryStore: NewMemoryStore(), failWrites: true}
	e := newTestEngine(t, clock, store, &fakeSink{}, 5400)

	saved := e.lastSavedAt
	clock.Advance(5 * time.Second)
	e.autosave(context.Background())
	if !e.lastSavedAt.Equal(saved) {
		t.Error("lastSavedAt advanced despite write failure")
	}
	if got := e.Status(); got != StatusActive {
		t.Errorf("status = %s after failed autosave, want ACTIVE", got)
	}

	// Next cycle succeeds once the store recovers.
	store.failWrites = false
	e.autosave(context.Background())
	if e.lastSavedAt.Equal(saved) {
		t.Error("lastSavedAt not updated after recovered autosave")
	}
	if _, err := store.Read(context.Background(), e.cfg.Key); err != nil {
		t.Errorf("checkpoint missing after recovered autosave: %v", err)
	}
}

func TestAbandonClearsCheckpoint(t *testing.T) {
	store := NewMemoryStore()
	e := newTestEngine(t, newFakeClock(), store, &fakeSink{}, 5400)

	e.autosave(context.Background())
	if err := e.Abandon(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Read(context.Background(), e.cfg.Key); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("checkpoint present after abandon: %v", err)
	}
}

func TestDiscardNeverWritesCheckpoint(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()

	// Two engines over the same slot, as when two Start calls race. The
	// winner records answers and checkpoints them.
	winner := newTestEngine(t, clock, store, &fakeSink{}, 5400)
	loser := newTestEngine(t, clock, store, &fakeSink{}, 5400)

	if err := winner.SelectAnswer(0, "4"); err != nil {
		t.Fatal(err)
	}
	if err := winner.SelectAnswer(1, "9"); err != nil {
		t.Fatal(err)
	}
	winner.autosave(context.Background())

	loser.Discard()

	data, err := store.Read(context.Background(), winner.cfg.Key)
	if err != nil {
		t.Fatalf("read checkpoint: %v", err)
	}
	cp, err := decodeCheckpoint(data, len(testQuestions()), 5400)
	if err != nil {
		t.Fatalf("decode checkpoint: %v", err)
	}
	if len(cp.Answers) != 2 {
		t.Fatalf("checkpoint answers = %v, want the winner's 2 entries", cp.Answers)
	}
	if cp.Answers[0] != "4" || cp.Answers[1] != "9" {
		t.Errorf("checkpoint answers = %v, want {0:4, 1:9}", cp.Answers)
	}
	if got := loser.Status(); got != StatusActive {
		t.Errorf("loser status = %s, want ACTIVE (discard is not a state transition)", got)
	}
}

func TestTouchRefreshesLastActivity(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, clock, NewMemoryStore(), &fakeSink{}, 5400)

	before := e.LastActivity()
	clock.Advance(10 * time.Minute)
	e.Touch()
	if got := e.LastActivity(); !got.Equal(before.Add(10 * time.Minute)) {
		t.Errorf("LastActivity = %v, want %v", got, before.Add(10*time.Minute))
	}
}

func TestForegroundRefreshesLastActivity(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	e := newTestEngine(t, clock, store, &fakeSink{}, 5400)

	e.Backgrounded(context.Background())
	before := e.LastActivity()
	clock.Advance(3 * time.Minute)
	e.Foregrounded(context.Background())
	if got := e.LastActivity(); !got.After(before) {
		t.Errorf("LastActivity = %v, want later than %v", got, before)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{5400, "01:30:00"},
		{5235, "01:27:15"},
		{-5, "00:00:00"},
	}
	for _, c := range cases {
		if got := FormatClock(c.seconds); got != c.want {
			t.Errorf("FormatClock(%d) = %q, want %q", c.seconds, got, c.want)
		}
	}
}
