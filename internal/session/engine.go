package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status enumerates session states. Transitions are one-directional:
// ACTIVE → EXPIRED (time exhausted), ACTIVE → SUBMITTED (user action),
// EXPIRED → SUBMITTED (forced submission). SUBMITTED is terminal.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusSubmitted Status = "SUBMITTED"
)

// Command errors. These are rejected synchronously without mutating state.
var (
	ErrNoQuestions     = errors.New("session: no questions")
	ErrNotActive       = errors.New("session: session is not active")
	ErrTerminal        = errors.New("session: session already submitted")
	ErrIndexOutOfRange = errors.New("session: question index out of range")
	ErrUnknownOption   = errors.New("session: option not in question option list")
	ErrSubmitInFlight  = errors.New("session: submission already in flight")
)

const (
	DefaultTickInterval     = time.Second
	DefaultAutosaveInterval = 5 * time.Second
)

// Config wires an Engine to its collaborators. Store and Sink are required;
// Clock defaults to the system clock.
type Config struct {
	Identity             Identity
	Key                  string
	TotalDurationSeconds int
	Clock                Clock
	Store                CheckpointStore
	Sink                 SubmissionSink
	Log                  zerolog.Logger
	TickInterval         time.Duration
	AutosaveInterval     time.Duration
}

// Engine owns one session's state and drives its countdown and autosave.
// All mutation goes through the engine's mutex: timer ticks, autosave and
// renderer commands originate from independent goroutines but never
// interleave on the state.
type Engine struct {
	cfg       Config
	questions []Question
	log       zerolog.Logger

	mu           sync.Mutex
	status       Status
	remaining    int
	current      int
	answers      map[int]string
	visited      map[int]bool
	startedAt    time.Time
	lastSavedAt  time.Time
	submitting   bool
	lastActivity time.Time

	timeUp  chan struct{}
	stop    chan struct{}
	stopped bool
}

// New creates or resumes a session. A valid checkpoint under cfg.Key is
// reconciled against wall-clock time elapsed since its last save; a missing
// or corrupt checkpoint starts a fresh session (fail open — checkpoint loss
// never blocks the student). If reconciliation leaves no time, the session
// comes up EXPIRED with the time-up signal already fired and no countdown.
func New(ctx context.Context, cfg Config, questions []Question) (*Engine, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if cfg.TotalDurationSeconds <= 0 {
		return nil, fmt.Errorf("session: total duration must be positive, got %d", cfg.TotalDurationSeconds)
	}
	if cfg.Store == nil || cfg.Sink == nil {
		return nil, fmt.Errorf("session: checkpoint store and submission sink are required")
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = DefaultAutosaveInterval
	}

	e := &Engine{
		cfg:       cfg,
		questions: questions,
		log: cfg.Log.With().
			Str("component", "session_engine").
			Int("student_id", cfg.Identity.StudentID).
			Str("paper_id", cfg.Identity.PaperID).
			Logger(),
		timeUp: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}

	now := cfg.Clock.Now()
	if cp := e.loadCheckpoint(ctx); cp != nil {
		e.restore(cp, now)
		e.log.Info().
			Int("time_remaining", e.remaining).
			Str("status", string(e.status)).
			Msg("Session resumed from checkpoint")
	} else {
		e.fresh(now)
		e.log.Info().Int("duration", cfg.TotalDurationSeconds).Msg("Session started")
	}
	e.lastActivity = now

	if e.status == StatusActive {
		go e.run()
	} else {
		e.stopped = true
		close(e.stop)
		e.signalTimeUp()
	}

	return e, nil
}

// loadCheckpoint reads and validates the stored checkpoint. Corrupt payloads
// are discarded and treated exactly like absent ones.
func (e *Engine) loadCheckpoint(ctx context.Context) *Checkpoint {
	data, err := e.cfg.Store.Read(ctx, e.cfg.Key)
	if err != nil {
		if !errors.Is(err, ErrNoCheckpoint) {
			e.log.Warn().Err(err).Msg("Checkpoint read failed, starting fresh")
		}
		return nil
	}
	cp, err := decodeCheckpoint(data, len(e.questions), e.cfg.TotalDurationSeconds)
	if err != nil {
		e.log.Warn().Err(err).Msg("Discarding corrupt checkpoint")
		return nil
	}
	return cp
}

// restore rehydrates state from a valid checkpoint, subtracting the wall-clock
// seconds elapsed since its last save from the stored remaining time.
func (e *Engine) restore(cp *Checkpoint, now time.Time) {
	elapsed := int(now.Sub(cp.LastSavedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := cp.TimeRemainingSeconds - elapsed
	if remaining < 0 {
		remaining = 0
	}

	e.remaining = remaining
	e.current = cp.CurrentIndex
	e.answers = make(map[int]string, len(cp.Answers))
	for i, text := range cp.Answers {
		e.answers[i] = text
	}
	e.visited = make(map[int]bool, len(cp.VisitedIndices))
	for _, i := range cp.VisitedIndices {
		e.visited[i] = true
	}
	e.startedAt = cp.StartedAt
	e.lastSavedAt = cp.LastSavedAt

	if remaining == 0 {
		e.status = StatusExpired
	} else {
		e.status = StatusActive
	}
}

func (e *Engine) fresh(now time.Time) {
	e.remaining = e.cfg.TotalDurationSeconds
	e.current = 0
	e.answers = make(map[int]string)
	e.visited = map[int]bool{0: true}
	e.startedAt = now
	e.lastSavedAt = now
	e.status = StatusActive
}

// run is the engine's single background goroutine: the 1s countdown tick and
// the autosave interval both live here, so stopping the loop stops both.
func (e *Engine) run() {
	tick := time.NewTicker(e.cfg.TickInterval)
	defer tick.Stop()
	save := time.NewTicker(e.cfg.AutosaveInterval)
	defer save.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-tick.C:
			e.tick()
		case <-save.C:
			e.autosave(context.Background())
		}
	}
}

// tick decrements the countdown by exactly one second. Suspended processes
// are NOT corrected here — resume reconciliation handles wall-clock drift.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusActive || e.submitting {
		return
	}
	e.remaining--
	if e.remaining > 0 {
		return
	}
	e.remaining = 0
	e.status = StatusExpired
	e.stopLoopLocked()
	e.signalTimeUp()
	e.log.Info().Msg("Session time expired")
}

// autosave serializes the full state and writes the checkpoint slot. Write
// failures are logged and retried on the next interval; they never interrupt
// the countdown or user commands.
func (e *Engine) autosave(ctx context.Context) {
	e.mu.Lock()
	if e.status == StatusSubmitted {
		e.mu.Unlock()
		return
	}
	data, now := e.encodeLocked()
	e.mu.Unlock()

	if err := e.cfg.Store.Write(ctx, e.cfg.Key, data); err != nil {
		e.log.Warn().Err(err).Msg("Checkpoint write failed")
		return
	}

	e.mu.Lock()
	e.lastSavedAt = now
	e.mu.Unlock()
}

// encodeLocked builds the checkpoint payload stamped with the write time.
func (e *Engine) encodeLocked() ([]byte, time.Time) {
	now := e.cfg.Clock.Now()

	answers := make(map[int]string, len(e.answers))
	answered := make([]int, 0, len(e.answers))
	for i, text := range e.answers {
		answers[i] = text
		answered = append(answered, i)
	}
	sort.Ints(answered)

	visited := make([]int, 0, len(e.visited))
	for i := range e.visited {
		visited = append(visited, i)
	}
	sort.Ints(visited)

	cp := Checkpoint{
		TimeRemainingSeconds: e.remaining,
		CurrentIndex:         e.current,
		AnsweredIndices:      answered,
		VisitedIndices:       visited,
		Answers:              answers,
		StartedAt:            e.startedAt,
		LastSavedAt:          now,
	}
	data, _ := json.Marshal(cp)
	return data, now
}

func (e *Engine) stopLoopLocked() {
	if !e.stopped {
		e.stopped = true
		close(e.stop)
	}
}

func (e *Engine) signalTimeUp() {
	select {
	case e.timeUp <- struct{}{}:
	default:
	}
}

// TimeUp signals once when the countdown reaches zero. The renderer is
// expected to prompt the student and funnel into Submit; expiry never
// auto-submits.
func (e *Engine) TimeUp() <-chan struct{} {
	return e.timeUp
}

// ─── Renderer commands ──────────────────────────────────────────────────────

// SelectAnswer records the option TEXT for a question. Selecting and
// recording are one operation — there is no staging state — so reselecting
// the same option is a harmless rewrite and a different option overwrites.
func (e *Engine) SelectAnswer(index int, optionText string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusActive {
		return ErrNotActive
	}
	if index < 0 || index >= len(e.questions) {
		return ErrIndexOutOfRange
	}
	valid := false
	for _, opt := range e.questions[index].Options {
		if opt == optionText {
			valid = true
			break
		}
	}
	if !valid {
		return ErrUnknownOption
	}

	e.answers[index] = optionText
	e.visited[index] = true
	e.lastActivity = e.cfg.Clock.Now()
	return nil
}

// GoTo moves the current question pointer, marking the target visited.
// Navigation stays available after expiry so the student can review before
// the forced submission.
func (e *Engine) GoTo(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.goToLocked(index)
}

func (e *Engine) goToLocked(index int) error {
	if e.status == StatusSubmitted {
		return ErrTerminal
	}
	if index < 0 || index >= len(e.questions) {
		return ErrIndexOutOfRange
	}
	e.visited[index] = true
	e.current = index
	e.lastActivity = e.cfg.Clock.Now()
	return nil
}

// Next advances one question; a no-op on the last question.
func (e *Engine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current+1 >= len(e.questions) {
		return nil
	}
	return e.goToLocked(e.current + 1)
}

// Previous steps back one question; a no-op on the first question.
func (e *Engine) Previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == 0 {
		return nil
	}
	return e.goToLocked(e.current - 1)
}

// Submit freezes the countdown and autosave, hands the answered questions to
// the sink and, on success, clears the checkpoint and terminates the session.
// On sink failure every field is left exactly as it was before the call and
// the checkpoint is retained so a retry — even after an app restart — works.
func (e *Engine) Submit(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.status == StatusSubmitted {
		e.mu.Unlock()
		return nil, ErrTerminal
	}
	if e.submitting {
		e.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	e.submitting = true
	payload := e.payloadLocked()
	timeTaken := int(e.cfg.Clock.Now().Sub(e.startedAt).Seconds())
	id := e.cfg.Identity
	total := len(e.questions)
	e.mu.Unlock()

	results, err := e.cfg.Sink.Submit(ctx, id, timeTaken, payload)

	e.mu.Lock()
	e.submitting = false
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("submit answers: %w", err)
	}
	e.status = StatusSubmitted
	e.stopLoopLocked()
	e.mu.Unlock()

	if cerr := e.cfg.Store.Clear(context.WithoutCancel(ctx), e.cfg.Key); cerr != nil {
		e.log.Warn().Err(cerr).Msg("Checkpoint clear failed after submission")
	}
	e.log.Info().Int("answered", len(payload)).Int("time_taken", timeTaken).Msg("Session submitted")

	return &Result{
		Results:          results,
		TotalQuestions:   total,
		TimeTaken:        FormatClock(timeTaken),
		TimeTakenSeconds: timeTaken,
	}, nil
}

// payloadLocked builds the ordered submission payload: answered indices only,
// ascending, each carrying the question id and the recorded option text.
func (e *Engine) payloadLocked() []SubmittedAnswer {
	indices := make([]int, 0, len(e.answers))
	for i := range e.answers {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	payload := make([]SubmittedAnswer, 0, len(indices))
	for _, i := range indices {
		payload = append(payload, SubmittedAnswer{
			QuestionID: e.questions[i].ID,
			Answer:     e.answers[i],
		})
	}
	return payload
}

// ─── Lifecycle bridge ───────────────────────────────────────────────────────

// Backgrounded writes an immediate best-effort checkpoint when the app leaves
// the foreground.
func (e *Engine) Backgrounded(ctx context.Context) {
	e.autosave(ctx)
}

// Foregrounded re-runs the resume reconciliation against the latest
// checkpoint to absorb wall-clock time spent backgrounded. The in-memory
// state was never destroyed, but suspended timers drift; the checkpoint's
// save instant is the trustworthy anchor. Terminal sessions are untouched —
// transitions never re-enter ACTIVE.
func (e *Engine) Foregrounded(ctx context.Context) {
	cp := e.loadCheckpoint(ctx)
	if cp == nil {
		return
	}

	e.mu.Lock()
	if e.status != StatusActive || e.submitting {
		e.mu.Unlock()
		return
	}
	e.restore(cp, e.cfg.Clock.Now())
	e.lastActivity = e.cfg.Clock.Now()
	expired := e.status == StatusExpired
	if expired {
		e.stopLoopLocked()
		e.signalTimeUp()
	}
	e.mu.Unlock()

	if expired {
		e.log.Info().Msg("Session expired while backgrounded")
	}
}

// Close stops the countdown/autosave loop and writes a final checkpoint
// unless the session was already submitted. Used on teardown and shutdown.
func (e *Engine) Close(ctx context.Context) {
	e.mu.Lock()
	submitted := e.status == StatusSubmitted
	e.stopLoopLocked()
	e.mu.Unlock()

	if !submitted {
		e.autosave(ctx)
	}
}

// Discard stops the countdown/autosave loop without touching the checkpoint
// slot. Used for an engine that lost a start race: another engine owns the
// slot, so writing our state would clobber its saves.
func (e *Engine) Discard() {
	e.mu.Lock()
	e.stopLoopLocked()
	e.mu.Unlock()
}

// Abandon discards the session: the loop stops and the checkpoint is cleared
// so the next entry starts fresh.
func (e *Engine) Abandon(ctx context.Context) error {
	e.mu.Lock()
	e.stopLoopLocked()
	e.mu.Unlock()
	return e.cfg.Store.Clear(ctx, e.cfg.Key)
}

// ─── Read-only views ────────────────────────────────────────────────────────

// Status returns the current session status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Identity returns the session's identity.
func (e *Engine) Identity() Identity {
	return e.cfg.Identity
}

// Questions returns the session's question sequence.
func (e *Engine) Questions() []Question {
	return e.questions
}

// LastActivity reports the instant of the last renderer activity.
func (e *Engine) LastActivity() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActivity
}

// Touch marks renderer activity without a command. The live stream calls it
// while a connection is open so a student watching the timer is never treated
// as idle.
func (e *Engine) Touch() {
	e.mu.Lock()
	e.lastActivity = e.cfg.Clock.Now()
	e.mu.Unlock()
}

// AnswerFor reports the recorded answer text for an index, if any. The
// renderer uses this to translate back into a display selection — the engine
// never stores a display selection separate from answers.
func (e *Engine) AnswerFor(index int) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	text, ok := e.answers[index]
	return text, ok
}

// Snapshot returns the read-only view the renderer paints from.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	grid := make([]GridStatus, len(e.questions))
	for i := range grid {
		switch {
		case i == e.current:
			grid[i] = GridCurrent
		case e.answers[i] != "":
			grid[i] = GridAnswered
		case e.visited[i]:
			grid[i] = GridSkipped
		default:
			grid[i] = GridUnseen
		}
	}

	answers := make(map[int]string, len(e.answers))
	for i, text := range e.answers {
		answers[i] = text
	}

	skipped := 0
	for i := range e.visited {
		if _, ok := e.answers[i]; !ok {
			skipped++
		}
	}

	return Snapshot{
		Status:               e.status,
		TimeRemaining:        FormatClock(e.remaining),
		TimeRemainingSeconds: e.remaining,
		CurrentIndex:         e.current,
		TotalQuestions:       len(e.questions),
		Grid:                 grid,
		Answers:              answers,
		AnsweredCount:        len(e.answers),
		SkippedCount:         skipped,
		UnansweredCount:      len(e.questions) - len(e.answers),
	}
}
