package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prepstack/satprep-backend/internal/config"
	"github.com/prepstack/satprep-backend/internal/model"
	"github.com/prepstack/satprep-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AttemptWorker consumes persist_attempts_queue and writes graded attempts to
// PostgreSQL. Grading returns results to the student synchronously; this
// worker makes the attempt history durable without blocking that path.
type AttemptWorker struct {
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAttemptWorker creates a new AttemptWorker.
func NewAttemptWorker(attemptRepo *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		attemptRepo: attemptRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AttemptWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAttemptsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var record model.AttemptRecord
	if err := json.Unmarshal([]byte(result[1]), &record); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistAttempt(ctx, &record); err != nil {
		w.log.Error().Err(err).
			Int("student_id", record.StudentID).
			Str("paper_id", record.PaperID.String()).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AttemptWorker) persistAttempt(ctx context.Context, record *model.AttemptRecord) error {
	attempt := &model.TestAttempt{
		StudentID:        record.StudentID,
		PaperID:          record.PaperID,
		TotalQuestions:   record.TotalQuestions,
		AnsweredCount:    record.AnsweredCount,
		CorrectCount:     record.CorrectCount,
		TimeTakenSeconds: record.TimeTakenSeconds,
		SubmittedAt:      record.SubmittedAt,
	}
	return w.attemptRepo.CreateWithAnswers(ctx, attempt, record.Answers)
}

// drain processes all remaining items in the queue before shutdown.
func (w *AttemptWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAttemptsQueue).Result()
		if err != nil {
			break
		}

		var record model.AttemptRecord
		if err := json.Unmarshal([]byte(result), &record); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistAttempt(ctx, &record); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
