package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepstack/satprep-backend/internal/model"
)

// AttemptRepository handles test attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// CreateWithAnswers inserts an attempt and all its graded answer rows in one
// transaction so partial attempts never appear in history.
func (r *AttemptRepository) CreateWithAnswers(ctx context.Context, a *model.TestAttempt, answers []model.AttemptAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO test_attempts (student_id, paper_id, total_questions, answered_count, correct_count, time_taken_seconds, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		a.StudentID, a.PaperID, a.TotalQuestions, a.AnsweredCount, a.CorrectCount, a.TimeTakenSeconds, a.SubmittedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	for i := range answers {
		answers[i].AttemptID = a.ID
		if _, err := tx.Exec(ctx,
			`INSERT INTO attempt_answers (attempt_id, question_id, answer, is_correct)
			 VALUES ($1, $2, $3, $4)`,
			answers[i].AttemptID, answers[i].QuestionID, answers[i].Answer, answers[i].IsCorrect,
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByStudent retrieves a student's attempt history, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID, limit int) ([]model.TestAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, paper_id, total_questions, answered_count, correct_count, time_taken_seconds, submitted_at
		 FROM test_attempts WHERE student_id = $1
		 ORDER BY submitted_at DESC LIMIT $2`,
		studentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.TestAttempt
	for rows.Next() {
		var a model.TestAttempt
		if err := rows.Scan(&a.ID, &a.StudentID, &a.PaperID, &a.TotalQuestions, &a.AnsweredCount, &a.CorrectCount, &a.TimeTakenSeconds, &a.SubmittedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if attempts == nil {
		attempts = []model.TestAttempt{}
	}
	return attempts, rows.Err()
}

// StudentStats aggregates a student's attempt history for the dashboard.
type StudentStats struct {
	TotalAttempts    int     `json:"total_attempts"`
	TotalQuestions   int     `json:"total_questions"`
	TotalCorrect     int     `json:"total_correct"`
	AccuracyPercent  float64 `json:"accuracy_percent"`
	TotalTimeSeconds int     `json:"total_time_seconds"`
}

// StatsByStudent retrieves aggregate attempt metrics for one student.
func (r *AttemptRepository) StatsByStudent(ctx context.Context, studentID int) (*StudentStats, error) {
	s := &StudentStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(answered_count), 0),
		        COALESCE(SUM(correct_count), 0),
		        COALESCE(SUM(time_taken_seconds), 0)
		 FROM test_attempts WHERE student_id = $1`,
		studentID,
	).Scan(&s.TotalAttempts, &s.TotalQuestions, &s.TotalCorrect, &s.TotalTimeSeconds)
	if err != nil {
		return nil, err
	}
	if s.TotalQuestions > 0 {
		s.AccuracyPercent = float64(s.TotalCorrect) / float64(s.TotalQuestions) * 100
	}
	return s, nil
}

// SubjectAccuracy is per-subject correctness for the dashboard breakdown.
type SubjectAccuracy struct {
	Subject  model.Subject `json:"subject"`
	Answered int           `json:"answered"`
	Correct  int           `json:"correct"`
}

// AccuracyBySubject breaks a student's graded answers down by question subject.
func (r *AttemptRepository) AccuracyBySubject(ctx context.Context, studentID int) ([]SubjectAccuracy, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.subject, COUNT(*), COUNT(*) FILTER (WHERE aa.is_correct)
		 FROM attempt_answers aa
		 JOIN test_attempts ta ON ta.id = aa.attempt_id
		 JOIN questions q ON q.id = aa.question_id
		 WHERE ta.student_id = $1
		 GROUP BY q.subject`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubjectAccuracy
	for rows.Next() {
		var sa SubjectAccuracy
		if err := rows.Scan(&sa.Subject, &sa.Answered, &sa.Correct); err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	if out == nil {
		out = []SubjectAccuracy{}
	}
	return out, rows.Err()
}
