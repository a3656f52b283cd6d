package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepstack/satprep-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByIDs retrieves questions by id, returned in the order requested.
// Missing ids are silently skipped.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, options, correct_answer, explanation, video_solution_url, passage, subject, difficulty
		 FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]model.Question, len(ids))
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.Explanation, &q.VideoSolutionURL, &q.Passage, &q.Subject, &q.Difficulty); err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// ListByPaper retrieves a paper's questions in their paper order.
func (r *QuestionRepository) ListByPaper(ctx context.Context, paperID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.question_text, q.options, q.correct_answer, q.explanation, q.video_solution_url, q.passage, q.subject, q.difficulty
		 FROM questions q
		 JOIN paper_questions pq ON pq.question_id = q.id
		 WHERE pq.paper_id = $1
		 ORDER BY pq.order_num`, paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.Explanation, &q.VideoSolutionURL, &q.Passage, &q.Subject, &q.Difficulty); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, rows.Err()
}
