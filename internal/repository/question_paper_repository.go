package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepstack/satprep-backend/internal/model"
)

// QuestionPaperRepository handles question paper data access.
type QuestionPaperRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionPaperRepository creates a new QuestionPaperRepository.
func NewQuestionPaperRepository(pool *pgxpool.Pool) *QuestionPaperRepository {
	return &QuestionPaperRepository{pool: pool}
}

// GetByID retrieves a paper by ID.
func (r *QuestionPaperRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuestionPaper, error) {
	p := &model.QuestionPaper{}
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.title, p.type, p.subject, p.level, p.status, p.duration_minutes,
		        (SELECT COUNT(*) FROM paper_questions pq WHERE pq.paper_id = p.id),
		        p.created_at, p.updated_at
		 FROM question_papers p WHERE p.id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Type, &p.Subject, &p.Level, &p.Status, &p.DurationMinutes, &p.QuestionsCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPublished retrieves the published catalog, optionally filtered by type.
func (r *QuestionPaperRepository) ListPublished(ctx context.Context, paperType *model.PaperType) ([]model.QuestionPaper, error) {
	query := `SELECT p.id, p.title, p.type, p.subject, p.level, p.status, p.duration_minutes,
	                 (SELECT COUNT(*) FROM paper_questions pq WHERE pq.paper_id = p.id),
	                 p.created_at, p.updated_at
	          FROM question_papers p WHERE p.status = $1`
	args := []interface{}{model.PaperStatusPublished}

	if paperType != nil {
		query += ` AND p.type = $2`
		args = append(args, *paperType)
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []model.QuestionPaper
	for rows.Next() {
		var p model.QuestionPaper
		if err := rows.Scan(&p.ID, &p.Title, &p.Type, &p.Subject, &p.Level, &p.Status, &p.DurationMinutes, &p.QuestionsCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	if papers == nil {
		papers = []model.QuestionPaper{}
	}
	return papers, rows.Err()
}
