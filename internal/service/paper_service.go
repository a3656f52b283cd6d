package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepstack/satprep-backend/internal/config"
	"github.com/prepstack/satprep-backend/internal/model"
	"github.com/prepstack/satprep-backend/internal/repository"
	"github.com/prepstack/satprep-backend/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// PaperQuestionsCacheTTL bounds staleness of the per-paper question cache.
const PaperQuestionsCacheTTL = 15 * time.Minute

var ErrPaperNotAvailable = errors.New("question paper is not available")

// PaperService handles the paper catalog and question material.
type PaperService struct {
	cfg          *config.Config
	paperRepo    *repository.QuestionPaperRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewPaperService creates a new PaperService.
func NewPaperService(
	cfg *config.Config,
	paperRepo *repository.QuestionPaperRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *PaperService {
	return &PaperService{
		cfg:          cfg,
		paperRepo:    paperRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "paper_service").Logger(),
	}
}

// ListPapers returns the published catalog, optionally filtered by type.
func (s *PaperService) ListPapers(ctx context.Context, paperType *model.PaperType) ([]model.QuestionPaper, error) {
	return s.paperRepo.ListPublished(ctx, paperType)
}

// GetPaper returns one published paper.
func (s *PaperService) GetPaper(ctx context.Context, id uuid.UUID) (*model.QuestionPaper, error) {
	paper, err := s.paperRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}
	if paper.Status != model.PaperStatusPublished {
		return nil, ErrPaperNotAvailable
	}
	return paper, nil
}

// QuestionsForPaper returns a paper's full questions (answer keys included)
// through a Redis read-through cache. A cache miss falls back to PostgreSQL
// and self-heals the cache.
func (s *PaperService) QuestionsForPaper(ctx context.Context, paperID uuid.UUID) ([]model.Question, error) {
	cacheKey := config.CacheKey.PaperQuestionsKey(paperID.String())

	cached, err := s.rdb.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var questions []model.Question
		if jsonErr := json.Unmarshal(cached, &questions); jsonErr == nil {
			return questions, nil
		}
		// Corrupt cache entry — drop it and rebuild from the database.
		_ = s.rdb.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Question cache read failed, falling back to database")
	}

	questions, err := s.questionRepo.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("list paper questions: %w", err)
	}

	if data, jsonErr := json.Marshal(questions); jsonErr == nil {
		if err := s.rdb.Set(ctx, cacheKey, data, PaperQuestionsCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Question cache write failed")
		}
	}

	return questions, nil
}

// SessionMaterial returns a paper's sanitized question sequence and its
// duration in seconds, the two inputs a session engine needs.
func (s *PaperService) SessionMaterial(ctx context.Context, paperID uuid.UUID) ([]session.Question, int, error) {
	paper, err := s.GetPaper(ctx, paperID)
	if err != nil {
		return nil, 0, err
	}

	questions, err := s.QuestionsForPaper(ctx, paperID)
	if err != nil {
		return nil, 0, err
	}

	material := make([]session.Question, 0, len(questions))
	for _, q := range questions {
		material = append(material, session.Question{
			ID:      q.ID.String(),
			Text:    q.QuestionText,
			Options: q.Options,
			Passage: q.Passage,
			Subject: string(q.Subject),
		})
	}

	durationSeconds := paper.DurationMinutes * 60
	if durationSeconds <= 0 {
		durationSeconds = int(s.cfg.DefaultTestDuration.Seconds())
	}

	return material, durationSeconds, nil
}
