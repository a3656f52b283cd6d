package service

import (
	"context"
	"encoding/json"
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

const (
	messageCorrect   = "Correct!"
	messageIncorrect = "Keep practicing!"
)

// GradingService grades submitted answers against the answer key and queues
// the graded attempt for durable persistence. It implements
// session.SubmissionSink for timed sessions and also serves the untimed
// daily-quiz validation flow.
type GradingService struct {
	papers       *PaperService
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(
	papers *PaperService,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *GradingService {
	return &GradingService{
		papers:       papers,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "grading_service").Logger(),
	}
}

// Submit grades a timed session's answers. The attempt record is pushed to
// the persistence queue before results are returned; if the push fails the
// whole submission fails so the caller can retry without losing anything.
func (s *GradingService) Submit(ctx context.Context, id session.Identity, timeTakenSeconds int, answers []session.SubmittedAnswer) ([]session.AnswerResult, error) {
	paperID, err := uuid.Parse(id.PaperID)
	if err != nil {
		return nil, fmt.Errorf("parse paper id: %w", err)
	}

	questions, err := s.papers.QuestionsForPaper(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}

	byID := make(map[string]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID.String()] = &questions[i]
	}

	results := make([]session.AnswerResult, 0, len(answers))
	recordAnswers := make([]model.AttemptAnswer, 0, len(answers))
	correct := 0

	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %s not in paper %s", a.QuestionID, id.PaperID)
		}

		isCorrect := a.Answer == q.CorrectAnswer
		if isCorrect {
			correct++
		}

		message := messageIncorrect
		if isCorrect {
			message = messageCorrect
		}

		results = append(results, session.AnswerResult{
			QuestionID:       a.QuestionID,
			IsCorrect:        isCorrect,
			CorrectAnswer:    q.CorrectAnswer,
			Explanation:      q.Explanation,
			VideoSolutionURL: q.VideoSolutionURL,
			Message:          message,
		})
		recordAnswers = append(recordAnswers, model.AttemptAnswer{
			QuestionID: q.ID,
			Answer:     a.Answer,
			IsCorrect:  isCorrect,
		})
	}

	record := model.AttemptRecord{
		StudentID:        id.StudentID,
		PaperID:          paperID,
		TotalQuestions:   len(questions),
		AnsweredCount:    len(answers),
		CorrectCount:     correct,
		TimeTakenSeconds: timeTakenSeconds,
		SubmittedAt:      time.Now(),
		Answers:          recordAnswers,
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal attempt record: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw).Err(); err != nil {
		return nil, fmt.Errorf("queue attempt record: %w", err)
	}

	s.log.Info().
		Int("student_id", id.StudentID).
		Str("paper_id", id.PaperID).
		Int("correct", correct).
		Int("answered", len(answers)).
		Msg("Submission graded")

	return results, nil
}

// ValidateAnswers grades a batch of answers outside a timed session. Used by
// the daily quiz, where the client holds the questions and there is no
// countdown or checkpoint.
func (s *GradingService) ValidateAnswers(ctx context.Context, userAnswers []model.UserAnswer) ([]session.AnswerResult, error) {
	ids := make([]uuid.UUID, 0, len(userAnswers))
	for _, ua := range userAnswers {
		ids = append(ids, ua.QuestionID)
	}

	questions, err := s.questionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	results := make([]session.AnswerResult, 0, len(userAnswers))
	for _, ua := range userAnswers {
		q, ok := byID[ua.QuestionID]
		if !ok {
			results = append(results, session.AnswerResult{
				QuestionID: ua.QuestionID.String(),
				Message:    "Question not found",
			})
			continue
		}

		isCorrect := ua.Answer == q.CorrectAnswer
		message := messageIncorrect
		if isCorrect {
			message = messageCorrect
		}
		results = append(results, session.AnswerResult{
			QuestionID:       ua.QuestionID.String(),
			IsCorrect:        isCorrect,
			CorrectAnswer:    q.CorrectAnswer,
			Explanation:      q.Explanation,
			VideoSolutionURL: q.VideoSolutionURL,
			Message:          message,
		})
	}

	return results, nil
}
