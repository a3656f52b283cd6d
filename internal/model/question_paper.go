package model

import (
	"time"

	"github.com/google/uuid"
)

// PaperType distinguishes full-length tests from short daily quizzes.
type PaperType string

const (
	PaperTypeFullTest  PaperType = "FULL_TEST"
	PaperTypeDailyQuiz PaperType = "DAILY_QUIZ"
)

// PaperStatus gates which papers students can start.
type PaperStatus string

const (
	PaperStatusDraft     PaperStatus = "DRAFT"
	PaperStatusPublished PaperStatus = "PUBLISHED"
	PaperStatusArchived  PaperStatus = "ARCHIVED"
)

// QuestionPaper is an ordered set of questions offered as one test.
type QuestionPaper struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Type            PaperType   `json:"type"`
	Subject         Subject     `json:"subject"`
	Level           string      `json:"level"`
	Status          PaperStatus `json:"status"`
	DurationMinutes int         `json:"duration_minutes"`
	QuestionsCount  int         `json:"questions_count"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
