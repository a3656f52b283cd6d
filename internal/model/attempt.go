package model

import (
	"time"

	"github.com/google/uuid"
)

// TestAttempt is one completed, graded submission of a question paper.
type TestAttempt struct {
	ID               uuid.UUID `json:"id"`
	StudentID        int       `json:"student_id"`
	PaperID          uuid.UUID `json:"paper_id"`
	TotalQuestions   int       `json:"total_questions"`
	AnsweredCount    int       `json:"answered_count"`
	CorrectCount     int       `json:"correct_count"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// AttemptAnswer is one graded answer row within an attempt.
type AttemptAnswer struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"is_correct"`
}

// AttemptRecord is the queue payload handed to the persistence worker after
// grading completes.
type AttemptRecord struct {
	StudentID        int             `json:"student_id"`
	PaperID          uuid.UUID       `json:"paper_id"`
	TotalQuestions   int             `json:"total_questions"`
	AnsweredCount    int             `json:"answered_count"`
	CorrectCount     int             `json:"correct_count"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
	SubmittedAt      time.Time       `json:"submitted_at"`
	Answers          []AttemptAnswer `json:"answers"`
}

// UserAnswer is one answer in a submission or validation payload, keyed by
// question id and carrying the selected option text verbatim.
type UserAnswer struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Answer     string    `json:"answer" binding:"required"`
}

// SelectAnswerRequest records an option for the question at an index.
type SelectAnswerRequest struct {
	QuestionIndex int    `json:"question_index" binding:"min=0"`
	Answer        string `json:"answer" binding:"required"`
}

// GoToRequest jumps the current question pointer.
type GoToRequest struct {
	QuestionIndex int `json:"question_index" binding:"min=0"`
}

// ValidateAnswersRequest grades a batch of answers outside a timed session.
// Used by the daily quiz flow.
type ValidateAnswersRequest struct {
	UserAnswers []UserAnswer `json:"user_answers" binding:"required,min=1,dive"`
}
