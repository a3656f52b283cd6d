package model

import "github.com/google/uuid"

// Subject classifies a question by SAT section.
type Subject string

const (
	SubjectMath    Subject = "MATH"
	SubjectReading Subject = "READING"
	SubjectWriting Subject = "WRITING"
)

// Question represents a single multiple-choice question with its answer key.
// The correct answer is stored as the full option text, never a letter.
type Question struct {
	ID               uuid.UUID `json:"id"`
	QuestionText     string    `json:"question"`
	Options          []string  `json:"options"`
	CorrectAnswer    string    `json:"correct_answer"`
	Explanation      string    `json:"explanation"`
	VideoSolutionURL string    `json:"video_solution_url"`
	Passage          string    `json:"passage,omitempty"`
	Subject          Subject   `json:"subject"`
	Difficulty       int       `json:"difficulty"`
}

// SanitizedQuestion is the student-facing view of a question. It never
// carries the answer key, explanation or solution link.
type SanitizedQuestion struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question"`
	Options      []string  `json:"options"`
	Passage      string    `json:"passage,omitempty"`
	Subject      Subject   `json:"subject"`
}

// Sanitize strips the answer key and solution material.
func (q *Question) Sanitize() SanitizedQuestion {
	return SanitizedQuestion{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		Passage:      q.Passage,
		Subject:      q.Subject,
	}
}
