package session

import "context"

// Identity names one test session: a student attempting a question paper.
// Submissions are paper-scoped — the paper id always accompanies the payload.
type Identity struct {
	StudentID int
	PaperID   string
}

// SubmittedAnswer is one recorded answer in a submission payload. Unanswered
// questions are omitted from the payload entirely.
type SubmittedAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// AnswerResult is the graded outcome for a single submitted answer.
type AnswerResult struct {
	QuestionID       string `json:"question_id"`
	IsCorrect        bool   `json:"is_correct"`
	CorrectAnswer    string `json:"correct_answer,omitempty"`
	Explanation      string `json:"explanation,omitempty"`
	VideoSolutionURL string `json:"video_solution_url,omitempty"`
	Message          string `json:"message,omitempty"`
}

// SubmissionSink converts recorded answers into correctness results.
// A sink error must leave no trace: the engine keeps its state exactly as it
// was before the attempt so the caller can retry.
type SubmissionSink interface {
	Submit(ctx context.Context, id Identity, timeTakenSeconds int, answers []SubmittedAnswer) ([]AnswerResult, error)
}

// Result is the aggregate returned to the renderer after a successful
// submission.
type Result struct {
	Results          []AnswerResult `json:"results"`
	TotalQuestions   int            `json:"total_questions"`
	TimeTaken        string         `json:"time_taken"`
	TimeTakenSeconds int            `json:"time_taken_seconds"`
}
