package session

// Question is the read-only view of a question the engine holds for the
// session's duration. It deliberately carries no correct answer — grading
// lives behind the SubmissionSink.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Passage string   `json:"passage,omitempty"`
	Subject string   `json:"subject,omitempty"`
}
