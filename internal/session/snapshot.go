package session

import "fmt"

// GridStatus classifies one question cell in the paper grid.
type GridStatus string

const (
	GridCurrent  GridStatus = "current"
	GridAnswered GridStatus = "answered"
	GridSkipped  GridStatus = "skipped" // visited but left unanswered
	GridUnseen   GridStatus = "unseen"
)

// Snapshot is the read-only view of a session the renderer paints from.
type Snapshot struct {
	Status               Status         `json:"status"`
	TimeRemaining        string         `json:"time_remaining"`
	TimeRemainingSeconds int            `json:"time_remaining_seconds"`
	CurrentIndex         int            `json:"current_index"`
	TotalQuestions       int            `json:"total_questions"`
	Grid                 []GridStatus   `json:"grid"`
	Answers              map[int]string `json:"answers"`
	AnsweredCount        int            `json:"answered_count"`
	SkippedCount         int            `json:"skipped_count"`
	UnansweredCount      int            `json:"unanswered_count"`
}

// FormatClock renders a second count as HH:MM:SS for the timer display.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
