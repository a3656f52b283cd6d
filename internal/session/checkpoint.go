package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Checkpoint is the serialized snapshot of a running session. One slot per
// (student, paper); every autosave overwrites it.
type Checkpoint struct {
	TimeRemainingSeconds int            `json:"time_remaining_seconds"`
	CurrentIndex         int            `json:"current_index"`
	AnsweredIndices      []int          `json:"answered_indices"`
	VisitedIndices       []int          `json:"visited_indices"`
	Answers              map[int]string `json:"answers"`
	StartedAt            time.Time      `json:"started_at"`
	LastSavedAt          time.Time      `json:"last_saved_at"`
}

// Validate checks every structural invariant a restored session must satisfy.
// A checkpoint that fails here is corrupt and must be discarded, never
// partially applied.
func (cp *Checkpoint) Validate(questionCount, totalDurationSeconds int) error {
	if cp.TimeRemainingSeconds < 0 || cp.TimeRemainingSeconds > totalDurationSeconds {
		return fmt.Errorf("time remaining %d outside [0, %d]", cp.TimeRemainingSeconds, totalDurationSeconds)
	}
	if cp.CurrentIndex < 0 || cp.CurrentIndex >= questionCount {
		return fmt.Errorf("current index %d outside [0, %d)", cp.CurrentIndex, questionCount)
	}
	if cp.StartedAt.IsZero() || cp.LastSavedAt.IsZero() {
		return fmt.Errorf("missing timestamps")
	}
	if cp.LastSavedAt.Before(cp.StartedAt) {
		return fmt.Errorf("last save predates session start")
	}

	answered := make(map[int]bool, len(cp.AnsweredIndices))
	for _, i := range cp.AnsweredIndices {
		if i < 0 || i >= questionCount {
			return fmt.Errorf("answered index %d outside [0, %d)", i, questionCount)
		}
		answered[i] = true
	}
	if len(answered) != len(cp.Answers) {
		return fmt.Errorf("answered indices and answers disagree")
	}
	for i, text := range cp.Answers {
		if !answered[i] {
			return fmt.Errorf("answer recorded for index %d missing from answered set", i)
		}
		if text == "" {
			return fmt.Errorf("empty answer recorded for index %d", i)
		}
	}

	visited := make(map[int]bool, len(cp.VisitedIndices))
	for _, i := range cp.VisitedIndices {
		if i < 0 || i >= questionCount {
			return fmt.Errorf("visited index %d outside [0, %d)", i, questionCount)
		}
		visited[i] = true
	}
	for i := range answered {
		if !visited[i] {
			return fmt.Errorf("answered index %d was never visited", i)
		}
	}
	if !visited[cp.CurrentIndex] {
		return fmt.Errorf("current index %d not in visited set", cp.CurrentIndex)
	}

	return nil
}

// decodeCheckpoint parses and validates a serialized checkpoint.
func decodeCheckpoint(data []byte, questionCount, totalDurationSeconds int) (*Checkpoint, error) {
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if err := cp.Validate(questionCount, totalDurationSeconds); err != nil {
		return nil, fmt.Errorf("invalid checkpoint: %w", err)
	}
	return &cp, nil
}
