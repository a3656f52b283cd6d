package session

import "time"

// Clock supplies the current instant. The engine never reads wall time
// directly so tests can substitute a controllable clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
