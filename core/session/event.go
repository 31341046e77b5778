package session

import "time"

// Phase is a step of the session lifecycle.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseReconciling Phase = "reconciling"
	PhaseCommitting  Phase = "committing"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

var phaseOrder = map[Phase]int{
	PhaseIdle:        0,
	PhaseFetching:    1,
	PhaseReconciling: 2,
	PhaseCommitting:  3,
	PhaseCompleted:   4,
	PhaseFailed:      4,
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Level classifies a log line for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Event is one line of the live session log.
type Event struct {
	Seq     int       `json:"seq"`
	Time    time.Time `json:"time"`
	Phase   Phase     `json:"phase"`
	Percent int       `json:"percent"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}
