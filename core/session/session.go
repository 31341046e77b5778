package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"records-manager/core/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidTransition is returned when a phase change would move the session backwards.
var ErrInvalidTransition = errors.New("invalid session transition")

// Session is one fetch, reconcile and commit run. It owns its progress state and its
// live log; each run creates its own Session and passes it to every phase.
type Session struct {
	ID        string    `json:"id"`
	Scope     string    `json:"scope"`
	Actor     string    `json:"actor"`
	StartedAt time.Time `json:"started_at"`

	sink   LogSink
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	phase   Phase
	percent int
	seq     int
	events  []Event
	err     error
}

// New creates an idle session.
func New(scope, actor string, sink LogSink, l *zap.Logger) *Session {
	if sink == nil {
		sink = NewMemorySink()
	}
	if l == nil {
		l = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		ID:        id,
		Scope:     scope,
		Actor:     actor,
		StartedAt: time.Now(),
		sink:      sink,
		logger:    logger.ForSession(l, id, scope),
		now:       time.Now,
		phase:     PhaseIdle,
	}
}

// Advance moves the session to phase and raises the percentage to at least percent.
func (s *Session) Advance(ctx context.Context, phase Phase, percent int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase.Terminal() || phaseOrder[phase] < phaseOrder[s.phase] || phase == PhaseFailed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, phase)
	}
	s.phase = phase
	level := LevelInfo
	if phase == PhaseCompleted {
		level = LevelSuccess
		percent = 100
	}
	s.emitLocked(ctx, level, percent, message)
	return nil
}

// Progress raises the percentage within the current phase.
func (s *Session) Progress(ctx context.Context, percent int, message string) {
	s.Log(ctx, LevelInfo, percent, message)
}

// Log appends a line without changing the phase. A percent lower than the current one
// is ignored.
func (s *Session) Log(ctx context.Context, level Level, percent int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(ctx, level, percent, message)
}

// Infof appends an informational line at the current percentage.
func (s *Session) Infof(ctx context.Context, format string, args ...any) {
	s.Log(ctx, LevelInfo, 0, fmt.Sprintf(format, args...))
}

// Warnf appends a warning line at the current percentage.
func (s *Session) Warnf(ctx context.Context, format string, args ...any) {
	s.Log(ctx, LevelWarn, 0, fmt.Sprintf(format, args...))
}

// Fail moves the session to Failed and appends the terminal error line.
// Failing a terminal session is a no-op.
func (s *Session) Fail(ctx context.Context, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase.Terminal() {
		return
	}
	reached := s.phase
	s.phase = PhaseFailed
	s.err = cause
	s.emitLocked(ctx, LevelError, 0, fmt.Sprintf("%s failed during %s: %v", s.Scope, reached, cause))
}

func (s *Session) emitLocked(ctx context.Context, level Level, percent int, message string) {
	if percent > s.percent {
		s.percent = min(percent, 100)
	}
	s.seq++
	e := Event{
		Seq:     s.seq,
		Time:    s.now(),
		Phase:   s.phase,
		Percent: s.percent,
		Level:   level,
		Message: message,
	}
	s.events = append(s.events, e)

	fields := []zap.Field{zap.String("phase", string(e.Phase)), zap.Int("percent", e.Percent)}
	switch level {
	case LevelError:
		s.logger.Error(message, fields...)
	case LevelWarn:
		s.logger.Warn(message, fields...)
	default:
		s.logger.Info(message, fields...)
	}

	// The live log is for display; a sink outage must not fail the run.
	if err := s.sink.Append(context.WithoutCancel(ctx), s.ID, e); err != nil {
		s.logger.Warn("Session log append failed", zap.Error(err))
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Percent returns the current percentage.
func (s *Session) Percent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

// Err returns the failure cause of a failed session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Events returns a copy of the session's own log.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Status is a point-in-time view of a session.
type Status struct {
	ID        string    `json:"id"`
	Scope     string    `json:"scope"`
	Actor     string    `json:"actor"`
	Phase     Phase     `json:"phase"`
	Percent   int       `json:"percent"`
	StartedAt time.Time `json:"started_at"`
	Error     string    `json:"error,omitempty"`
	Events    int       `json:"events"`
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		ID:        s.ID,
		Scope:     s.Scope,
		Actor:     s.Actor,
		Phase:     s.phase,
		Percent:   s.percent,
		StartedAt: s.StartedAt,
		Events:    len(s.events),
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}
