package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"records-manager/core/audit"
	"records-manager/core/commit"
	"records-manager/core/reconcile"

	"go.uber.org/zap"
)

// maxTracked bounds the number of sessions the runner keeps for status lookups.
const maxTracked = 100

// Params identify what a run fetched. They are copied into the summary.
type Params struct {
	Kind  reconcile.EntityKind `json:"kind"`
	Scope string               `json:"scope"`
	Year  string               `json:"year"`
	Query string               `json:"query"`
}

// Job describes one run for one kind.
type Job[T reconcile.Record] struct {
	Adapter    reconcile.Adapter[T]
	Params     Params
	Provenance reconcile.Provenance
	// Fetch produces the incoming batch. It may report progress up to 40 percent.
	Fetch func(ctx context.Context, s *Session) ([]T, error)
	// Existing loads the snapshot the batch is planned against.
	Existing func(ctx context.Context) ([]T, error)
	// AuditAction overrides the IMPORT action of the commit audit entry.
	AuditAction audit.Action
}

// Outcome is what a run produced. On failure it holds whatever was reached.
type Outcome struct {
	Session *Session              `json:"-"`
	Summary *Summary              `json:"summary,omitempty"`
	Plan    reconcile.PlanSummary `json:"plan"`
	Commit  *commit.Result        `json:"commit,omitempty"`
	Errors  []string              `json:"errors,omitempty"`
	// DiagnosticKey is the archived log of a failed run.
	DiagnosticKey string `json:"diagnostic_key,omitempty"`
}

// Runner starts sessions and drives them through fetch, reconcile and commit.
type Runner struct {
	executor    *commit.Executor
	summaries   SummaryStore
	sink        LogSink
	diagnostics Diagnostics
	logger      *zap.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
}

// NewRunner creates a runner. diagnostics may be nil.
func NewRunner(executor *commit.Executor, summaries SummaryStore, sink LogSink, diagnostics Diagnostics, logger *zap.Logger) *Runner {
	if sink == nil {
		sink = NewMemorySink()
	}
	return &Runner{
		executor:    executor,
		summaries:   summaries,
		sink:        sink,
		diagnostics: diagnostics,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Executor returns the commit executor used by the runner.
func (r *Runner) Executor() *commit.Executor {
	return r.executor
}

// Start creates and tracks a new idle session.
func (r *Runner) Start(scope, actor string) *Session {
	s := New(scope, actor, r.sink, r.logger)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.order = append(r.order, s.ID)
	for len(r.order) > maxTracked {
		delete(r.sessions, r.order[0])
		r.order = r.order[1:]
	}
	return s
}

// Session returns a tracked session.
func (r *Runner) Session(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Replay returns a session's log from the sink, which outlives the runner's tracking.
func (r *Runner) Replay(ctx context.Context, id string) ([]Event, error) {
	return r.sink.Replay(ctx, id)
}

// History returns the newest run summaries.
func (r *Runner) History(ctx context.Context, kind reconcile.EntityKind, limit int) ([]Summary, error) {
	return r.summaries.Recent(ctx, string(kind), limit)
}

// Run drives s through Fetching, Reconciling and Committing for job.
//
// On success exactly one Summary is saved and the session is Completed. On any
// failure the session is Failed, its last log line is the error, no Summary is
// saved and the log is handed to diagnostics when configured.
func Run[T reconcile.Record](ctx context.Context, r *Runner, s *Session, job Job[T]) (*Outcome, error) {
	out := &Outcome{Session: s}
	if err := run(ctx, r, s, job, out); err != nil {
		out.DiagnosticKey = r.Abort(ctx, s, err)
		return out, err
	}
	return out, nil
}

// Finish saves sum and completes s with message. Runs that drive their own
// phases end with Finish; a save failure leaves s running for Abort.
func (r *Runner) Finish(ctx context.Context, s *Session, sum *Summary, message string) error {
	if sum.SessionID == "" {
		sum.SessionID = s.ID
	}
	if sum.Timestamp.IsZero() {
		sum.Timestamp = r.now().UTC()
	}
	if sum.User == "" {
		sum.User = s.Actor
	}
	if err := r.summaries.Save(ctx, sum); err != nil {
		return fmt.Errorf("records were saved but the run summary was not: %w", err)
	}
	return s.Advance(ctx, PhaseCompleted, 100, message)
}

// Abort fails s with cause and hands its log to diagnostics when configured.
// It returns the diagnostic key, or "" when nothing was archived.
func (r *Runner) Abort(ctx context.Context, s *Session, cause error) string {
	s.Fail(ctx, cause)
	if r.diagnostics == nil {
		return ""
	}
	key, err := r.diagnostics.Save(context.WithoutCancel(ctx), s)
	if err != nil {
		r.logger.Warn("Failed to archive session diagnostics", zap.String("session_id", s.ID), zap.Error(err))
		return ""
	}
	return key
}

func run[T reconcile.Record](ctx context.Context, r *Runner, s *Session, job Job[T], out *Outcome) error {
	kind := job.Adapter.Kind()

	if err := s.Advance(ctx, PhaseFetching, 5, fmt.Sprintf("Fetching %s records", kind)); err != nil {
		return err
	}
	batch, err := job.Fetch(ctx, s)
	if err != nil {
		return err
	}
	s.Progress(ctx, 40, fmt.Sprintf("Fetched %d records", len(batch)))

	if err := s.Advance(ctx, PhaseReconciling, 45, "Comparing with existing records"); err != nil {
		return err
	}
	plan, err := PlanBatch(ctx, s, job.Adapter, batch, job.Existing, 55)
	if err != nil {
		return err
	}
	out.Plan = plan.Summary()
	out.Errors = plan.Errors()

	if err := s.Advance(ctx, PhaseCommitting, 60, "Saving records"); err != nil {
		return err
	}
	res, err := CommitPlan(ctx, s, r.executor, job.Adapter, plan, commit.Options{
		Actor:       s.Actor,
		Provenance:  job.Provenance,
		AuditAction: job.AuditAction,
	}, 60, 95)
	out.Commit = res
	if err != nil {
		return err
	}

	details, err := json.Marshal(map[string]any{
		"session_id": s.ID,
		"skip_count": out.Plan.Skipped,
		"rejected":   out.Plan.Rejected,
		"failed":     len(res.Failures),
		"inserted":   res.Inserted,
		"updated":    res.Updated,
		"chunks":     res.Chunks,
		"errors":     out.Errors,
	})
	if err != nil {
		return err
	}
	sum := &Summary{
		SessionID:    s.ID,
		Timestamp:    r.now().UTC(),
		User:         s.Actor,
		Kind:         string(kind),
		Scope:        job.Params.Scope,
		Year:         job.Params.Year,
		Query:        job.Params.Query,
		TotalFetched: len(batch),
		NewCount:     out.Plan.New,
		UpdateCount:  out.Plan.Updated,
		SkipCount:    out.Plan.Skipped,
		Details:      details,
	}
	out.Summary = sum
	if err := r.Finish(ctx, s, sum, fmt.Sprintf("Sync completed: %d new, %d updated, %d skipped",
		res.Inserted, res.Updated, out.Plan.Skipped)); err != nil {
		out.Summary = nil
		return err
	}
	return nil
}
