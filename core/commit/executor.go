package commit

import (
	"context"
	"fmt"

	"records-manager/core/audit"
	"records-manager/core/reconcile"
	"records-manager/core/store"

	"go.uber.org/zap"
)

// Executor applies reconciliation plans to the store in atomic chunks.
type Executor struct {
	store     store.Store
	audit     *audit.Recorder
	chunkSize int
	logger    *zap.Logger
}

// NewExecutor creates an executor. recorder may be nil to skip auditing.
func NewExecutor(s store.Store, recorder *audit.Recorder, cfg Config, logger *zap.Logger) *Executor {
	return &Executor{
		store:     s,
		audit:     recorder,
		chunkSize: cfg.chunkSize(),
		logger:    logger,
	}
}

// ChunkSize returns the effective chunk size.
func (e *Executor) ChunkSize() int {
	return e.chunkSize
}

// Options describes one commit call.
type Options struct {
	// Actor is recorded as created_by / updated_by and in the audit entry.
	Actor string
	// Provenance is stored on inserted records.
	Provenance reconcile.Provenance
	// AuditAction is the action of the single audit entry written after the data step.
	// Defaults to IMPORT.
	AuditAction audit.Action
	// AuditDetails is stored with the audit entry. Defaults to the plan summary.
	AuditDetails any
	// OnChunk is called after every committed chunk.
	OnChunk func(done, total int)
}

// Result reports what a commit applied.
type Result struct {
	Inserted    int                     `json:"inserted"`
	Updated     int                     `json:"updated"`
	InsertedIDs []string                `json:"inserted_ids"`
	Failures    []*PartialCommitFailure `json:"failures"`
	Chunks      int                     `json:"chunks"`
}

// Applied returns the number of writes that reached the store.
func (r *Result) Applied() int {
	return r.Inserted + r.Updated
}

type op struct {
	write  store.Write
	insert bool
}

// Commit writes the plan's inserts, then its updates, in chunks of at most the
// executor's chunk size. Each chunk is one SetMany call and therefore atomic.
//
// Cancellation is checked before every chunk; a chunk in flight always finishes.
// On error the returned Result still holds everything committed so far.
// After the data step an audit entry is appended on a best-effort basis. A
// failed or cancelled commit gets a failure entry carrying what was applied
// before it stopped.
func Commit[T reconcile.Record](ctx context.Context, e *Executor, adapter reconcile.Adapter[T], plan *reconcile.Plan[T], opts Options) (*Result, error) {
	kind := adapter.Kind()
	res := &Result{}

	ops, err := buildOps(adapter, plan, opts.Provenance)
	if err != nil {
		return res, err
	}

	total := len(ops)
	for start := 0; start < total; start += e.chunkSize {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("Commit cancelled between chunks",
				zap.String("kind", string(kind)),
				zap.Int("applied", res.Applied()),
				zap.Int("remaining", total-start),
			)
			err = fmt.Errorf("%w after %d of %d writes: %v", ErrCancelled, res.Applied(), total, err)
			e.recordAudit(ctx, kind, "", plan.Summary(), res, opts, err)
			return res, err
		}

		end := min(start+e.chunkSize, total)
		chunk := ops[start:end]
		writes := make([]store.Write, len(chunk))
		for i, o := range chunk {
			writes[i] = o.write
		}

		wr, err := e.store.SetMany(ctx, kind.Collection(), opts.Actor, writes)
		if err != nil {
			err = fmt.Errorf("chunk %d (%d writes) failed: %w", res.Chunks+1, len(writes), err)
			e.recordAudit(ctx, kind, "", plan.Summary(), res, opts, err)
			return res, err
		}
		res.Chunks++
		tally(res, chunk, wr, kind, e.logger)

		if opts.OnChunk != nil {
			opts.OnChunk(end, total)
		}
	}

	if total > 0 {
		docID := ""
		switch {
		case res.Inserted == 1 && res.Updated == 0 && len(res.InsertedIDs) == 1:
			docID = res.InsertedIDs[0]
		case res.Updated == 1 && res.Inserted == 0 && len(plan.Updates) == 1:
			docID = plan.Updates[0].ExistingID
		}
		e.recordAudit(ctx, kind, docID, plan.Summary(), res, opts, nil)
	}
	return res, nil
}

func buildOps[T reconcile.Record](adapter reconcile.Adapter[T], plan *reconcile.Plan[T], prov reconcile.Provenance) ([]op, error) {
	ops := make([]op, 0, len(plan.Inserts)+len(plan.Updates))
	for i, rec := range plan.Inserts {
		fields, err := reconcile.Fields(rec)
		if err != nil {
			return nil, err
		}
		p := rec.System().Provenance
		if p == "" {
			p = prov
		}
		ops = append(ops, op{
			insert: true,
			write: store.Write{
				Key:        plan.InsertKey(adapter, i),
				Fields:     fields,
				Provenance: string(p),
			},
		})
	}
	for _, u := range plan.Updates {
		fields, err := reconcile.Fields(u.Merged)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op{
			write: store.Write{
				Key:     u.ExistingID,
				Fields:  fields,
				Patch:   true,
				Restore: u.Restore,
			},
		})
	}
	return ops, nil
}

func tally(res *Result, chunk []op, wr store.WriteResult, kind reconcile.EntityKind, logger *zap.Logger) {
	missing := make(map[string]struct{}, len(wr.Missing))
	for _, id := range wr.Missing {
		missing[id] = struct{}{}
	}

	applied := 0
	for _, o := range chunk {
		if o.insert {
			res.Inserted++
			if applied < len(wr.IDs) {
				res.InsertedIDs = append(res.InsertedIDs, wr.IDs[applied])
			}
			applied++
			continue
		}
		if _, gone := missing[o.write.Key]; gone {
			f := &PartialCommitFailure{Kind: kind, ID: o.write.Key, Reason: "target no longer exists"}
			res.Failures = append(res.Failures, f)
			logger.Warn("Update target missing, record skipped", zap.String("kind", string(kind)), zap.String("id", o.write.Key))
			continue
		}
		res.Updated++
		applied++
	}
}

func (e *Executor) recordAudit(ctx context.Context, kind reconcile.EntityKind, docID string, s reconcile.PlanSummary, res *Result, opts Options, cause error) {
	action := opts.AuditAction
	if action == "" {
		action = audit.ActionImport
	}
	details := opts.AuditDetails
	if details == nil || cause != nil {
		d := map[string]any{
			"new_count":    res.Inserted,
			"update_count": res.Updated,
			"skip_count":   s.Skipped,
			"rejected":     s.Rejected,
			"failed":       len(res.Failures),
			"chunks":       res.Chunks,
		}
		if cause != nil {
			d["planned_new"] = s.New
			d["planned_update"] = s.Updated
			if opts.AuditDetails != nil {
				d["context"] = opts.AuditDetails
			}
		}
		details = d
	}
	if cause != nil {
		e.audit.Failure(ctx, action, kind.Collection(), docID, opts.Actor, details, cause)
		return
	}
	e.audit.Success(ctx, action, kind.Collection(), docID, opts.Actor, details)
}
