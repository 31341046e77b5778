package session

import (
	"context"
	"fmt"

	"records-manager/core/commit"
	"records-manager/core/reconcile"
)

// PlanBatch snapshots the existing records of the adapter's kind and plans batch
// against them, logging the outcome to the session at percent.
func PlanBatch[T reconcile.Record](ctx context.Context, s *Session, adapter reconcile.Adapter[T], batch []T, existing func(context.Context) ([]T, error), percent int) (*reconcile.Plan[T], error) {
	kind := adapter.Kind()
	snapshot, err := existing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing %s records: %w", kind, err)
	}
	s.Infof(ctx, "Loaded %d existing %s records", len(snapshot), kind)

	plan := reconcile.BuildPlan(adapter, batch, snapshot)
	if !plan.Conserved() {
		return nil, fmt.Errorf("plan for %s does not account for every record", kind)
	}
	for _, line := range plan.Errors() {
		s.Warnf(ctx, "%s", line)
	}

	sum := plan.Summary()
	s.Progress(ctx, percent, fmt.Sprintf("Planned %s: %d new, %d to update, %d skipped, %d rejected",
		kind, sum.New, sum.Updated, sum.Skipped, sum.Rejected))
	return plan, nil
}

// CommitPlan commits plan and maps chunk progress onto the percent range [from, to].
func CommitPlan[T reconcile.Record](ctx context.Context, s *Session, e *commit.Executor, adapter reconcile.Adapter[T], plan *reconcile.Plan[T], opts commit.Options, from, to int) (*commit.Result, error) {
	if opts.Actor == "" {
		opts.Actor = s.Actor
	}
	caller := opts.OnChunk
	opts.OnChunk = func(done, total int) {
		s.Progress(ctx, from+(to-from)*done/total, fmt.Sprintf("Saved %d/%d %s records", done, total, adapter.Kind()))
		if caller != nil {
			caller(done, total)
		}
	}

	res, err := commit.Commit(ctx, e, adapter, plan, opts)
	if err != nil {
		return res, err
	}
	for _, f := range res.Failures {
		s.Warnf(ctx, "Skipped %s: %s", f.ID, f.Reason)
	}
	s.Progress(ctx, to, fmt.Sprintf("Committed %s: %d inserted, %d updated", adapter.Kind(), res.Inserted, res.Updated))
	return res, nil
}
