package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/prices/internal/dataset"
	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/result"
	"github.com/roach88/prices/internal/store"
	"github.com/roach88/prices/internal/testutil"
)

// Harness executes one scenario against its own database.
type Harness struct {
	ds     *dataset.Dataset
	refs   map[string]entity.Record
	seq    *testutil.Sequence
	logger *slog.Logger
}

// Option configures a run.
type Option func(*options)

type options struct {
	driver string
	logger *slog.Logger
}

// WithDriver selects the SQLite driver ("sqlite3" or "sqlite").
func WithDriver(driver string) Option {
	return func(o *options) { o.driver = driver }
}

// WithLogger routes engine logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// The returned error reports a harness failure (the database could not
// be opened, a step could not be built); mismatches are in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		driver: "sqlite3",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(o.driver, ":memory:", store.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ds := dataset.New(st,
		dataset.WithLogger(o.logger),
		dataset.WithSession(testutil.NewFixedSession(scenario.Session)),
	)
	if err := ds.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize dataset: %w", err)
	}

	h := &Harness{
		ds:     ds,
		refs:   make(map[string]entity.Record),
		seq:    testutil.NewSequence(),
		logger: o.logger.With("scenario", scenario.Name),
	}

	res := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, i, step, res); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	for _, msg := range h.evaluate(ctx, scenario.Assertions) {
		res.AddError(msg)
	}
	return res, nil
}

// execute runs one step, traces it and checks its expectations.
func (h *Harness) execute(ctx context.Context, index int, step Step, res *Result) error {
	want := result.Success
	if step.Expect != "" {
		var err error
		if want, err = result.ParseStatus(step.Expect); err != nil {
			return err
		}
	}

	ev := TraceEvent{Seq: h.seq.Next(), Op: step.Op, Ref: step.Ref}
	status, count, rec, err := h.apply(ctx, step)
	if err != nil {
		// Escalated and validation failures still have a status.
		h.logger.Debug("step failed", "step", index, "op", step.Op, "err", err)
	}

	ev.Status = status.String()
	if rec != nil {
		ev.Kind = rec.Kind()
		ev.ID = rec.Header().ID
		ev.Version = rec.Header().Version
	} else if step.Kind != "" {
		ev.Kind = step.Kind
	}
	if step.Op == OpRemoveRange || step.Op == OpPrune {
		ev.Count = &count
	}
	res.AddTrace(ev)

	if status != want {
		msg := fmt.Sprintf("steps[%d] %s %s: expected %s, got %s", index, step.Op, step.Ref, want, status)
		if err != nil {
			msg += fmt.Sprintf(" (%v)", err)
		}
		res.AddError(msg)
	}
	if step.Count != nil && *step.Count != count {
		res.AddError(fmt.Sprintf("steps[%d] %s %s: expected count %d, got %d", index, step.Op, step.Ref, *step.Count, count))
	}
	return nil
}

// apply performs the operation. rec is the record the step acted on, when
// there is a single one.
func (h *Harness) apply(ctx context.Context, step Step) (result.Status, int, entity.Record, error) {
	switch step.Op {
	case OpAdd:
		rec, op, err := h.fresh(step)
		if err != nil {
			return result.Unknown, 0, nil, err
		}
		if err := entity.Apply(rec, step.Fields); err != nil {
			return result.Unknown, 0, rec, err
		}
		h.refs[step.Ref] = rec
		status, err := op.Add(ctx, rec)
		return status, 0, rec, err

	case OpUpdate:
		rec, op, err := h.bound(step.Ref)
		if err != nil {
			return result.Unknown, 0, nil, err
		}
		if err := entity.Apply(rec, step.Fields); err != nil {
			return result.Unknown, 0, rec, err
		}
		status, err := op.Update(ctx, rec)
		return status, 0, rec, err

	case OpRemove:
		rec, op, err := h.bound(step.Ref)
		if err != nil {
			return result.Unknown, 0, nil, err
		}
		status, err := op.Remove(ctx, rec)
		return status, 0, rec, err

	case OpRemoveRange:
		var (
			op   dataset.Operator
			recs []entity.Record
		)
		for _, ref := range step.Refs {
			r, o, err := h.bound(ref)
			if err != nil {
				return result.Unknown, 0, nil, err
			}
			if op != nil && o.Kind() != op.Kind() {
				return result.Unknown, 0, nil, fmt.Errorf("remove_range mixes %s and %s", op.Kind(), o.Kind())
			}
			op = o
			recs = append(recs, r)
		}
		status, count, err := op.RemoveRange(ctx, recs)
		return status, count, nil, err

	case OpCopy:
		rec, op, err := h.bound(step.Ref)
		if err != nil {
			return result.Unknown, 0, nil, err
		}
		h.refs[step.As] = op.Clone(rec)
		return result.Success, 0, rec, nil

	case OpLoad:
		if err := h.ds.Load(ctx); err != nil {
			return store.StatusOf(err), 0, nil, err
		}
		h.rebind()
		return result.Success, 0, nil, nil

	case OpPrune:
		rec, _, err := h.bound(step.Ref)
		if err != nil {
			return result.Unknown, 0, nil, err
		}
		related, ok := rec.(entity.Related)
		if !ok {
			return result.Unknown, 0, rec, fmt.Errorf("%s has no related ids", rec.Kind())
		}
		return result.Success, dataset.PruneRelated(h.ds, related), rec, nil
	}
	return result.Unknown, 0, nil, fmt.Errorf("unknown op %q", step.Op)
}

// fresh returns a new record of step.Kind, or the record bound to step.Ref
// when the step names no kind.
func (h *Harness) fresh(step Step) (entity.Record, dataset.Operator, error) {
	if step.Kind == "" {
		return h.bound(step.Ref)
	}
	op, err := h.ds.Operator(step.Kind)
	if err != nil {
		return nil, nil, err
	}
	return op.New(), op, nil
}

// bound returns the record bound to ref and its operator.
func (h *Harness) bound(ref string) (entity.Record, dataset.Operator, error) {
	rec, ok := h.refs[ref]
	if !ok {
		return nil, nil, fmt.Errorf("no record bound to %q", ref)
	}
	op, err := h.ds.Operator(rec.Kind())
	if err != nil {
		return nil, nil, err
	}
	return rec, op, nil
}

// rebind points every ref whose id was reloaded at the new cached instance.
// Copies are rebound too, so a copy made before a load is no longer stale.
func (h *Harness) rebind() {
	for ref, rec := range h.refs {
		op, err := h.ds.Operator(rec.Kind())
		if err != nil {
			continue
		}
		if cached, ok := op.Get(rec.Header().ID); ok {
			h.refs[ref] = cached
		}
	}
}
