package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/prices/internal/dataset"
	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/result"
)

// EditOptions holds flags for add and update.
type EditOptions struct {
	*RootOptions
	Set     string // fields as a JSON object
	Prune   bool   // drop dangling related ids and retry
	Version int    // expected version for update and remove; -1 uses the cached one
}

// PruneReport is printed when dangling related ids were dropped.
type PruneReport struct {
	Record  entity.Record `json:"record"`
	Dropped int           `json:"dropped"`
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <kind>",
		Short: "Add a record",
		Long: `Add a record built from --set, a JSON object keyed by field name.

An author or book whose related ids point at missing records fails with
ForeignKeyConstraintFails; with --prune those ids are dropped and the
add is retried.

Example:
  prices add category --set '{"name":"Dairy","is_food":true,"tax_rate":0.08}'
  prices add author --set '{"name":"Aoki","related_ids":[10,11]}' --prune`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Set, "set", "{}", "fields as a JSON object")
	cmd.Flags().BoolVar(&opts.Prune, "prune", false, "drop related ids that point at missing records and retry")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Update a record",
		Long: `Overlay --set onto a stored record and write it back.

With --version the write only succeeds if the record still has that
version; otherwise the stored record is shown with VersionMismatch.

Example:
  prices update category 1 --set '{"name":"Dairy2"}' --version 0`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Set, "set", "{}", "fields as a JSON object")
	cmd.Flags().BoolVar(&opts.Prune, "prune", false, "drop related ids that point at missing records and retry")
	cmd.Flags().IntVar(&opts.Version, "version", -1, "expected version (default: the stored one)")
	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <kind> <id>...",
		Short: "Remove records",
		Long: `Remove one or more records of a kind. Several ids are removed in one
transaction; records that changed meanwhile are kept.

Example:
  prices remove price 4
  prices remove store 2 3 5`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Version, "version", -1, "expected version of a single record")
	return cmd
}

func parseFields(set string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(set), &fields); err != nil {
		return nil, fmt.Errorf("invalid --set JSON: %w", err)
	}
	return fields, nil
}

func runAdd(opts *EditOptions, kind string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	fields, err := parseFields(opts.Set)
	if err != nil {
		_ = f.Error(ErrCodeInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	e, op, err := opts.openOperator(cmd, f, kind)
	if err != nil {
		return err
	}
	defer e.Close()

	rec := op.New()
	if err := entity.Apply(rec, fields); err != nil {
		_ = f.Error(ErrCodeInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid fields", err)
	}

	status, dropped, err := opts.write(cmd.Context(), e.ds, rec, op.Add)
	if err := outcomeError(f, "add "+kind, status, err, nil); err != nil {
		return err
	}
	if dropped > 0 {
		return f.Success(PruneReport{Record: rec, Dropped: dropped})
	}
	return f.Success(rec)
}

func runUpdate(opts *EditOptions, kind, idArg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	fields, err := parseFields(opts.Set)
	if err != nil {
		_ = f.Error(ErrCodeInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	e, op, err := opts.openOperator(cmd, f, kind)
	if err != nil {
		return err
	}
	defer e.Close()

	cached, err := lookup(f, op, idArg)
	if err != nil {
		return err
	}
	rec := op.Clone(cached)
	if opts.Version >= 0 {
		rec.Header().Version = int32(opts.Version)
	}
	if err := entity.Apply(rec, fields); err != nil {
		_ = f.Error(ErrCodeInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid fields", err)
	}

	status, dropped, err := opts.write(cmd.Context(), e.ds, rec, op.Update)
	var details any
	if status == result.VersionMismatch {
		details = cached
	}
	if err := outcomeError(f, "update "+kind, status, err, details); err != nil {
		return err
	}
	if dropped > 0 {
		return f.Success(PruneReport{Record: rec, Dropped: dropped})
	}
	return f.Success(rec)
}

// write runs add or update, pruning dangling related ids and retrying once
// when asked to.
func (opts *EditOptions) write(ctx context.Context, ds *dataset.Dataset, rec entity.Record,
	fn func(context.Context, entity.Record) (result.Status, error)) (result.Status, int, error) {
	status, err := fn(ctx, rec)
	if status != result.ForeignKeyConstraintFails || !opts.Prune {
		return status, 0, err
	}
	related, ok := rec.(entity.Related)
	if !ok {
		return status, 0, err
	}
	dropped := dataset.PruneRelated(ds, related)
	if dropped == 0 {
		return status, 0, err
	}
	opts.Logger.Info("dropped dangling related ids", "kind", rec.Kind(), "dropped", dropped)
	status, err = fn(ctx, rec)
	return status, dropped, err
}

func runRemove(opts *EditOptions, kind string, idArgs []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	e, op, err := opts.openOperator(cmd, f, kind)
	if err != nil {
		return err
	}
	defer e.Close()

	recs := make([]entity.Record, 0, len(idArgs))
	for _, arg := range idArgs {
		rec, err := lookup(f, op, arg)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}

	if len(recs) == 1 {
		rec := recs[0]
		if opts.Version >= 0 {
			rec = op.Clone(rec)
			rec.Header().Version = int32(opts.Version)
		}
		status, err := op.Remove(cmd.Context(), rec)
		if err := outcomeError(f, "remove "+kind, status, err, nil); err != nil {
			return err
		}
		return f.Success(fmt.Sprintf("removed %s %d", kind, rec.Header().ID))
	}

	status, removed, err := op.RemoveRange(cmd.Context(), recs)
	details := map[string]int{"removed": removed, "requested": len(recs)}
	if err := outcomeError(f, "remove "+kind, status, err, details); err != nil {
		return err
	}
	return f.Success(fmt.Sprintf("removed %d %s record(s)", removed, kind))
}

func (opts *EditOptions) openOperator(cmd *cobra.Command, f *OutputFormatter, kind string) (*env, dataset.Operator, error) {
	if !entity.ValidKind(kind) {
		msg := fmt.Sprintf("unknown kind %q (want one of %v)", kind, entity.Kinds)
		_ = f.Error(ErrCodeInvalid, msg, nil)
		return nil, nil, NewExitError(ExitCommandError, msg)
	}
	e, err := opts.open(cmd.Context(), f)
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, nil, err
	}
	op, err := e.ds.Operator(kind)
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	return e, op, nil
}

func lookup(f *OutputFormatter, op dataset.Operator, idArg string) (entity.Record, error) {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil || id <= 0 {
		msg := fmt.Sprintf("invalid id %q", idArg)
		_ = f.Error(ErrCodeInvalid, msg, nil)
		return nil, NewExitError(ExitCommandError, msg)
	}
	rec, ok := op.Get(id)
	if !ok {
		msg := fmt.Sprintf("%s %d not found", op.Kind(), id)
		_ = f.Error(ErrCodeNotFound, msg, nil)
		return nil, NewExitError(ExitFailure, msg)
	}
	return rec, nil
}
