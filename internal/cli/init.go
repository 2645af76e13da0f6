package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prices/internal/entity"
)

// InitResult describes the initialized database.
type InitResult struct {
	Driver   string           `json:"driver"`
	Database string           `json:"database"`
	NextIDs  map[string]int64 `json:"next_ids"`
}

func (r InitResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "database %q ready (%s)", r.Database, r.Driver)
	for _, kind := range entity.Kinds {
		fmt.Fprintf(&b, "\n  %-8s next id %d", kind, r.NextIDs[kind])
	}
	return b.String()
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the database",
		Long: `Create the database schema if needed, apply migrations and report
the identity each table hands out next. Safe to run repeatedly.

Example:
  prices init --db ./prices.db
  prices init --driver pgx --db postgres://app@localhost/prices`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	e, err := opts.open(cmd.Context(), f)
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer e.Close()

	res := InitResult{
		Driver:   e.store.Dialect().Driver(),
		Database: e.store.DatabaseName(),
		NextIDs:  make(map[string]int64, len(entity.Kinds)),
	}
	for _, kind := range entity.Kinds {
		op, err := e.ds.Operator(kind)
		if err != nil {
			return err
		}
		next, err := e.store.NextID(cmd.Context(), op.Table())
		if err != nil {
			_ = f.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read identity counters", err)
		}
		res.NextIDs[kind] = next
	}
	return f.Success(res)
}
