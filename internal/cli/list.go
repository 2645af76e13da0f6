package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prices/internal/dataset"
	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/search"
)

// ListEntry is one listed record with the number of cached records
// depending on it.
type ListEntry struct {
	Record     entity.Record `json:"record"`
	References int           `json:"references"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind> [filter...]",
		Short: "List records of a kind",
		Long: fmt.Sprintf(`List the records of one kind (%s).

Filter words must all match the record's search targets:
  word    contains word
  =word   equals word
  !word   does not equal word
  ^word   does not contain word
  a|b     matches a or b
Use ␣ or a no-break space for a space inside a word.

Example:
  prices list category food
  prices list price p3. '^s2.'`, strings.Join(entity.Kinds, ", ")),
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], strings.Join(args[1:], " "), cmd)
		},
	}
}

func runList(opts *RootOptions, kind, filter string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if !entity.ValidKind(kind) {
		msg := fmt.Sprintf("unknown kind %q (want one of %v)", kind, entity.Kinds)
		_ = f.Error(ErrCodeInvalid, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	e, err := opts.open(cmd.Context(), f)
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer e.Close()

	op, err := e.ds.Operator(kind)
	if err != nil {
		return err
	}
	flt := search.Parse(filter)

	entries := []ListEntry{}
	for _, rec := range op.List() {
		if !flt.Match(rec.SearchTargets()) {
			continue
		}
		entries = append(entries, ListEntry{Record: rec, References: dataset.ReferenceCount(e.ds, rec)})
	}
	f.VerboseLog("%d of %d %s record(s) match", len(entries), len(op.List()), kind)

	if f.Format == "json" {
		return f.Success(entries)
	}
	lines := make([]string, len(entries))
	for i, en := range entries {
		lines[i] = fmt.Sprintf("%v\trefs=%d", en.Record, en.References)
	}
	return f.Success(lines)
}
