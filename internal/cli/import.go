package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prices/internal/comics"
	"github.com/roach88/prices/internal/store"
)

// ImportOptions holds flags for the import-comics command.
type ImportOptions struct {
	*RootOptions
	DryRun bool
}

// ImportResult summarizes one month's import.
type ImportResult struct {
	Month  string         `json:"month"`
	Comics int            `json:"comics"`
	Report comics.Report  `json:"report"`
	Titles []comics.Comic `json:"titles,omitempty"`
}

func (r ImportResult) String() string {
	rep := r.Report
	return fmt.Sprintf("%s: %d comics, %d books added, %d linked, %d unchanged, %d authors added, %d failed",
		r.Month, r.Comics, rep.BooksAdded, rep.BooksLinked, rep.Unchanged, rep.AuthorsAdded, len(rep.Failed))
}

// NewImportComicsCommand creates the import-comics command.
func NewImportComicsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-comics <yyyy-mm>",
		Short: "Import a month of the comics release list",
		Long: `Download the comics release list of a month and add its entries as
books, creating missing authors. Books already present gain missing
author links. The list source is comics.base_url in the config file.

Example:
  prices import-comics 2024-05
  prices import-comics 2024-05 --dry-run --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportComics(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "fetch and parse only")
	return cmd
}

func runImportComics(opts *ImportOptions, monthArg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	month, err := time.Parse("2006-01", monthArg)
	if err != nil {
		msg := fmt.Sprintf("invalid month %q, want yyyy-mm", monthArg)
		_ = f.Error(ErrCodeInvalid, msg, nil)
		return WrapExitError(ExitCommandError, msg, err)
	}

	fetcher := comics.NewFetcher(opts.Config.Comics.BaseURL)
	fetcher.Logger = opts.Logger
	list, err := fetcher.Fetch(cmd.Context(), month)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, comics.ErrNotFound) {
			code = ErrCodeNotFound
		}
		_ = f.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to fetch comics", err)
	}

	res := ImportResult{Month: month.Format("2006-01"), Comics: len(list)}
	if opts.DryRun {
		res.Titles = list
		return f.Success(res)
	}

	e, err := opts.open(cmd.Context(), f)
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer e.Close()

	res.Report, err = comics.Import(cmd.Context(), e.ds, list, opts.Logger)
	if err != nil {
		if store.IsFatal(err) {
			_ = f.Error(ErrCodeRetryable, err.Error(), res.Report)
			return WrapExitError(ExitRetry, "import interrupted, retry the command", err)
		}
		_ = f.Error(ErrCodeGeneric, err.Error(), res.Report)
		return WrapExitError(ExitFailure, "import failed", err)
	}
	if len(res.Report.Failed) > 0 {
		_ = f.Success(res)
		return NewExitError(ExitFailure, fmt.Sprintf("%d comics rejected", len(res.Report.Failed)))
	}
	return f.Success(res)
}
