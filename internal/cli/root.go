package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/prices/internal/config"
	"github.com/roach88/prices/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigPath  string
	Driver      string
	DB          string
	MetricsAddr string

	// Config is the loaded configuration with flag overrides applied.
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the prices CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "prices - price and comics book-keeping",
		Long: `Keeps categories, products, stores and the prices paid for them,
plus authors and books, in SQLite or PostgreSQL.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.configure(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", fmt.Sprintf("database driver %v (overrides config)", store.Drivers))
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database connection string (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewImportComicsCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// configure loads the config file, applies flag overrides and installs
// the logger.
func (o *RootOptions) configure(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Driver != "" {
		cfg.Driver = o.Driver
	}
	if o.DB != "" {
		cfg.DSN = o.DB
	}
	if o.MetricsAddr != "" {
		cfg.Metrics.Addr = o.MetricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	o.Config = cfg

	level := cfg.LogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	// Logs go to stderr so JSON output on stdout stays parseable.
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	o.Logger = slog.New(handler)
	slog.SetDefault(o.Logger)
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
