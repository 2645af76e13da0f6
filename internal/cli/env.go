package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/roach88/prices/internal/dataset"
	"github.com/roach88/prices/internal/metrics"
	"github.com/roach88/prices/internal/store"
)

// env is an open database with its loaded dataset.
type env struct {
	store   *store.Store
	ds      *dataset.Dataset
	logger  *slog.Logger
	server  *http.Server
	metrics *metrics.Metrics
}

// open connects to the configured database, starts the metrics endpoint
// when an address is configured, and initializes the dataset. f, if not
// nil, is tagged with the dataset session.
func (o *RootOptions) open(ctx context.Context, f *OutputFormatter) (*env, error) {
	cfg := o.Config
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := store.Open(cfg.Driver, cfg.DSN, store.WithLogger(logger), store.WithMetrics(m))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	e := &env{store: st, logger: logger, metrics: m}

	if cfg.Metrics.Addr != "" {
		if err := e.serveMetrics(cfg.Metrics.Addr, reg); err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to serve metrics", err)
		}
	}

	e.ds = dataset.New(st,
		dataset.WithLoadRetry(cfg.Load.Attempts, time.Duration(cfg.Load.Interval)),
	)
	if f != nil {
		f.Session = e.ds.Session()
	}
	if err := e.ds.Initialize(ctx); err != nil {
		e.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load dataset", err)
	}
	logger.Debug("dataset ready", "session", e.ds.Session(), "database", st.DatabaseName())
	return e, nil
}

func (e *env) serveMetrics(addr string, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server stopped", "error", err)
		}
	}()
	e.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// Close stops the metrics endpoint and closes the database.
func (e *env) Close() {
	if e.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.server.Shutdown(ctx); err != nil {
			e.logger.Error("error stopping metrics server", "error", err)
		}
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing database", "error", err)
	}
}
