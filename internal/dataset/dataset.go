package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/metrics"
	"github.com/roach88/prices/internal/result"
	"github.com/roach88/prices/internal/store"
)

// Load retry defaults.
const (
	DefaultLoadAttempts = 10
	DefaultLoadInterval = 33 * time.Millisecond
)

// ErrLoadTimeout is wrapped by the error Load returns once every attempt failed.
var ErrLoadTimeout = errors.New("dataset load timed out")

// SessionGenerator produces the session id attached to a Dataset's log lines.
// Implemented by UUIDv7Generator (production) and testutil.FixedSession (tests).
type SessionGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids.
type UUIDv7Generator struct{}

// Generate panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Dataset holds one list per entity kind.
//
// Thread-safety model:
//   - lookups and list copies take the read lock
//   - snapshot swaps and cache reconciliation take the write lock
//   - storage writes happen outside the lock, inside store transactions
type Dataset struct {
	store    *store.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	session  string
	attempts int
	interval time.Duration

	mu    sync.RWMutex
	lists map[string]any // kind -> []*T

	loads       singleflight.Group
	initOnce    sync.Once
	initErr     error
	loading     atomic.Bool
	initialized atomic.Bool
	unavailable atomic.Bool
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithLogger sets the logger; the session id is attached to it.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dataset) { d.logger = l }
}

// WithMetrics records loads and cache sizes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dataset) { d.metrics = m }
}

// WithSession sets the session id generator.
func WithSession(g SessionGenerator) Option {
	return func(d *Dataset) { d.session = g.Generate() }
}

// WithLoadRetry sets the retry ceiling of Load.
//
// Default: 10 attempts, 33ms apart.
func WithLoadRetry(attempts int, interval time.Duration) Option {
	return func(d *Dataset) {
		d.attempts = max(1, attempts)
		d.interval = interval
	}
}

// New creates an empty Dataset over s. Logger and metrics default to the store's.
func New(s *store.Store, opts ...Option) *Dataset {
	d := &Dataset{
		store:    s,
		logger:   s.Logger(),
		metrics:  s.Metrics(),
		attempts: DefaultLoadAttempts,
		interval: DefaultLoadInterval,
		lists:    make(map[string]any, len(entity.Kinds)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.session == "" {
		d.session = UUIDv7Generator{}.Generate()
	}
	d.logger = d.logger.With("session", d.session)
	return d
}

// Store returns the backing store.
func (d *Dataset) Store() *store.Store { return d.store }

// Session returns the session id.
func (d *Dataset) Session() string { return d.session }

// IsReady reports whether a load has succeeded and none is in flight.
func (d *Dataset) IsReady() bool {
	return d.initialized.Load() && !d.unavailable.Load() && !d.loading.Load()
}

// IsUnavailable reports whether the first load failed. The flag is permanent
// for the Dataset's lifetime.
func (d *Dataset) IsUnavailable() bool {
	return d.unavailable.Load()
}

// Initialize performs the first Load. Later calls return the first call's
// outcome without loading again.
func (d *Dataset) Initialize(ctx context.Context) error {
	d.initOnce.Do(func() {
		if err := d.Load(ctx); err != nil {
			d.unavailable.Store(true)
			d.initErr = err
			d.logger.Error("dataset unavailable", "err", err)
		}
	})
	return d.initErr
}

// Load replaces the snapshot with a fresh read of every table.
//
// A caller arriving while a load is in flight waits for that load and
// shares its outcome. The shared load ignores cancellation of the caller
// that started it and is bounded by the retry ceiling. On failure the
// previous snapshot stays live.
func (d *Dataset) Load(ctx context.Context) error {
	start := time.Now()
	loadCtx := context.WithoutCancel(ctx)
	_, err, shared := d.loads.Do("load", func() (any, error) {
		d.loading.Store(true)
		defer d.loading.Store(false)
		return nil, d.loadWithRetry(loadCtx)
	})

	switch {
	case shared:
		d.metrics.ObserveLoad(metrics.LoadShared, time.Since(start))
	case err != nil:
		d.metrics.ObserveLoad(metrics.LoadTimeout, time.Since(start))
	default:
		d.metrics.ObserveLoad(metrics.LoadSuccess, time.Since(start))
	}
	return err
}

func (d *Dataset) loadWithRetry(ctx context.Context) error {
	var (
		attempt int
		snap    map[string]any
	)
	op := func() error {
		attempt++
		d.metrics.LoadAttempt()
		s, err := d.fetch(ctx)
		if err != nil {
			return err
		}
		snap = s
		return nil
	}
	notify := func(err error, wait time.Duration) {
		d.logger.Debug("load attempt failed", "attempt", attempt, "retry_in", wait, "err", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.interval), uint64(d.attempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		d.logger.Warn("load failed", "attempts", attempt, "err", err)
		return fmt.Errorf("%w after %d attempts: %w", ErrLoadTimeout, attempt, err)
	}

	d.mu.Lock()
	d.lists = snap
	d.mu.Unlock()
	d.initialized.Store(true)

	d.observeCached()
	d.logger.Debug("dataset loaded", "attempts", attempt)
	return nil
}

// fetch reads every table inside one transaction.
func (d *Dataset) fetch(ctx context.Context) (map[string]any, error) {
	res, err := store.RunInTransaction(ctx, d.store, "load", func(tx *store.Tx) (result.Result[map[string]any], error) {
		snap := make(map[string]any, len(entity.Kinds))
		loaders := []func(context.Context, *store.Tx, map[string]any) error{
			fetchInto[entity.Category],
			fetchInto[entity.Product],
			fetchInto[entity.Store],
			fetchInto[entity.Price],
			fetchInto[entity.Author],
			fetchInto[entity.Book],
		}
		for _, load := range loaders {
			if err := load(ctx, tx, snap); err != nil {
				return result.Result[map[string]any]{}, err
			}
		}
		return result.Ok(snap), nil
	})
	if err != nil {
		return nil, err
	}
	if res.IsFailure() {
		return nil, fmt.Errorf("load: %s", res.Status)
	}
	return res.Value, nil
}

func fetchInto[T any, P entity.Model[T]](ctx context.Context, tx *store.Tx, snap map[string]any) error {
	table := P(new(T)).Table()
	rows, err := tx.Query(ctx, table.SelectSQL(tx.Dialect()), nil)
	if err != nil {
		return fmt.Errorf("read %s: %w", table.Name, err)
	}
	defer rows.Close()

	var list []*T
	for rows.Next() {
		rec := new(T)
		if err := rows.Scan(table.ScanDest(rec)...); err != nil {
			return fmt.Errorf("scan %s: %w", table.Name, err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read %s: %w", table.Name, err)
	}
	snap[P(new(T)).Kind()] = list
	return nil
}

// observeCached publishes the size of every cached list.
func (d *Dataset) observeCached() {
	observe[entity.Category](d)
	observe[entity.Product](d)
	observe[entity.Store](d)
	observe[entity.Price](d)
	observe[entity.Author](d)
	observe[entity.Book](d)
}

func observe[T any, P entity.Model[T]](d *Dataset) {
	d.mu.RLock()
	n := len(listOf[T, P](d))
	d.mu.RUnlock()
	d.metrics.SetCached(P(new(T)).Kind(), n)
}
