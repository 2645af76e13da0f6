package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/prices/internal/result"
	"github.com/roach88/prices/internal/schema"
)

// Tx is a unit of work's view of its transaction. Statements use @name
// parameters and are bound for the store's dialect.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// Dialect returns the SQL dialect of the transaction's connection.
func (t *Tx) Dialect() Dialect {
	return t.dialect
}

func (t *Tx) Exec(ctx context.Context, query string, params map[string]any) (sql.Result, error) {
	q, args, err := schema.Bind(t.dialect, query, params)
	if err != nil {
		return nil, err
	}
	return t.tx.ExecContext(ctx, q, args...)
}

func (t *Tx) Query(ctx context.Context, query string, params map[string]any) (*sql.Rows, error) {
	q, args, err := schema.Bind(t.dialect, query, params)
	if err != nil {
		return nil, err
	}
	return t.tx.QueryContext(ctx, q, args...)
}

func (t *Tx) QueryRow(ctx context.Context, query string, params map[string]any) *Row {
	q, args, err := schema.Bind(t.dialect, query, params)
	if err != nil {
		return &Row{err: err}
	}
	return &Row{row: t.tx.QueryRowContext(ctx, q, args...)}
}

// Row is the result of QueryRow. A binding failure is reported by Scan.
type Row struct {
	row *sql.Row
	err error
}

func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.row.Scan(dest...)
}

// RunInTransaction runs fn inside one transaction.
//
// The Result fn returns is committed as is, whatever its status. When fn
// fails the transaction is rolled back and the failure is classified:
//   - known, non-fatal statuses (missing entry, duplicate entry, version
//     mismatch, foreign key, data too long) become the Result status with a
//     nil error
//   - timeouts and deadlocks are returned as *Error for the caller to retry
//     or report
//   - anything unrecognized is returned as *Error with status Unknown
func RunInTransaction[T any](ctx context.Context, s *Store, op string, fn func(*Tx) (result.Result[T], error)) (result.Result[T], error) {
	start := time.Now()
	res, err := runInTransaction(ctx, s, op, fn)

	status := res.Status
	if err != nil {
		status = StatusOf(err)
	}
	s.metrics.ObserveTransaction(op, status.String(), time.Since(start))

	switch {
	case err != nil:
		s.logger.Warn("transaction failed", "op", op, "status", status, "err", err)
	case res.IsFailure():
		s.logger.Debug("transaction rejected", "op", op, "status", status)
	default:
		s.logger.Debug("transaction committed", "op", op)
	}
	return res, err
}

func runInTransaction[T any](ctx context.Context, s *Store, op string, fn func(*Tx) (result.Result[T], error)) (result.Result[T], error) {
	var zero result.Result[T]

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, s.escalate(op, fmt.Errorf("begin tx: %w", err))
	}
	defer sqlTx.Rollback()

	res, err := fn(&Tx{tx: sqlTx, dialect: s.dialect})
	if err != nil {
		return settle[T](s, op, err)
	}

	if err := sqlTx.Commit(); err != nil {
		return settle[T](s, op, fmt.Errorf("commit: %w", err))
	}
	return res, nil
}

// settle folds a classified, non-fatal failure into a Result and escalates
// everything else.
func settle[T any](s *Store, op string, err error) (result.Result[T], error) {
	status, ok := s.Classify(err)
	if ok && !status.IsFatal() {
		return result.Result[T]{Status: status}, nil
	}
	return result.Result[T]{}, s.escalate(op, err)
}

// escalate wraps err as an *Error with its classified status.
func (s *Store) escalate(op string, err error) error {
	var e *Error
	if errors.As(err, &e) && e.Op == "" {
		e.Op = op
		return err
	}
	status, _ := s.Classify(err)
	return &Error{Op: op, Status: status, Err: err}
}
