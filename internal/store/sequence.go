package store

import (
	"context"
	"fmt"
)

// Reclaim resets the auto-increment counter of table to 1 when the table
// is empty, and reports whether it did.
//
// The reset is not transactional on every engine, so it runs on its own
// after the deleting transaction has committed.
func (s *Store) Reclaim(ctx context.Context, table string) (bool, error) {
	if err := checkIdent(table); err != nil {
		return false, err
	}
	reset, err := s.dialect.reclaim(ctx, s.db, table)
	if err != nil {
		return false, fmt.Errorf("reclaim %s: %w", table, err)
	}
	if reset {
		s.metrics.Reclaimed(table)
		s.logger.Info("auto-increment reset", "table", table)
	}
	return reset, nil
}

// NextID returns the id the next insert into table will receive.
func (s *Store) NextID(ctx context.Context, table string) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	next, err := s.dialect.nextID(ctx, s.db, s.dbName, table)
	if err != nil {
		return 0, fmt.Errorf("next id %s: %w", table, err)
	}
	return next, nil
}
