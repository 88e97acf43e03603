// Package storage is the local SQLite store: users with their dialogue
// state and token, and the warehouse and coefficient cache.
//
// All statements run under one mutex. Callers must finish any upstream
// HTTP call before entering the store.
package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wbcoef/wbcoef/core/logger"
	"github.com/wbcoef/wbcoef/internal/domain"
)

// Store wraps the database handle opened by core/database.
type Store struct {
	mu sync.Mutex
	db *sqlx.DB
}

// New returns a store over db. The schema must already be migrated.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// locked runs fn holding the store mutex and wraps its error as a storage failure.
func (s *Store) locked(ctx context.Context, op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := fn()
	if err != nil {
		logger.Store.LogAttrs(ctx, slog.LevelError, "statement failed",
			slog.String("event", op),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return domain.E(domain.KindStorage, op, err)
	}
	if logger.ShouldSampleDebug() {
		logger.Store.LogAttrs(ctx, slog.LevelDebug, "statement",
			slog.String("event", op),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
