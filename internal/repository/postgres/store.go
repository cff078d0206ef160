package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories
// work identically inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool        *pgxpool.Pool
	q           querier
	lockTimeout time.Duration

	users     usersRepo
	transfers transfersRepo
	auditLogs auditLogsRepo
}

func NewStore(pool *pgxpool.Pool, lockTimeout time.Duration) *Store {
	return bind(pool, pool, lockTimeout)
}

func bind(pool *pgxpool.Pool, q querier, lockTimeout time.Duration) *Store {
	return &Store{
		pool:        pool,
		q:           q,
		lockTimeout: lockTimeout,
		users:       usersRepo{q},
		transfers:   transfersRepo{q},
		auditLogs:   auditLogsRepo{q},
	}
}

func (s *Store) Users() repo.Users         { return &s.users }
func (s *Store) Transfers() repo.Transfers { return &s.transfers }
func (s *Store) AuditLogs() repo.AuditLogs { return &s.auditLogs }

// WithTx runs fn inside a read-write transaction with a bounded lock wait.
// When the store is already transaction-bound the inner call runs on a
// savepoint, so a failed sub-block rolls back without aborting the outer
// unit of work.
func (s *Store) WithTx(ctx context.Context, fn func(repo.Store) error) error {
	if outer, ok := s.q.(pgx.Tx); ok {
		nested, err := outer.Begin(ctx)
		if err != nil {
			return translateErr(err)
		}
		if err := fn(bind(s.pool, nested, s.lockTimeout)); err != nil {
			_ = nested.Rollback(ctx)
			return translateErr(err)
		}
		return translateErr(nested.Commit(ctx))
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return translateErr(err)
	}
	if s.lockTimeout > 0 {
		// SET LOCAL scopes the bound to this transaction only.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return translateErr(err)
		}
	}
	if err := fn(bind(s.pool, tx, s.lockTimeout)); err != nil {
		_ = tx.Rollback(ctx)
		return translateErr(err)
	}
	return translateErr(tx.Commit(ctx))
}

// lockNotAvailable is the Postgres error code raised when lock_timeout
// expires while waiting on a row lock.
const lockNotAvailable = "55P03"

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
		return repo.ErrLockTimeout
	}
	return err
}
