package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/transfer-ledger/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLockTimeout is returned when a row lock could not be acquired
	// within the store's configured wait bound. Safe to retry.
	ErrLockTimeout = errors.New("lock timeout")
	// ErrNotPending is returned by Transfers.UpdateStatus when the row is
	// missing or already terminal, so the transition did not happen.
	ErrNotPending = errors.New("transfer not pending")
)

type Users interface {
	Create(ctx context.Context, username string, balance decimal.Decimal) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	// GetByIDForUpdate reads the user under an exclusive row lock held
	// until the enclosing transaction ends. Callers must be inside WithTx.
	GetByIDForUpdate(ctx context.Context, id string) (models.User, error)
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) (models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type Transfers interface {
	Create(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) (models.Transfer, error)
	GetByID(ctx context.Context, id string) (models.Transfer, error)
	// ListByUser returns transfers where userID is sender or receiver,
	// newest first, each labeled sending/receiving from userID's side.
	ListByUser(ctx context.Context, userID string, status *models.TransferStatus, limit, offset int) ([]models.Transfer, error)
	CountByUser(ctx context.Context, userID string, status *models.TransferStatus) (int64, error)
	// UpdateStatus moves a PENDING transfer to status. The transition is
	// guarded against the committed row state, so a transfer another
	// transaction already finalized returns ErrNotPending untouched.
	UpdateStatus(ctx context.Context, id string, status models.TransferStatus) (models.Transfer, error)
	Leaderboard(ctx context.Context, by models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Store bundles the repositories with the unit-of-work boundary. WithTx
// runs fn against repositories bound to one database transaction: commit
// on nil, full rollback otherwise. Nested WithTx calls become savepoints.
type Store interface {
	Users() Users
	Transfers() Transfers
	AuditLogs() AuditLogs
	WithTx(ctx context.Context, fn func(Store) error) error
}
