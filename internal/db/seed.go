package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/transfer-ledger/internal/models"
	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
)

// Seed wipes the ledger and loads the development fixture: ten users
// user_0..user_9 with balance 10000*i and two transfers between the first
// two (one pending, one completed).
func Seed(ctx context.Context, pool *pgxpool.Pool, store repo.Store) error {
	if _, err := pool.Exec(ctx, `DELETE FROM transfers`); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `DELETE FROM users`); err != nil {
		return err
	}

	users := make([]models.User, 10)
	for i := range users {
		u, err := store.Users().Create(ctx, fmt.Sprintf("user_%d", i), decimal.NewFromInt(int64(10000*i)))
		if err != nil {
			return err
		}
		users[i] = u
	}

	if _, err := store.Transfers().Create(ctx, users[0].ID, users[1].ID, decimal.NewFromInt(1000)); err != nil {
		return err
	}
	completed, err := store.Transfers().Create(ctx, users[0].ID, users[1].ID, decimal.NewFromInt(1000))
	if err != nil {
		return err
	}
	_, err = store.Transfers().UpdateStatus(ctx, completed.ID, models.TransferCompleted)
	return err
}
