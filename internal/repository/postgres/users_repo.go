package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/transfer-ledger/internal/models"
	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
)

type usersRepo struct{ q querier }

func (r *usersRepo) Create(ctx context.Context, username string, balance decimal.Decimal) (models.User, error) {
	id := uuid.NewString()
	_, err := r.q.Exec(ctx,
		`INSERT INTO users(id, username, balance) VALUES($1,$2,$3)`,
		id, username, balance,
	)
	if err != nil {
		return models.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.get(ctx, `SELECT id, username, balance FROM users WHERE id=$1`, id)
}

func (r *usersRepo) GetByIDForUpdate(ctx context.Context, id string) (models.User, error) {
	return r.get(ctx, `SELECT id, username, balance FROM users WHERE id=$1 FOR UPDATE`, id)
}

func (r *usersRepo) get(ctx context.Context, sql, id string) (models.User, error) {
	var u models.User
	err := r.q.QueryRow(ctx, sql, id).Scan(&u.ID, &u.Username, &u.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, repo.ErrNotFound
	}
	return u, err
}

func (r *usersRepo) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) (models.User, error) {
	var u models.User
	err := r.q.QueryRow(ctx,
		`UPDATE users SET balance=$2 WHERE id=$1 RETURNING id, username, balance`,
		id, balance,
	).Scan(&u.ID, &u.Username, &u.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, repo.ErrNotFound
	}
	return u, err
}

func (r *usersRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}
