package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/transfer-ledger/internal/metrics"
	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
)

type BalanceService struct {
	store repo.Store
}

func NewBalanceService(store repo.Store) *BalanceService {
	return &BalanceService{store: store}
}

// Deposit adds amount to the user's balance under a row lock and returns
// the new balance.
func (s *BalanceService) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, &Error{Code: CodeInvalidArgument, Message: "amount must be positive"}
	}
	var balance decimal.Decimal
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		u, err := st.Users().GetByIDForUpdate(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return errUserNotFound
		}
		if err != nil {
			return err
		}
		u, err = st.Users().UpdateBalance(ctx, u.ID, u.Balance.Add(amount))
		balance = u.Balance
		return err
	})
	if err != nil {
		return decimal.Zero, classify(err)
	}
	metrics.BalanceOps.WithLabelValues("deposit").Inc()
	return balance, nil
}

// Withdraw subtracts amount from the user's balance. The locked
// sufficient-funds check guarantees the balance never goes negative.
func (s *BalanceService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, &Error{Code: CodeInvalidArgument, Message: "amount must be positive"}
	}
	var balance decimal.Decimal
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		u, err := st.Users().GetByIDForUpdate(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return errUserNotFound
		}
		if err != nil {
			return err
		}
		if u.Balance.LessThan(amount) {
			return errInsufficientFunds
		}
		u, err = st.Users().UpdateBalance(ctx, u.ID, u.Balance.Sub(amount))
		balance = u.Balance
		return err
	})
	if err != nil {
		return decimal.Zero, classify(err)
	}
	metrics.BalanceOps.WithLabelValues("withdraw").Inc()
	return balance, nil
}
