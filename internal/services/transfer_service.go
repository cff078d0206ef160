package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/transfer-ledger/internal/metrics"
	"github.com/baharkarakas/transfer-ledger/internal/models"
	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
	"github.com/baharkarakas/transfer-ledger/internal/worker"
)

// feeRate is the acceptance fee withheld from the receiver's credit.
// The fee leaves circulation; it is not credited to any account.
var feeRate = decimal.RequireFromString("0.02")

const leaderboardLimit = 10

type TransferService struct {
	store repo.Store
	wp    *worker.Pool
}

func NewTransferService(store repo.Store, wp *worker.Pool) *TransferService {
	return &TransferService{store: store, wp: wp}
}

func (s *TransferService) audit(transferID, action, details string) {
	if s.wp == nil {
		return
	}
	id := transferID
	s.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.store.AuditLogs().Create(ctx, models.AuditLog{
			EntityType: "transfer",
			EntityID:   &id,
			Action:     action,
			Details:    map[string]any{"message": details},
		})
	})
}

// Fee returns the acceptance fee for amount, rounded half-up to the
// currency's two-digit minor unit.
func Fee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(feeRate).Round(2)
}

// lockParties acquires exclusive row locks on both users in ascending
// user-id order. Role-independent ordering totally orders acquisition
// across concurrent engine operations, so no two of them can each hold a
// lock the other needs.
func lockParties(ctx context.Context, st repo.Store, senderID, receiverID string) (sender, receiver models.User, err error) {
	first, second := senderID, receiverID
	if second < first {
		first, second = second, first
	}
	locked := make(map[string]models.User, 2)
	for _, id := range []string{first, second} {
		if _, ok := locked[id]; ok {
			continue
		}
		u, err := st.Users().GetByIDForUpdate(ctx, id)
		if err != nil {
			return models.User{}, models.User{}, err
		}
		locked[id] = u
	}
	return locked[senderID], locked[receiverID], nil
}

// Accept lets the receiver accept a pending transfer, moving the amount
// out of the sender's balance and crediting the receiver with the amount
// minus the fee. The whole sequence is one atomic transaction; the
// sender's balance is re-checked under lock before anything mutates.
func (s *TransferService) Accept(ctx context.Context, transferID, actingUserID string) (models.Transfer, error) {
	var out models.Transfer
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		tr, err := st.Transfers().GetByID(ctx, transferID)
		if errors.Is(err, repo.ErrNotFound) {
			return errCannotAccept
		}
		if err != nil {
			return err
		}
		if tr.ReceiverID != actingUserID || tr.Status != models.TransferPending {
			return errCannotAccept
		}

		fee := Fee(tr.Amount)
		net := tr.Amount.Sub(fee)

		// The mutation block runs on a savepoint: if it fails, only its
		// writes unwind and the transfer row stays pending.
		return st.WithTx(ctx, func(st repo.Store) error {
			sender, receiver, err := lockParties(ctx, st, tr.SenderID, tr.ReceiverID)
			if err != nil {
				return err
			}
			if sender.Balance.LessThan(tr.Amount) {
				return errInsufficientFunds
			}
			if _, err := st.Users().UpdateBalance(ctx, sender.ID, sender.Balance.Sub(tr.Amount)); err != nil {
				return err
			}
			if _, err := st.Users().UpdateBalance(ctx, receiver.ID, receiver.Balance.Add(net)); err != nil {
				return err
			}
			// The guarded transition is the commit point. If a concurrent
			// transaction finalized the transfer after our status read, the
			// transition fails here and the savepoint unwinds both balance
			// writes, so the transfer is applied at most once.
			out, err = st.Transfers().UpdateStatus(ctx, tr.ID, models.TransferCompleted)
			if errors.Is(err, repo.ErrNotPending) {
				return errCannotAccept
			}
			return err
		})
	})
	if err != nil {
		metrics.TransferFailures.WithLabelValues(failReason(err)).Inc()
		return models.Transfer{}, classify(err)
	}
	metrics.TransfersAccepted.Inc()
	s.audit(out.ID, "accepted", fmt.Sprintf("accepted by %s", actingUserID))
	return out, nil
}

// Reject lets the receiver reject a pending transfer. Balances are
// untouched: pending transfers never hold funds in escrow.
func (s *TransferService) Reject(ctx context.Context, transferID, actingUserID string) (models.Transfer, error) {
	var out models.Transfer
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		tr, err := st.Transfers().GetByID(ctx, transferID)
		if errors.Is(err, repo.ErrNotFound) {
			return errCannotReject
		}
		if err != nil {
			return err
		}
		if tr.ReceiverID != actingUserID || tr.Status != models.TransferPending {
			return errCannotReject
		}
		// Guarded transition: a reject racing an accept of the same
		// transfer must not overturn the completed row.
		out, err = st.Transfers().UpdateStatus(ctx, tr.ID, models.TransferRejected)
		if errors.Is(err, repo.ErrNotPending) {
			return errCannotReject
		}
		return err
	})
	if err != nil {
		metrics.TransferFailures.WithLabelValues(failReason(err)).Inc()
		return models.Transfer{}, classify(err)
	}
	metrics.TransfersRejected.Inc()
	s.audit(out.ID, "rejected", fmt.Sprintf("rejected by %s", actingUserID))
	return out, nil
}

// Get returns a transfer to one of its parties. Unlike Accept/Reject this
// does distinguish a missing transfer from a foreign one.
func (s *TransferService) Get(ctx context.Context, transferID, requestingUserID string) (models.Transfer, error) {
	tr, err := s.store.Transfers().GetByID(ctx, transferID)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Transfer{}, errTransferNotFound
	}
	if err != nil {
		return models.Transfer{}, classify(err)
	}
	if requestingUserID != tr.SenderID && requestingUserID != tr.ReceiverID {
		return models.Transfer{}, errAccessDenied
	}
	return tr, nil
}

// List returns one page of the user's transfers in either role, with the
// pagination total for the same filter.
func (s *TransferService) List(ctx context.Context, userID string, status *models.TransferStatus, page, limit int) (models.TransferPage, error) {
	if page < 1 {
		return models.TransferPage{}, &Error{Code: CodeInvalidArgument, Message: "page must be >= 1"}
	}
	if limit < 1 {
		return models.TransferPage{}, &Error{Code: CodeInvalidArgument, Message: "limit must be >= 1"}
	}
	if status != nil && !status.Valid() {
		return models.TransferPage{}, &Error{Code: CodeInvalidArgument, Message: "invalid status"}
	}
	offset := (page - 1) * limit

	transfers, err := s.store.Transfers().ListByUser(ctx, userID, status, limit, offset)
	if err != nil {
		return models.TransferPage{}, classify(err)
	}
	total, err := s.store.Transfers().CountByUser(ctx, userID, status)
	if err != nil {
		return models.TransferPage{}, classify(err)
	}
	return models.TransferPage{
		Page:           page,
		Limit:          limit,
		TotalTransfers: total,
		Transfers:      transfers,
	}, nil
}

// Leaderboard returns the top users ranked by transfer count or by total
// transferred amount across both roles.
func (s *TransferService) Leaderboard(ctx context.Context, by string) ([]models.LeaderboardEntry, error) {
	metric := models.LeaderboardMetric(by)
	if !metric.Valid() {
		return nil, &Error{Code: CodeInvalidArgument, Message: "invalid 'by' parameter"}
	}
	entries, err := s.store.Transfers().Leaderboard(ctx, metric, leaderboardLimit)
	if err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

// Create records a new pending transfer. No funds move and nothing is
// reserved until the receiver accepts.
func (s *TransferService) Create(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) (models.Transfer, error) {
	if !amount.IsPositive() {
		return models.Transfer{}, &Error{Code: CodeInvalidArgument, Message: "amount must be positive"}
	}
	if senderID == receiverID {
		return models.Transfer{}, &Error{Code: CodeInvalidArgument, Message: "sender and receiver must differ"}
	}
	var out models.Transfer
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		for _, id := range []string{senderID, receiverID} {
			ok, err := st.Users().Exists(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return errUserNotFound
			}
		}
		var err error
		out, err = st.Transfers().Create(ctx, senderID, receiverID, amount)
		return err
	})
	if err != nil {
		return models.Transfer{}, classify(err)
	}
	s.audit(out.ID, "created", fmt.Sprintf("pending transfer %s -> %s", senderID, receiverID))
	return out, nil
}
