package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/transfer-ledger/internal/models"
	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
)

// fakeStore is an in-memory repo.Store. WithTx serializes callers on one
// mutex (standing in for row locks) and snapshots state so a failed unit
// of work rolls back completely; nested WithTx snapshots again, which is
// the savepoint behavior the engine relies on.
type fakeStore struct {
	mu    *sync.Mutex
	state *fakeState
	inTx  bool
}

type fakeState struct {
	users     map[string]models.User
	transfers map[string]models.Transfer
	audits    []models.AuditLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mu: &sync.Mutex{},
		state: &fakeState{
			users:     map[string]models.User{},
			transfers: map[string]models.Transfer{},
		},
	}
}

func (s *fakeState) clone() *fakeState {
	us := make(map[string]models.User, len(s.users))
	for k, v := range s.users {
		us[k] = v
	}
	ts := make(map[string]models.Transfer, len(s.transfers))
	for k, v := range s.transfers {
		ts[k] = v
	}
	return &fakeState{users: us, transfers: ts, audits: append([]models.AuditLog(nil), s.audits...)}
}

func (f *fakeStore) lock() func() {
	if f.inTx {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *fakeStore) WithTx(_ context.Context, fn func(repo.Store) error) error {
	defer f.lock()()
	snap := f.state.clone()
	if err := fn(&fakeStore{mu: f.mu, state: f.state, inTx: true}); err != nil {
		*f.state = *snap
		return err
	}
	return nil
}

func (f *fakeStore) Users() repo.Users         { return &fakeUsers{f} }
func (f *fakeStore) Transfers() repo.Transfers { return &fakeTransfers{f} }
func (f *fakeStore) AuditLogs() repo.AuditLogs { return &fakeAuditLogs{f} }

// ---- seeding helpers ----

func (f *fakeStore) addUser(username string, balance string) models.User {
	defer f.lock()()
	u := models.User{ID: uuid.NewString(), Username: username, Balance: decimal.RequireFromString(balance)}
	f.state.users[u.ID] = u
	return u
}

func (f *fakeStore) addTransfer(senderID, receiverID, amount string, status models.TransferStatus) models.Transfer {
	defer f.lock()()
	now := time.Now()
	t := models.Transfer{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     decimal.RequireFromString(amount),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.state.transfers[t.ID] = t
	return t
}

func (f *fakeStore) balance(userID string) decimal.Decimal {
	defer f.lock()()
	return f.state.users[userID].Balance
}

func (f *fakeStore) transfer(id string) models.Transfer {
	defer f.lock()()
	return f.state.transfers[id]
}

// ---- users ----

type fakeUsers struct{ f *fakeStore }

func (r *fakeUsers) Create(_ context.Context, username string, balance decimal.Decimal) (models.User, error) {
	defer r.f.lock()()
	u := models.User{ID: uuid.NewString(), Username: username, Balance: balance}
	r.f.state.users[u.ID] = u
	return u, nil
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	defer r.f.lock()()
	u, ok := r.f.state.users[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *fakeUsers) GetByIDForUpdate(ctx context.Context, id string) (models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUsers) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) (models.User, error) {
	defer r.f.lock()()
	u, ok := r.f.state.users[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	u.Balance = balance
	r.f.state.users[id] = u
	return u, nil
}

func (r *fakeUsers) Exists(_ context.Context, id string) (bool, error) {
	defer r.f.lock()()
	_, ok := r.f.state.users[id]
	return ok, nil
}

// ---- transfers ----

type fakeTransfers struct{ f *fakeStore }

func (r *fakeTransfers) Create(_ context.Context, senderID, receiverID string, amount decimal.Decimal) (models.Transfer, error) {
	defer r.f.lock()()
	now := time.Now()
	t := models.Transfer{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     models.TransferPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.fillRefs(&t)
	r.f.state.transfers[t.ID] = t
	return t, nil
}

func (r *fakeTransfers) fillRefs(t *models.Transfer) {
	if s, ok := r.f.state.users[t.SenderID]; ok {
		t.Sender = models.UserRef{ID: s.ID, Username: s.Username}
	}
	if u, ok := r.f.state.users[t.ReceiverID]; ok {
		t.Receiver = models.UserRef{ID: u.ID, Username: u.Username}
	}
}

func (r *fakeTransfers) GetByID(_ context.Context, id string) (models.Transfer, error) {
	defer r.f.lock()()
	t, ok := r.f.state.transfers[id]
	if !ok {
		return models.Transfer{}, repo.ErrNotFound
	}
	r.fillRefs(&t)
	return t, nil
}

func (r *fakeTransfers) matches(t models.Transfer, userID string, status *models.TransferStatus) bool {
	if t.SenderID != userID && t.ReceiverID != userID {
		return false
	}
	return status == nil || t.Status == *status
}

func (r *fakeTransfers) ListByUser(_ context.Context, userID string, status *models.TransferStatus, limit, offset int) ([]models.Transfer, error) {
	defer r.f.lock()()
	var all []models.Transfer
	for _, t := range r.f.state.transfers {
		if r.matches(t, userID, status) {
			r.fillRefs(&t)
			if t.SenderID == userID {
				t.Label = models.LabelSending
			} else {
				t.Label = models.LabelReceiving
			}
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeTransfers) CountByUser(_ context.Context, userID string, status *models.TransferStatus) (int64, error) {
	defer r.f.lock()()
	var n int64
	for _, t := range r.f.state.transfers {
		if r.matches(t, userID, status) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTransfers) UpdateStatus(_ context.Context, id string, status models.TransferStatus) (models.Transfer, error) {
	defer r.f.lock()()
	t, ok := r.f.state.transfers[id]
	if !ok || t.Status != models.TransferPending {
		return models.Transfer{}, repo.ErrNotPending
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	r.f.state.transfers[id] = t
	r.fillRefs(&t)
	return t, nil
}

func (r *fakeTransfers) Leaderboard(_ context.Context, by models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error) {
	defer r.f.lock()()
	totals := map[string]decimal.Decimal{}
	for _, t := range r.f.state.transfers {
		for _, uid := range []string{t.SenderID, t.ReceiverID} {
			switch by {
			case models.LeaderboardByCount:
				totals[uid] = totals[uid].Add(decimal.NewFromInt(1))
			case models.LeaderboardByAmount:
				totals[uid] = totals[uid].Add(t.Amount)
			default:
				return nil, fmt.Errorf("unknown leaderboard metric %q", by)
			}
		}
	}
	var out []models.LeaderboardEntry
	for uid, metric := range totals {
		out = append(out, models.LeaderboardEntry{
			UserID:   uid,
			Username: r.f.state.users[uid].Username,
			Metric:   metric,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metric.GreaterThan(out[j].Metric) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- stale status reads ----

// staleStatusStore serves one recorded transfer snapshot from
// Transfers().GetByID, reproducing a read-committed status read taken
// before a concurrent transaction finalized the row.
type staleStatusStore struct {
	repo.Store
	snapshot models.Transfer
}

func (s *staleStatusStore) WithTx(ctx context.Context, fn func(repo.Store) error) error {
	return s.Store.WithTx(ctx, func(st repo.Store) error {
		return fn(&staleStatusStore{Store: st, snapshot: s.snapshot})
	})
}

func (s *staleStatusStore) Transfers() repo.Transfers {
	return &staleStatusTransfers{Transfers: s.Store.Transfers(), snapshot: s.snapshot}
}

type staleStatusTransfers struct {
	repo.Transfers
	snapshot models.Transfer
}

func (r *staleStatusTransfers) GetByID(ctx context.Context, id string) (models.Transfer, error) {
	if id == r.snapshot.ID {
		return r.snapshot, nil
	}
	return r.Transfers.GetByID(ctx, id)
}

// ---- audit logs ----

type fakeAuditLogs struct{ f *fakeStore }

func (r *fakeAuditLogs) Create(_ context.Context, l models.AuditLog) error {
	defer r.f.lock()()
	r.f.state.audits = append(r.f.state.audits, l)
	return nil
}
