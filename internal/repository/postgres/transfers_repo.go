package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/transfer-ledger/internal/models"
	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
)

type transfersRepo struct{ q querier }

const transferSelect = `
SELECT t.id, t.amount, t.status, t.created_at, t.updated_at,
       s.id, s.username, r.id, r.username
  FROM transfers t
  JOIN users s ON s.id = t.sender_id
  JOIN users r ON r.id = t.receiver_id`

func scanTransfer(row pgx.Row) (models.Transfer, error) {
	var t models.Transfer
	err := row.Scan(
		&t.ID, &t.Amount, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		&t.Sender.ID, &t.Sender.Username, &t.Receiver.ID, &t.Receiver.Username,
	)
	if err != nil {
		return models.Transfer{}, err
	}
	t.SenderID = t.Sender.ID
	t.ReceiverID = t.Receiver.ID
	return t, nil
}

func (r *transfersRepo) Create(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) (models.Transfer, error) {
	id := uuid.NewString()
	_, err := r.q.Exec(ctx,
		`INSERT INTO transfers(id, sender_id, receiver_id, amount, status)
		 VALUES($1,$2,$3,$4,$5)`,
		id, senderID, receiverID, amount, models.TransferPending,
	)
	if err != nil {
		return models.Transfer{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *transfersRepo) GetByID(ctx context.Context, id string) (models.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, transferSelect+` WHERE t.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transfer{}, repo.ErrNotFound
	}
	return t, err
}

func (r *transfersRepo) ListByUser(ctx context.Context, userID string, status *models.TransferStatus, limit, offset int) ([]models.Transfer, error) {
	sql := `
SELECT t.id, t.amount, t.status, t.created_at, t.updated_at,
       s.id, s.username, r.id, r.username,
       CASE WHEN t.sender_id = $1 THEN 'sending' ELSE 'receiving' END AS label
  FROM transfers t
  JOIN users s ON s.id = t.sender_id
  JOIN users r ON r.id = t.receiver_id
 WHERE (t.sender_id = $1 OR t.receiver_id = $1)`
	args := []any{userID}
	if status != nil {
		sql += ` AND t.status = $2`
		args = append(args, string(*status))
	}
	sql += fmt.Sprintf(` ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(
			&t.ID, &t.Amount, &t.Status, &t.CreatedAt, &t.UpdatedAt,
			&t.Sender.ID, &t.Sender.Username, &t.Receiver.ID, &t.Receiver.Username,
			&t.Label,
		); err != nil {
			return nil, err
		}
		t.SenderID = t.Sender.ID
		t.ReceiverID = t.Receiver.ID
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transfersRepo) CountByUser(ctx context.Context, userID string, status *models.TransferStatus) (int64, error) {
	sql := `SELECT COUNT(*) FROM transfers t WHERE (t.sender_id = $1 OR t.receiver_id = $1)`
	args := []any{userID}
	if status != nil {
		sql += ` AND t.status = $2`
		args = append(args, string(*status))
	}
	var n int64
	err := r.q.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}

// UpdateStatus is a compare-and-set on the row's committed status. Two
// transactions racing to finalize the same transfer both read PENDING, but
// only the first UPDATE matches; the loser gets ErrNotPending and must
// unwind whatever it did on the strength of its stale read.
func (r *transfersRepo) UpdateStatus(ctx context.Context, id string, status models.TransferStatus) (models.Transfer, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE transfers SET status=$2, updated_at=now() WHERE id=$1 AND status=$3`,
		id, status, models.TransferPending,
	)
	if err != nil {
		return models.Transfer{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.Transfer{}, repo.ErrNotPending
	}
	return r.GetByID(ctx, id)
}

func (r *transfersRepo) Leaderboard(ctx context.Context, by models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error) {
	var metric string
	switch by {
	case models.LeaderboardByCount:
		metric = `COUNT(t.id)::numeric`
	case models.LeaderboardByAmount:
		metric = `SUM(t.amount)`
	default:
		return nil, fmt.Errorf("unknown leaderboard metric %q", by)
	}

	sql := fmt.Sprintf(`
SELECT u.id, u.username, %s AS metric
  FROM users u
  JOIN transfers t ON t.sender_id = u.id OR t.receiver_id = u.id
 GROUP BY u.id, u.username
 ORDER BY metric DESC
 LIMIT $1`, metric)

	rows, err := r.q.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Metric); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
