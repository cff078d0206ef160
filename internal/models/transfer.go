package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferRejected  TransferStatus = "rejected"
)

// Terminal reports whether no further status transition is permitted.
func (s TransferStatus) Terminal() bool {
	return s == TransferCompleted || s == TransferRejected
}

func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferCompleted, TransferRejected:
		return true
	}
	return false
}

// TransferLabel is the requesting user's role in a listed transfer.
// Derived at query time, never stored.
type TransferLabel string

const (
	LabelSending   TransferLabel = "sending"
	LabelReceiving TransferLabel = "receiving"
)

type Transfer struct {
	ID         string          `json:"id"`
	SenderID   string          `json:"-"`
	ReceiverID string          `json:"-"`
	Sender     UserRef         `json:"sender"`
	Receiver   UserRef         `json:"receiver"`
	Amount     decimal.Decimal `json:"amount"`
	Status     TransferStatus  `json:"status"`
	Label      TransferLabel   `json:"label,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type TransferPage struct {
	Page           int        `json:"page"`
	Limit          int        `json:"limit"`
	TotalTransfers int64      `json:"total_transfers"`
	Transfers      []Transfer `json:"transfers"`
}

// LeaderboardMetric selects how leaderboard rows are ranked.
type LeaderboardMetric string

const (
	LeaderboardByCount  LeaderboardMetric = "count"
	LeaderboardByAmount LeaderboardMetric = "amount"
)

func (m LeaderboardMetric) Valid() bool {
	return m == LeaderboardByCount || m == LeaderboardByAmount
}

// LeaderboardEntry ranks a user by participation count or total
// transferred amount, depending on the requested metric.
type LeaderboardEntry struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	Metric   decimal.Decimal `json:"metric"`
}
