package models

import (
	"github.com/shopspring/decimal"
)

type User struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// UserRef is the party view embedded in listed transfers.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
