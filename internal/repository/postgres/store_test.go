package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
)

func TestTranslateErr(t *testing.T) {
	assert.NoError(t, translateErr(nil))

	lockErr := &pgconn.PgError{Code: lockNotAvailable}
	assert.ErrorIs(t, translateErr(lockErr), repo.ErrLockTimeout)
	assert.ErrorIs(t, translateErr(fmt.Errorf("query: %w", lockErr)), repo.ErrLockTimeout)

	other := errors.New("connection refused")
	assert.Equal(t, other, translateErr(other))

	uniqueErr := &pgconn.PgError{Code: "23505"}
	assert.NotErrorIs(t, translateErr(uniqueErr), repo.ErrLockTimeout)
}
