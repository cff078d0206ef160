package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferStatus(t *testing.T) {
	assert.False(t, TransferPending.Terminal())
	assert.True(t, TransferCompleted.Terminal())
	assert.True(t, TransferRejected.Terminal())

	assert.True(t, TransferPending.Valid())
	assert.False(t, TransferStatus("bogus").Valid())
}

func TestLeaderboardMetric(t *testing.T) {
	assert.True(t, LeaderboardByCount.Valid())
	assert.True(t, LeaderboardByAmount.Valid())
	assert.False(t, LeaderboardMetric("bogus").Valid())
}
