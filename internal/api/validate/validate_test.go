package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	assert.Nil(t, Required("name", "alice"))
	assert.NotNil(t, Required("name", ""))
	assert.NotNil(t, Required("name", "   "))
}

func TestMinInt(t *testing.T) {
	assert.Nil(t, MinInt("page", 1, 1))
	e := MinInt("page", 0, 1)
	assert.NotNil(t, e)
	assert.Equal(t, "page", e.Field)
}

func TestPositiveAmount(t *testing.T) {
	assert.Nil(t, PositiveAmount("amount", decimal.RequireFromString("0.01")))
	assert.NotNil(t, PositiveAmount("amount", decimal.Zero))
	assert.NotNil(t, PositiveAmount("amount", decimal.RequireFromString("-1")))
}

func TestQueryInt(t *testing.T) {
	assert.Equal(t, 5, QueryInt("5", 1))
	assert.Equal(t, 1, QueryInt("", 1))
	assert.Equal(t, 1, QueryInt("abc", 1))
}

func TestErrsError(t *testing.T) {
	errs := Errs{
		{Field: "page", Msg: "must be >= 1"},
		{Field: "amount", Msg: "must be > 0"},
	}
	assert.Equal(t, "page: must be >= 1; amount: must be > 0", errs.Error())
}
