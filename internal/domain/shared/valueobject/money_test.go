package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(100), SAR)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(m.Amount()))
		assert.Equal(t, SAR, m.Currency())
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})

	t.Run("from string", func(t *testing.T) {
		m, err := NewMoneySARFromString("99.95")
		require.NoError(t, err)
		assert.Equal(t, "99.95 SAR", m.String())

		_, err = NewMoneySARFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		a := NewMoneySARFromFloat(100.50)
		b := NewMoneySARFromFloat(49.50)

		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(150).Equal(sum.Amount()))
	})

	t.Run("add with different currencies fails", func(t *testing.T) {
		a := NewMoneySAR(decimal.NewFromInt(100))
		b, err := NewMoney(decimal.NewFromInt(100), USD)
		require.NoError(t, err)

		_, err = a.Add(b)
		assert.Error(t, err)
	})

	t.Run("subtract", func(t *testing.T) {
		a := NewMoneySAR(decimal.NewFromInt(100))
		b := NewMoneySAR(decimal.NewFromInt(30))

		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(70).Equal(diff.Amount()))
	})

	t.Run("multiply", func(t *testing.T) {
		m := NewMoneySAR(decimal.NewFromInt(100))
		assert.True(t, decimal.NewFromInt(300).Equal(m.MultiplyByInt(3).Amount()))
		assert.True(t, decimal.NewFromInt(115).Equal(m.Multiply(decimal.NewFromFloat(1.15)).Amount()))
	})

	t.Run("round", func(t *testing.T) {
		m := NewMoneySARFromFloat(10.005)
		assert.Equal(t, "10.01 SAR", m.Round(2).String())
	})
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneySAR(decimal.NewFromInt(100))
	b := NewMoneySAR(decimal.NewFromInt(200))

	less, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, less)

	greater, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, greater)

	assert.True(t, a.Equals(NewMoneySARFromFloat(100)))
	assert.False(t, a.Equals(b))

	usd, err := NewMoney(decimal.NewFromInt(100), USD)
	require.NoError(t, err)
	assert.False(t, a.Equals(usd), "same amount in a different currency is not equal")
	_, err = a.LessThan(usd)
	assert.Error(t, err)
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, ZeroSAR().IsZero())
	assert.True(t, NewMoneySAR(decimal.NewFromInt(1)).IsPositive())
	assert.True(t, NewMoneySAR(decimal.NewFromInt(-1)).IsNegative())
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoneySARFromFloat(402.50)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"402.5","currency":"SAR"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"x","currency":"SAR"}`), &decoded))
}

func TestMoney_SQL(t *testing.T) {
	m := NewMoneySARFromFloat(59.99)

	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "59.99", v)

	var scanned Money
	require.NoError(t, scanned.Scan("59.99"))
	assert.True(t, m.Equals(scanned))
	assert.Equal(t, DefaultCurrency, scanned.Currency())

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())

	assert.Error(t, scanned.Scan(42))
}
