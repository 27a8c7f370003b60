package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyFromString(t *testing.T) {
	t.Run("parses decimal literal exactly", func(t *testing.T) {
		m, err := NewMoneyFromString("19.99")
		require.NoError(t, err)
		assert.Equal(t, "19.99", m.Amount().String())
	})

	t.Run("rejects malformed amount", func(t *testing.T) {
		_, err := NewMoneyFromString("19.99.9")
		assert.Error(t, err)
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := NewMoneyFromString("")
		assert.Error(t, err)
	})
}

func TestMoneyMulInt(t *testing.T) {
	t.Run("no floating point drift", func(t *testing.T) {
		price, err := NewMoneyFromString("19.99")
		require.NoError(t, err)

		subtotal := price.MulInt(3)
		assert.Equal(t, "59.97", subtotal.String())
	})

	t.Run("multiplying by zero yields zero", func(t *testing.T) {
		price, err := NewMoneyFromString("42.50")
		require.NoError(t, err)
		assert.True(t, price.MulInt(0).IsZero())
	})
}

func TestMoneyAdd(t *testing.T) {
	a, err := NewMoneyFromString("0.1")
	require.NoError(t, err)
	b, err := NewMoneyFromString("0.2")
	require.NoError(t, err)

	sum := a.Add(b)
	assert.Equal(t, "0.3", sum.String())
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"fractional amount keeps decimals", "59.97", "59.97"},
		{"whole amount renders as integer", "60.00", "60"},
		{"zero renders as integer", "0", "0"},
		{"large amount never uses scientific notation", "12000000", "12000000"},
		{"sub-cent precision preserved", "0.005", "0.005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	t.Run("marshals as bare number", func(t *testing.T) {
		m, err := NewMoneyFromString("59.97")
		require.NoError(t, err)

		data, err := json.Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, "59.97", string(data))
	})

	t.Run("whole amount marshals without fraction", func(t *testing.T) {
		m, err := NewMoneyFromString("100.00")
		require.NoError(t, err)

		data, err := json.Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, "100", string(data))
	})

	t.Run("unmarshals JSON number", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(`19.99`), &m))
		assert.Equal(t, "19.99", m.Amount().String())
	})

	t.Run("unmarshals quoted decimal string", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(`"19.99"`), &m))
		assert.Equal(t, "19.99", m.Amount().String())
	})

	t.Run("null becomes zero", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(`null`), &m))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var m Money
		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
	})
}

func TestMoneyScan(t *testing.T) {
	t.Run("scans string value", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("12.34"))
		assert.Equal(t, "12.34", m.Amount().String())
	})

	t.Run("scans byte slice", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan([]byte("56.78")))
		assert.Equal(t, "56.78", m.Amount().String())
	})

	t.Run("nil scans to zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(struct{}{}))
	})
}

func TestMoneyEquals(t *testing.T) {
	a := NewMoneyFromDecimal(decimal.RequireFromString("60.00"))
	b := NewMoneyFromDecimal(decimal.RequireFromString("60"))
	assert.True(t, a.Equals(b))
}
