package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a value object representing a monetary amount with exact
// decimal semantics. It is immutable - all operations return new Money
// instances. Amounts are never held as binary floating point: construction
// from external input goes through a textual decimal parse, and arithmetic
// uses exact decimal multiplication and addition.
type Money struct {
	amount decimal.Decimal
}

// NewMoneyFromString creates Money by parsing the literal text
// representation of a decimal number. This is the required construction
// path for any amount arriving from the wire or from a dependency,
// so binary floating point rounding never enters persisted values.
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d}, nil
}

// NewMoneyFromDecimal creates Money from an existing decimal value
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// ZeroMoney returns a zero-valued Money
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the underlying decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// MulInt returns a new Money multiplied by an integer factor.
// Used for subtotal = unit price * quantity.
func (m Money) MulInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor))}
}

// Equals returns true if both amounts are numerically equal
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String renders the amount as a plain decimal number: an integer form
// when there is no fractional part ("60", not "60.00"), otherwise a
// fractional decimal ("59.97"). Never scientific notation.
func (m Money) String() string {
	if m.amount.IsInteger() {
		return m.amount.Truncate(0).String()
	}
	return m.amount.String()
}

// MarshalJSON renders the amount as a bare JSON number using the same
// rules as String.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON parses either a JSON number or a quoted decimal string.
// The raw token is parsed as text, never round-tripped through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" || s == "" {
		m.amount = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = d
	return nil
}

// Value implements driver.Valuer for database storage.
// Stores the amount as its decimal text representation.
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	case int64:
		m.amount = decimal.NewFromInt(v)
		return nil
	case float64:
		// Some drivers hand numeric columns back as float64. Convert via
		// the shortest round-trippable text form to keep exact decimals.
		strVal = fmt.Sprintf("%v", v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	return nil
}
