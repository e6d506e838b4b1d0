package reportdesk

import (
	"database/sql/driver"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount wraps decimal.Decimal for rupee figures such as income and debt.
// JSON marshaling outputs a number; form values arrive as strings.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON outputs as a JSON number (not a string).
func (a Amount) MarshalJSON() ([]byte, error) {
	f, _ := a.Round(2).Float64()
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	if src == nil {
		a.Decimal = decimal.Zero
		return nil
	}
	switch v := src.(type) {
	case float64:
		a.Decimal = decimal.NewFromFloat(v)
		return nil
	case int64:
		a.Decimal = decimal.NewFromInt(v)
		return nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		a.Decimal = d
		return nil
	}
	return a.Decimal.Scan(src)
}

// Value stores amounts as exact decimal text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// NewAmount creates an Amount from a float64.
func NewAmount(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// ParseAmount parses a user-entered figure. Thousands separators and a
// leading rupee sign are tolerated.
func ParseAmount(raw string) (Amount, error) {
	d, err := decimal.NewFromString(cleanAmountText(raw))
	if err != nil {
		return Amount{}, err
	}
	return Amount{d}, nil
}

// Display renders the amount the way prompts and exports show it.
func (a Amount) Display() string {
	return a.Round(2).String()
}
