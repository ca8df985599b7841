package types

import (
	"encoding/json"
	"errors"
	"time"
)

// DateLayout is the wire and storage format of a transaction date.
const DateLayout = "2006-01-02"

// Transaction is a single income or expense record owned by one user.
type Transaction struct {
	// ID is the unique identifier of the transaction.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user. Ownership is implied by the
	// authenticated caller, so it is not serialized.
	UserID int `json:"-" db:"user_id"`

	// Type is "income" or "expense" by convention. The value is free text
	// and is not enforced.
	Type string `json:"type" db:"type"`

	// Category is a free-form label such as "food" or "salary".
	Category string `json:"category" db:"category"`

	// Amount is the monetary value. Its sign is not tied to Type.
	Amount float64 `json:"amount" db:"amount"`

	// Description is optional and defaults to the empty string.
	Description string `json:"description" db:"description"`

	// Date is the calendar day of the transaction, without a time component.
	Date Date `json:"date" db:"date"`
}

// TransactionPatch carries a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Type        *string
	Category    *string
	Amount      *float64
	Description *string
	Date        *Date
}

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// NewDate builds a Date from its calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("date must be a string")
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
