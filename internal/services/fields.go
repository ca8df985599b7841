package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pennywise-app/apiserver/types"
)

const (
	fieldType        = "type"
	fieldCategory    = "category"
	fieldAmount      = "amount"
	fieldDescription = "description"
	fieldDate        = "date"

	maxTypeLen        = 10
	maxCategoryLen    = 50
	maxDescriptionLen = 200
)

var (
	// ErrMissingField is returned by Create when a required field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidFormat is returned when a field cannot be coerced.
	ErrInvalidFormat = errors.New("invalid data format")
)

// requiredFields are checked in order; the first absent one is reported.
var requiredFields = []string{fieldType, fieldCategory, fieldAmount, fieldDate}

// TransactionFields is a decoded JSON object keyed by field name. Presence of
// a key, not its zero value, decides whether a field was supplied.
type TransactionFields map[string]json.RawMessage

func (f TransactionFields) has(name string) bool {
	_, ok := f[name]
	return ok
}

// transaction validates f as a create payload.
func (f TransactionFields) transaction() (types.Transaction, error) {
	for _, name := range requiredFields {
		if !f.has(name) {
			return types.Transaction{}, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	var (
		tx  types.Transaction
		err error
	)
	if tx.Type, err = f.text(fieldType, maxTypeLen); err != nil {
		return types.Transaction{}, err
	}
	if tx.Category, err = f.text(fieldCategory, maxCategoryLen); err != nil {
		return types.Transaction{}, err
	}
	if strings.TrimSpace(tx.Type) == "" {
		return types.Transaction{}, fmt.Errorf("%w: %s", ErrMissingField, fieldType)
	}
	if strings.TrimSpace(tx.Category) == "" {
		return types.Transaction{}, fmt.Errorf("%w: %s", ErrMissingField, fieldCategory)
	}
	if tx.Amount, err = f.amount(); err != nil {
		return types.Transaction{}, err
	}
	if tx.Date, err = f.date(); err != nil {
		return types.Transaction{}, err
	}
	if f.has(fieldDescription) {
		if tx.Description, err = f.text(fieldDescription, maxDescriptionLen); err != nil {
			return types.Transaction{}, err
		}
	}
	return tx, nil
}

// patch validates f as a partial update. Unknown keys are ignored.
func (f TransactionFields) patch() (types.TransactionPatch, error) {
	var patch types.TransactionPatch

	if f.has(fieldType) {
		value, err := f.nonEmptyText(fieldType, maxTypeLen)
		if err != nil {
			return types.TransactionPatch{}, err
		}
		patch.Type = &value
	}
	if f.has(fieldCategory) {
		value, err := f.nonEmptyText(fieldCategory, maxCategoryLen)
		if err != nil {
			return types.TransactionPatch{}, err
		}
		patch.Category = &value
	}
	if f.has(fieldAmount) {
		value, err := f.amount()
		if err != nil {
			return types.TransactionPatch{}, err
		}
		patch.Amount = &value
	}
	if f.has(fieldDescription) {
		value, err := f.text(fieldDescription, maxDescriptionLen)
		if err != nil {
			return types.TransactionPatch{}, err
		}
		patch.Description = &value
	}
	if f.has(fieldDate) {
		value, err := f.date()
		if err != nil {
			return types.TransactionPatch{}, err
		}
		patch.Date = &value
	}
	return patch, nil
}

// text coerces a scalar to its string form: JSON strings verbatim, numbers
// and booleans by their literal text. null reads as "" only for the
// optional description.
func (f TransactionFields) text(name string, maxLen int) (string, error) {
	raw := bytes.TrimSpace(f[name])
	var value string
	switch {
	case len(raw) == 0:
		return "", invalid(name)
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &value); err != nil {
			return "", invalid(name)
		}
	case bytes.Equal(raw, []byte("null")):
		if name != fieldDescription {
			return "", invalid(name)
		}
	case raw[0] == '{' || raw[0] == '[':
		return "", invalid(name)
	default:
		value = string(raw)
	}

	if utf8.RuneCountInString(value) > maxLen {
		return "", fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidFormat, name, maxLen)
	}
	return value, nil
}

func (f TransactionFields) nonEmptyText(name string, maxLen int) (string, error) {
	value, err := f.text(name, maxLen)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s must not be empty", ErrInvalidFormat, name)
	}
	return value, nil
}

// amount accepts a JSON number or a numeric string.
func (f TransactionFields) amount() (float64, error) {
	raw := bytes.TrimSpace(f[fieldAmount])

	var value float64
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, invalid(fieldAmount)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, invalid(fieldAmount)
		}
		value = parsed
	} else if err := json.Unmarshal(raw, &value); err != nil || bytes.Equal(raw, []byte("null")) {
		return 0, invalid(fieldAmount)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, invalid(fieldAmount)
	}
	return value, nil
}

// date accepts a YYYY-MM-DD string.
func (f TransactionFields) date() (types.Date, error) {
	var value types.Date
	if err := json.Unmarshal(f[fieldDate], &value); err != nil {
		return types.Date{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidFormat)
	}
	return value, nil
}

func invalid(name string) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, name)
}
