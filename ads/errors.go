package ads

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedInput    = errors.New("malformed input")
	ErrInvalidAdType     = errors.New("invalid ad type")
	ErrInvalidConditions = errors.New("invalid conditions")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidValue      = errors.New("invalid value")

	ErrNotFound     = errors.New("record not found")
	ErrInvalidField = errors.New("invalid field")
	ErrStorage      = errors.New("storage failure")
)

// Reason возвращает метку вида ошибки для метрик.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrInvalidAdType):
		return "invalid_ad_type"
	case errors.Is(err, ErrInvalidConditions):
		return "invalid_conditions"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, ErrStorage):
		return "storage"
	}
	return "unknown"
}

func invalidField(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidField, name)
}

func storageErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
