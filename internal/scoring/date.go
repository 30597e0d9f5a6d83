package scoring

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

// ErrMalformedDate is returned when a date cannot be interpreted as a calendar date.
var ErrMalformedDate = errors.New("malformed date")

// DateError describes a date field that failed to parse.
type DateError struct {
	Field string
	Value string
	Err   error
}

func (e *DateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: missing date", e.Field)
	}
	return fmt.Sprintf("%s: cannot parse %q as YYYY-MM-DD", e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrMalformedDate.
func (e *DateError) Unwrap() error {
	return ErrMalformedDate
}

// ParseDate parses a YYYY-MM-DD string. field names the input for error reporting.
func ParseDate(field, value string) (civil.Date, error) {
	d, err := civil.ParseDate(value)
	if err != nil || !d.IsValid() {
		return civil.Date{}, &DateError{Field: field, Value: value, Err: err}
	}
	return d, nil
}

// ParseOptionalDate is ParseDate for fields where an empty string means absent.
func ParseOptionalDate(field, value string) (civil.Date, error) {
	if value == "" {
		return civil.Date{}, nil
	}
	return ParseDate(field, value)
}

// FormatDate renders d as YYYY-MM-DD, or "" for the zero Date.
func FormatDate(d civil.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
