package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate = errors.New("invalid date")
	clockTimeRe    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	currencyRe     = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns midnight UTC of that day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}

	if t, err := time.Parse(DateLayout, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ParseOptionalDate returns nil for an empty value.
func ParseOptionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func IsValidClockTime(value string) bool {
	return clockTimeRe.MatchString(value)
}

func IsValidCurrency(value string) bool {
	return currencyRe.MatchString(value)
}

func IsValidTimezone(value string) bool {
	if value == "" {
		return false
	}
	_, err := time.LoadLocation(value)
	return err == nil
}
