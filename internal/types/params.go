package types

import (
	"strings"
	"time"

	"hostly/internal/utils"

	"github.com/google/uuid"
)

// ParseOptionalUUID returns nil for an empty value and a validation error
// naming field for a malformed one.
func ParseOptionalUUID(value, field string) (*uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, Invalidf("%s must be a valid id", field)
	}
	return &id, nil
}

func ParseOptionalDate(value, field string) (*time.Time, error) {
	date, err := utils.ParseOptionalDate(value)
	if err != nil {
		return nil, Invalidf("%s must be a date in YYYY-MM-DD format", field)
	}
	return date, nil
}

func ParseDate(value, field string) (time.Time, error) {
	date, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, Invalidf("%s must be a date in YYYY-MM-DD format", field)
	}
	return date, nil
}
