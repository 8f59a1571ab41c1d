package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name     string  `json:"name"               validate:"required"`
	Currency string  `json:"currency,omitempty" validate:"omitempty,currency"`
	Time     string  `json:"checkInTime"        validate:"omitempty,clocktime"`
	Timezone *string `json:"timezone"           validate:"omitempty,tz"`
	Date     string  `json:"checkIn"            validate:"omitempty,date"`
	Guests   int     `json:"numGuests"          validate:"omitempty,min=1"`
}

func TestValidate(t *testing.T) {
	badZone := "Mars/Olympus"

	tests := []struct {
		name    string
		request sampleRequest
		message string
	}{
		{name: "valid", request: sampleRequest{Name: "Loft", Currency: "EUR", Time: "15:00", Date: "2026-06-01"}},
		{name: "missing name", request: sampleRequest{}, message: "name is required"},
		{
			name:    "bad currency",
			request: sampleRequest{Name: "Loft", Currency: "eur"},
			message: "currency must be an ISO 4217 currency code",
		},
		{
			name:    "bad clock time",
			request: sampleRequest{Name: "Loft", Time: "25:00"},
			message: "checkInTime must be a time in HH:MM format",
		},
		{
			name:    "bad timezone",
			request: sampleRequest{Name: "Loft", Timezone: &badZone},
			message: "timezone must be an IANA timezone",
		},
		{
			name:    "bad date",
			request: sampleRequest{Name: "Loft", Date: "06/01/2026"},
			message: "checkIn must be a date in YYYY-MM-DD format",
		},
		{
			name:    "guest count",
			request: sampleRequest{Name: "Loft", Guests: -1},
			message: "numGuests must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.request)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestKindErrors(t *testing.T) {
	wrapped := fmt.Errorf("loading booking: %w", NotFound("booking not found"))

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrConflict)
	assert.Equal(t, "booking not found", PublicMessage(wrapped, "fallback"))
	assert.Equal(t, "fallback", PublicMessage(errors.New("db down"), "fallback"))
	assert.ErrorIs(t, Gone("expired"), ErrGone)
	assert.ErrorIs(t, Conflict("overlap"), ErrConflict)
}

func TestParseParams(t *testing.T) {
	id, err := ParseOptionalUUID("", "propertyId")
	assert.NoError(t, err)
	assert.Nil(t, id)

	_, err = ParseOptionalUUID("nope", "propertyId")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "propertyId must be a valid id", err.Error())

	date, err := ParseOptionalDate("2026-06-01", "from")
	require.NoError(t, err)
	assert.Equal(t, 2026, date.Year())

	_, err = ParseDate("", "checkIn")
	assert.ErrorIs(t, err, ErrValidation)
}
