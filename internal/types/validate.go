package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"hostly/internal/utils"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return utils.IsValidCurrency(fl.Field().String())
	})
	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		return utils.IsValidClockTime(fl.Field().String())
	})
	_ = v.RegisterValidation("tz", func(fl validator.FieldLevel) bool {
		return utils.IsValidTimezone(fl.Field().String())
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := utils.ParseDate(fl.Field().String())
		return err == nil
	})

	return v
}

// Validate checks struct tags and returns a validation KindError naming the
// first failing field.
func Validate(request any) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return Invalidf("invalid request")
	}

	return Invalidf("%s", describe(fieldErrors[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "currency":
		return field + " must be an ISO 4217 currency code"
	case "clocktime":
		return field + " must be a time in HH:MM format"
	case "tz":
		return field + " must be an IANA timezone"
	case "date":
		return field + " must be a date in YYYY-MM-DD format"
	default:
		return field + " is invalid"
	}
}
