package snapshot

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/normalize"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report snapshot field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "hastext", hasText)
	mustRegister(v, "enum", validEnum)
	mustRegister(v, "timestamp", validTimestamp)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// hasText rejects text that normalizes to nothing, such as "?!".
func hasText(fl validator.FieldLevel) bool {
	return normalize.String(fl.Field().String()) != ""
}

// validEnum accepts values whose type reports them valid.
func validEnum(fl validator.FieldLevel) bool {
	if e, ok := fl.Field().Interface().(interface{ Valid() bool }); ok {
		return e.Valid()
	}
	return false
}

func validTimestamp(fl validator.FieldLevel) bool {
	_, err := parseTime(fl.Field().String())
	return err == nil
}

// parseTime parses an RFC 3339 timestamp, with or without fractional seconds.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// validateRecord checks rec and returns the first failure as a ValidationError.
func validateRecord(kind, id string, rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return errors.NewRecordValidationError(kind, id, "", err.Error())
	}
	fe := fieldErrs[0]
	return errors.NewRecordValidationError(kind, id, fe.Field(), describe(fe))
}

// describe formats a single field validation error
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "is required"
	case "hastext":
		return "must contain letters or digits"
	case "enum":
		return fmt.Sprintf("unknown value %q", fe.Value())
	case "timestamp":
		return fmt.Sprintf("%q is not an RFC 3339 timestamp", fe.Value())
	case "gte", "lte":
		return "must be within [0, 1]"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
