package dto

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9]{8,256}$`)

// Validator checks request DTOs against their validate tags.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with the custom "password" rule
// registered and JSON names used in error messages.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordPattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate returns nil or an error describing every failing field.
// Rejected values are never echoed back.
func (val *Validator) Validate(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", fe.Field())
	case "hostname", "hostname_rfc1123":
		return fmt.Sprintf("%s: must be a valid host name", fe.Field())
	case "password":
		return fmt.Sprintf("%s: must be 8 to 256 latin letters or digits", fe.Field())
	case "max":
		return fmt.Sprintf("%s: maximum length is %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be %s or greater", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s check", fe.Field(), fe.Tag())
	}
}
