// Package validators configures request validation for the HTTP API.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	appErr "github.com/recipebook/api/pkg/errors"
)

// maxPrice is the first value that no longer fits numeric(5,2).
var maxPrice = decimal.NewFromInt(1000)

// New returns a validator that reports fields by their JSON names and
// understands decimal prices.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("money", validateMoney)
	return v
}

// validateMoney accepts 0 <= x < 1000 with at most two decimal places.
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	if d.IsNegative() || d.GreaterThanOrEqual(maxPrice) {
		return false
	}
	return d.Round(2).Equal(d)
}

// Struct validates s and converts failures into an invalid AppError with one
// message per field.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return appErr.Wrap(err, appErr.CodeInvalid, "validation failed")
	}
	out := appErr.New(appErr.CodeInvalid, "validation failed")
	for _, fe := range ve {
		out.WithField(fieldPath(fe), message(fe))
	}
	return out
}

// fieldPath drops the root struct name: "RecipeWriteRequest.tags[0].name"
// becomes "tags[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "money":
		return "Ensure this value is between 0 and 999.99 with no more than 2 decimal places."
	default:
		return "Invalid value."
	}
}
