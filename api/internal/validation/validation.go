// Package validation wraps go-playground/validator with JSON field names and
// converts its errors into apperr.KindBadRequest errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskboard/api/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns nil or a KindBadRequest error listing every
// failing field.
func Struct(op string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.New(apperr.KindBadRequest, op, err)
	}
	msgs := make([]string, 0, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
		fields = append(fields, field(fe))
	}
	return apperr.New(apperr.KindBadRequest, op, errors.New(strings.Join(msgs, "; "))).
		WithDetail("fields", fields)
}

// field drops the root struct name from the namespace: "PosterRequest.theme.name" -> "theme.name".
func field(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	f := field(fe)
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s entries", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f, fe.Param())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color, got %q", f, fe.Value())
	case "len":
		return fmt.Sprintf("%s must have length %s", f, fe.Param())
	case "unique":
		return f + " must not contain duplicates"
	default:
		return fmt.Sprintf("%s failed %q", f, fe.Tag())
	}
}
