package dto

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"omnicore-pos/internal/apperr"
)

// NewValidator returns a validator that reports fields by their json names.
func NewValidator() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// AsValidationError converts validator output into the field-level structure
// returned to API callers. Non-validator errors pass through unchanged.
func AsValidationError(err error) error {
	verrs, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		return err
	}

	fields := make([]apperr.FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = apperr.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: messageFor(fe),
		}
	}
	return &apperr.ValidationError{Fields: fields}
}

// fieldPath strips the root struct name: "CreateOrderRequest.items[0].quantity"
// becomes "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func messageFor(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid uuid"
	case "min":
		return "must be at least " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
