// Package service holds the business operations behind the three HTTP
// services. Handlers translate HTTP into calls here; everything returned
// is either a domain value or an *apperr.Error.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/repository"
)

// Meta is request context carried into audit events.
type Meta struct {
	IP        string
	UserAgent string
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID   string
	Username string
	Admin    bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError converts validator output into a validation_error naming
// the first offending field.
func ValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation("invalid_"+strings.ToLower(fe.Field()), describe(fe))
	}
	return apperr.Wrap(apperr.KindValidation, "invalid_request", "invalid request", err)
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "username":
		return "username must be 3-30 letters, digits or underscores and not a reserved name"
	case "strongpassword":
		return fmt.Sprintf("%s must be at least 8 characters with upper and lower case letters, a digit and a special character", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// internal wraps an unexpected store failure.
func internal(op string, err error) error {
	return apperr.Wrap(apperr.KindInternal, "internal_error", "internal server error", fmt.Errorf("%s: %w", op, err))
}

// notFoundOr maps repository.ErrNotFound to a NotFoundError.
func notFoundOr(op, what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return internal(op, err)
}

func codeOf(err error) string {
	if e, ok := apperr.As(err); ok {
		return e.Code
	}
	return ""
}
