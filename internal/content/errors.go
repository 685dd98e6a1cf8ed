package content

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeNotFound   = "POST_NOT_FOUND"
	textCodeValidation = "POST_VALIDATION_FAILED"
)

// ErrNotFound reports an unknown id or slug. It is a distinct outcome,
// never a server failure.
var ErrNotFound = goerrors.New("post not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeNotFound)

func wrapValidationError(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithTextCode(textCodeValidation)
}

// IsNotFound reports whether err is a not-found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || goerrors.IsCategory(err, goerrors.CategoryNotFound)
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation)
}

// FieldErrors extracts the per-field validation messages from err, or nil.
func FieldErrors(err error) validation.Errors {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs
	}
	return nil
}

// FieldNames returns the sorted names of the fields that failed validation.
func FieldNames(err error) []string {
	return fieldNames(err, func(error) bool { return true })
}

// MissingFields returns the sorted names of the fields rejected for being blank.
func MissingFields(err error) []string {
	return fieldNames(err, func(fieldErr error) bool {
		var verr validation.Error
		if !errors.As(fieldErr, &verr) {
			return false
		}
		switch verr.Code() {
		case validation.ErrRequired.Code(), validation.ErrNilOrNotEmpty.Code():
			return true
		}
		return false
	})
}

func fieldNames(err error, keep func(error) bool) []string {
	verrs := FieldErrors(err)
	names := make([]string, 0, len(verrs))
	for name, fieldErr := range verrs {
		if keep(fieldErr) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
