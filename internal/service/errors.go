package service

import (
	"errors"
	"fmt"
	"strings"

	"boutique-store/pkg/validator"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInventoryNotFound = errors.New("inventory not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOutOfStock        = errors.New("out of stock")
	ErrPriceMismatch     = errors.New("price mismatch")
)

// Kind is the machine-readable class of a failure.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindBusinessRule Kind = "business_rule"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// ValidationError is returned before any transaction is opened.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Fields: []string{fmt.Sprintf(format, args...)}}
}

func fromValidator(errs []*validator.ErrorResponse) error {
	if len(errs) == 0 {
		return nil
	}
	v := &ValidationError{}
	for _, e := range errs {
		v.Fields = append(v.Fields, e.Message())
	}
	return v
}

// KindOf classifies err for the transport layer.
func KindOf(err error) Kind {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrInventoryNotFound), errors.Is(err, ErrAdminNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrOutOfStock), errors.Is(err, ErrPriceMismatch):
		return KindBusinessRule
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
