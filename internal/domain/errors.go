package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is inactive")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTooManyAttempts    = errors.New("too many attempts, try again later")
	ErrOutOfStock         = errors.New("not enough stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrVoucherUnavailable = errors.New("voucher is not available")
	ErrOrderNotPending    = errors.New("order is no longer pending")
	ErrConflict           = errors.New("conflict")
)

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
