package service

import (
	"errors"
	"fmt"
)

// Auth outcomes.  Handlers map them onto HTTP status codes.
var (
	ErrUserExists              = errors.New("user already exists")
	ErrCompanyNameExists       = errors.New("company name already exists")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidAdminCredentials = errors.New("invalid admin credentials")
	ErrAccountInactive         = errors.New("account is not active")
	ErrAccountDeleted          = errors.New("account has been deleted")
	ErrInvalidOTP              = errors.New("invalid or expired otp")
	ErrOTPDelivery             = errors.New("failed to send otp email")
	ErrNeedSignup              = errors.New("account not found, sign up first")
	ErrNeedOTPVerification     = errors.New("account not verified")
	ErrUnsupportedProvider     = errors.New("unsupported auth provider")
	ErrUnauthorized            = errors.New("invalid user or inactive account")
)

// ProviderMismatchError is returned when a password operation targets an
// account created through a social provider.
type ProviderMismatchError struct {
	Provider string
}

func (e *ProviderMismatchError) Error() string {
	return fmt.Sprintf("This account was created using %s. Please login with %s.", e.Provider, e.Provider)
}
