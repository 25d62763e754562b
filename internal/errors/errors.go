package errors

import (
	"errors"
	"fmt"
)

// Common error types for the MedAssist client
var (
	// Credential errors
	ErrNotFound            = errors.New("not found")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
	ErrInvalidPassphrase   = errors.New("invalid credential store passphrase")
	ErrUnsupportedBackend  = errors.New("unsupported credential store backend")
	ErrCorruptCredentials  = errors.New("credential file corrupt")
	ErrMissingKeyFile      = errors.New("credential key file missing")
	ErrEmptyCredentialName = errors.New("credential name is required")

	// Token errors
	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrRefreshRejected  = errors.New("refresh token rejected")
	ErrMalformedRefresh = errors.New("refresh response missing access token")
	ErrNotJWT           = errors.New("token is not a JWT")

	// Facade errors
	ErrUnknownOperation    = errors.New("unknown operation")
	ErrMissingParam        = errors.New("missing path parameter")
	ErrFiltersNotSupported = errors.New("operation does not accept filters")

	// General errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors, ignoring nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
