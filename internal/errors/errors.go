package errors

import (
	"errors"
	"fmt"
)

// Common error types for the campaign tracker client
var (
	// Authentication errors
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrMissingCredentials    = errors.New("username and password are required")
	ErrMalformedAuthResponse = errors.New("malformed auth response")
	ErrNotAuthenticated      = errors.New("not authenticated")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Feature errors
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidDay    = errors.New("day must be a valid number")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidConfig  = errors.New("invalid configuration")
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
