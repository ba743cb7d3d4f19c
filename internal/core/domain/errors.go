package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrIDMismatch   = errors.New("body id does not match path id")
)

// Authentication and token errors. ErrTokenMalformed and ErrTokenBadSignature
// both satisfy errors.Is(err, ErrTokenInvalid).
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenMalformed     = fmt.Errorf("malformed token: %w", ErrTokenInvalid)
	ErrTokenBadSignature  = fmt.Errorf("bad token signature: %w", ErrTokenInvalid)
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
)

var (
	ErrInvalidDateRange = errors.New("endDate cannot be before startDate")
	ErrInvalidQuery     = errors.New("invalid query")
)

// Import errors.
var (
	ErrEmptyUpload       = errors.New("empty upload")
	ErrCSVParse          = errors.New("csv parsing failed")
	ErrImportRow         = errors.New("csv row rejected")
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidID         = errors.New("invalid id")
	ErrMissingColumn     = errors.New("missing column")
)
