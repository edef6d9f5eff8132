package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("already exists")
	// ErrForbidden indicates the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrTokenInvalid indicates a rejected bearer or refresh token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrInvalidInput indicates a payload that failed domain validation.
	ErrInvalidInput = errors.New("invalid input")
)
