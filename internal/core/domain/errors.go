package domain

import "errors"

// Error kinds. Every error returned by a service unwraps to exactly one of
// these so the transport layer can map it without knowing the details.
var (
	ErrValidation  = errors.New("validation failed")
	ErrAuth        = errors.New("authentication failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
)

var (
	ErrInvalidCredentials = newKindError(ErrAuth, "invalid credentials")
	ErrMissingToken       = newKindError(ErrAuth, "missing token")
	ErrInvalidToken       = newKindError(ErrAuth, "invalid token")
	ErrForbidden          = errors.New("access forbidden")

	ErrUserNotFound    = newKindError(ErrNotFound, "user not found")
	ErrProductNotFound = newKindError(ErrNotFound, "product not found")
	ErrCartNotFound    = newKindError(ErrNotFound, "cart not found")
	ErrItemNotFound    = newKindError(ErrNotFound, "item not found in cart")

	ErrUserExists   = newKindError(ErrPersistence, "user already exists")
	ErrCartConflict = newKindError(ErrPersistence, "cart modified concurrently")
)

type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) *kindError {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// Invalid returns a validation error carrying msg as its client-facing message.
func Invalid(msg string) error {
	return newKindError(ErrValidation, msg)
}
