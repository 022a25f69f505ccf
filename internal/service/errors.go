package service

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering with an email that already
	// belongs to an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTitleTaken is returned when a post title collides with an existing
	// post.
	ErrTitleTaken = errors.New("title already in use")
	// ErrForbidden is returned when the acting identity is not allowed to
	// perform the operation. It is also the fallback for any failure while
	// deciding, so an error can never turn into an allow.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports malformed or missing input, detected before the
// store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
