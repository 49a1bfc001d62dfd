package account

const (
	// ErrConflict is returned when the email is already registered to another
	// user.
	ErrConflict Error = "email already registered"
	// ErrAuthentication is returned when sign in fails. It does not reveal
	// whether the email or the password was wrong.
	ErrAuthentication Error = "invalid email or password"
)

// Error is an error type returned by the account service.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// ValidationError is returned when the caller's input is missing or malformed.
// The message lists the offending fields.
type ValidationError struct {
	cause error
}

// Error satisfies [error].
func (verr ValidationError) Error() string {
	return "invalid input: " + verr.cause.Error()
}

// Unwrap returns the underlying validation failure.
func (verr ValidationError) Unwrap() error {
	return verr.cause
}

// StoreError is an opaque error wrapping a persistence failure. The error
// message does not reveal internal details; use [errors.Unwrap] to access the
// cause.
type StoreError struct {
	cause error
}

// Error satisfies [error].
func (serr StoreError) Error() string {
	return "account store failure"
}

// Unwrap returns the underlying storage error.
func (serr StoreError) Unwrap() error {
	return serr.cause
}
