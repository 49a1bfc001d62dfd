// Package sec provides authentication and security primitives for the web
// application.
//
// # Authentication
//
// Callers authenticate with an opaque session token carried in a cookie. The
// token maps to a server-side session row; [Resolve] turns it into an
// [Identity] which is attached to the request context with
// [SetAuthenticatedUser]. Resolution never fails a request: unknown, revoked
// or missing tokens all leave the caller anonymous.
//
// # Components
//
//   - [Hasher], [HashPassword], [ComparePassword]: bcrypt password hashing
//   - [NewToken]: session token generation
//   - [Resolve]: maps a session token to its owner
//   - [GetAuthenticatedUser], [SetAuthenticatedUser]: context accessors
package sec

// Error is an error type returned by the sec package.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// ErrPasswordTooLong is returned when a password exceeds [MaxPasswordBytes].
const ErrPasswordTooLong Error = "password must not exceed 72 bytes"
