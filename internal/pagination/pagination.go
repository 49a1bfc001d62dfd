// Package pagination provides utilities around page tokens.
package pagination

import (
	"encoding/base64"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.yaml.in/yaml/v3"
)

var tokenEncoding = base64.RawURLEncoding

// TokenError is an opaque error related to pagination tokens. The error message
// does not reveal internal details; use [errors.Unwrap] to access the cause.
type TokenError struct {
	cause error
}

// Error satisfies [error].
func (terr TokenError) Error() string {
	return "invalid pagination token"
}

// Unwrap returns the underlying cause of the token error.
func (terr TokenError) Unwrap() error {
	return terr.cause
}

// Cursor is the state carried by a page token.
type Cursor interface {
	validation.Validatable
}

// FromToken decodes an opaque pagination token into the cursor pointed to by
// cur. Returns a [TokenError] if decoding or validation fails.
func FromToken(tkn string, cur Cursor) error {
	data, err := tokenEncoding.DecodeString(tkn)
	if err != nil {
		return TokenError{cause: err}
	}
	if err = yaml.Unmarshal(data, cur); err != nil {
		return TokenError{cause: err}
	}
	if err = cur.Validate(); err != nil {
		return TokenError{cause: err}
	}
	return nil
}

// ToToken encodes a cursor into an opaque pagination token. Returns a
// [TokenError] if validation or encoding fails.
func ToToken(cur Cursor) (string, error) {
	if err := cur.Validate(); err != nil {
		return "", TokenError{cause: err}
	}
	data, err := yaml.Marshal(cur)
	if err != nil {
		return "", TokenError{cause: err}
	}
	return tokenEncoding.EncodeToString(data), nil
}

// UsersCursor resumes a user listing ordered by email.
type UsersCursor struct {
	AfterEmail string `yaml:"after_email"`
}

// Validate satisfies [validation.Validatable].
func (c UsersCursor) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AfterEmail, validation.Required),
	)
}
