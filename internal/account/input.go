package account

import (
	"errors"
	"html"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/microcosm-cc/bluemonday"

	"github.com/stolasapp/turnstile/internal/sec"
)

// Field length limits.
const (
	maxEmailLen = 254
	maxNameLen  = 200
)

var markupPolicy = bluemonday.StrictPolicy()

// Registration is the input to [Service.Register].
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Validate satisfies [validation.Validatable].
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		emailField(&r.Email),
		passwordField(&r.Password),
		validation.Field(&r.FirstName, nameRules()...),
		validation.Field(&r.LastName, nameRules()...),
	)
}

func (r Registration) normalize() Registration {
	r.Email = normalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	return r
}

// Credentials is an email and password pair, used to sign in and to replace a
// user's credentials.
type Credentials struct {
	Email    string
	Password string
}

// Validate satisfies [validation.Validatable]. It applies the same rules as
// registration.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		emailField(&c.Email),
		passwordField(&c.Password),
	)
}

// validatePresent only checks that both fields are set.
func (c Credentials) validatePresent() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

func (c Credentials) normalize() Credentials {
	c.Email = normalizeEmail(c.Email)
	return c
}

// normalizeEmail makes email comparisons case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailField(email *string) *validation.FieldRules {
	return validation.Field(email,
		validation.Required,
		validation.Length(3, maxEmailLen), //nolint:mnd // a@b
		is.Email,
	)
}

func passwordField(password *string) *validation.FieldRules {
	return validation.Field(password,
		validation.Required,
		validation.By(maxBytes(sec.MaxPasswordBytes)),
	)
}

func nameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.RuneLength(1, maxNameLen),
		validation.By(noMarkup),
	}
}

func maxBytes(limit int) validation.RuleFunc {
	return func(value interface{}) error {
		if str, _ := value.(string); len(str) > limit {
			return sec.ErrPasswordTooLong
		}
		return nil
	}
}

// noMarkup rejects values that an HTML sanitizer would alter beyond escaping.
func noMarkup(value interface{}) error {
	str, _ := value.(string)
	if html.UnescapeString(markupPolicy.Sanitize(str)) != str {
		return errors.New("must not contain markup")
	}
	return nil
}
