// Package contact validates and stores messages sent through the contact form.
package contact

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Result codes returned to the client.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeRateLimit  = "RATE_LIMIT_ERROR"
	CodeUnknown    = "UNKNOWN_ERROR"
)

// Form is the submitted contact form.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace from every field.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
}

// Validate checks field presence and length (in characters).
func (f Form) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.RuneLength(2, 50)),
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Subject, validation.Required, validation.RuneLength(5, 100)),
		validation.Field(&f.Message, validation.Required, validation.RuneLength(10, 1000)),
	)
}
