package auth

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"smartbiz.ai/advisor/internal/store"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
	nonDigits      = regexp.MustCompile(`\D`)
)

const (
	msgName          = "Please enter a valid name (min 2 characters)"
	msgEmail         = "Please enter a valid email address"
	msgPhone         = "Please enter a valid 10-digit Indian phone number"
	msgPincode       = "Please enter a valid 6-digit pincode"
	msgPassword      = "Password must be at least 6 characters long"
	msgPasswordLong  = "Password must be at most 72 bytes long"
	msgMissingSignIn = "Please enter both email and password"
)

// SignUpRequest is the registration form. Field order decides which
// message is reported when several fields are invalid.
type SignUpRequest struct {
	Name     string `json:"name" validate:"person_name"`
	Email    string `json:"email" validate:"contact_email"`
	Phone    string `json:"phone" validate:"in_phone"`
	Pincode  string `json:"pincode" validate:"in_pincode"`
	Password string `json:"password" validate:"min=6,bcrypt_len"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidationError carries the first failing field's message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var fieldMessages = map[string]string{
	"Name":     msgName,
	"Email":    msgEmail,
	"Phone":    msgPhone,
	"Pincode":  msgPincode,
	"Password": msgPassword,
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for reserved tag names.
	_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= 2
	})
	_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("in_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(NormalizePhone(fl.Field().String()))
	})
	// bcrypt rejects passwords longer than 72 bytes.
	_ = v.RegisterValidation("bcrypt_len", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= 72
	})
	_ = v.RegisterValidation("in_pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// NormalizePhone drops every non-digit character.
func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

func (v *Validator) SignUp(req SignUpRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field := fieldErrs[0].StructField()
		if field == "Password" && fieldErrs[0].Tag() == "bcrypt_len" {
			return &ValidationError{Field: field, Message: msgPasswordLong}
		}
		return &ValidationError{Field: field, Message: fieldMessages[field]}
	}
	return err
}

func (v *Validator) SignIn(req SignInRequest) error {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return &ValidationError{Message: msgMissingSignIn}
	}
	return nil
}

// ProfileUpdate checks only the fields being changed.
func (v *Validator) ProfileUpdate(fields store.UserFields) error {
	checks := []struct {
		field string
		value *string
		tag   string
	}{
		{"Name", fields.DisplayName, "person_name"},
		{"Phone", fields.Phone, "in_phone"},
		{"Pincode", fields.Pincode, "in_pincode"},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if err := v.validate.Var(*c.value, c.tag); err != nil {
			return &ValidationError{Field: c.field, Message: fieldMessages[c.field]}
		}
	}
	return nil
}
