package auth

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeUserNotFound    ErrorCode = "user-not-found"
	CodeWrongPassword   ErrorCode = "wrong-password"
	CodeInvalidEmail    ErrorCode = "invalid-email"
	CodeEmailInUse      ErrorCode = "email-already-in-use"
	CodeWeakPassword    ErrorCode = "weak-password"
	CodeNetworkFailed   ErrorCode = "network-request-failed"
	CodeTooManyRequests ErrorCode = "too-many-requests"
	CodeInvalidToken    ErrorCode = "invalid-token"
	CodeProfileMissing  ErrorCode = "profile-missing"
)

const genericFriendlyMessage = "Something went wrong. Please try again."

var friendlyMessages = map[ErrorCode]string{
	CodeUserNotFound:    "No account found with this email. Please sign up first.",
	CodeWrongPassword:   "Incorrect password. Please try again.",
	CodeInvalidEmail:    "Please enter a valid email address.",
	CodeEmailInUse:      "This email is already registered. Please sign in instead.",
	CodeWeakPassword:    "Password is too weak. Please use a stronger password.",
	CodeNetworkFailed:   "Network error. Please check your internet connection.",
	CodeTooManyRequests: "Too many attempts. Please try again later.",
	CodeInvalidToken:    "Your session has ended. Please sign in again.",
	CodeProfileMissing:  "Account not found. Please register first.",
}

type AuthError struct {
	Code ErrorCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth/%s: %v", e.Code, e.Err)
	}
	return "auth/" + string(e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }

func newAuthError(code ErrorCode, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}

// FriendlyMessage maps an error to the message shown to the user.
// Validation errors carry their own message; unknown errors get a generic one.
func FriendlyMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var aerr *AuthError
	if errors.As(err, &aerr) {
		if msg, ok := friendlyMessages[aerr.Code]; ok {
			return msg
		}
	}
	return genericFriendlyMessage
}
