package models

import (
	"fmt"
	"net/http"
)

const (
	CodePasswordsMismatch       = "auth/passwords-mismatch"
	CodeWeakPassword            = "auth/weak-password"
	CodeTermsNotAccepted        = "auth/terms-not-accepted"
	CodeRoleNotAllowed          = "auth/role-not-allowed"
	CodeMissingEmail            = "auth/missing-email"
	CodeInvalidEmail            = "auth/invalid-email"
	CodeEmailAlreadyInUse       = "auth/email-already-in-use"
	CodePhoneAlreadyInUse       = "auth/phone-already-in-use"
	CodeInvalidCredential       = "auth/invalid-credential"
	CodeUserDisabled            = "auth/user-disabled"
	CodeAccountExistsDifferent  = "auth/account-exists-with-different-credential"
	CodeInvalidIDToken          = "auth/invalid-id-token"
	CodeMissingPhoneNumber      = "auth/missing-phone-number"
	CodeInvalidPhoneNumber      = "auth/invalid-phone-number"
	CodeTooManyRequests         = "auth/too-many-requests"
	CodeQuotaExceeded           = "auth/quota-exceeded"
	CodeCaptchaCheckFailed      = "auth/captcha-check-failed"
	CodeMissingVerificationID   = "auth/missing-verification-id"
	CodeMissingCode             = "auth/missing-code"
	CodeInvalidVerificationCode = "auth/invalid-verification-code"
	CodeCodeExpired             = "auth/code-expired"
	CodeInvalidRefreshToken     = "auth/invalid-refresh-token"
	CodeSessionExpired          = "auth/session-expired"
	CodeUnauthenticated         = "auth/unauthenticated"
	CodeInsufficientPermission  = "auth/insufficient-permission"
	CodeProviderUnavailable     = "auth/provider-unavailable"
	CodeSMSDeliveryFailed       = "auth/sms-delivery-failed"
	CodeRegistrationFailed      = "auth/registration-failed"
)

type authErrorInfo struct {
	message string
	status  int
}

var authErrors = map[string]authErrorInfo{
	CodePasswordsMismatch:       {"Passwords do not match.", http.StatusBadRequest},
	CodeWeakPassword:            {"Password must be at least 8 characters long.", http.StatusBadRequest},
	CodeTermsNotAccepted:        {"You must agree to the Terms of Service and Privacy Policy.", http.StatusBadRequest},
	CodeRoleNotAllowed:          {"Cannot register as a Guardian directly. Please contact support.", http.StatusForbidden},
	CodeMissingEmail:            {"Please enter your email address.", http.StatusBadRequest},
	CodeInvalidEmail:            {"Please enter a valid email address.", http.StatusBadRequest},
	CodeEmailAlreadyInUse:       {"An account with this email already exists.", http.StatusConflict},
	CodePhoneAlreadyInUse:       {"An account with this phone number already exists.", http.StatusConflict},
	CodeInvalidCredential:       {"Invalid email or password.", http.StatusUnauthorized},
	CodeUserDisabled:            {"This user account has been disabled.", http.StatusForbidden},
	CodeAccountExistsDifferent:  {"An account with this email already exists using different sign-in methods (e.g., email/password). Try logging in with the existing method or linking accounts.", http.StatusConflict},
	CodeInvalidIDToken:          {"Google sign-in could not be verified. Please try again.", http.StatusUnauthorized},
	CodeMissingPhoneNumber:      {"Please enter your phone number.", http.StatusBadRequest},
	CodeInvalidPhoneNumber:      {"Invalid phone number format. Please include country code (e.g., +2376xxxxxxxxx).", http.StatusBadRequest},
	CodeTooManyRequests:         {"Too many requests. Please try again later.", http.StatusTooManyRequests},
	CodeQuotaExceeded:           {"SMS quota exceeded. Please try again later.", http.StatusTooManyRequests},
	CodeCaptchaCheckFailed:      {"reCAPTCHA verification failed. Please try again.", http.StatusBadRequest},
	CodeMissingVerificationID:   {"No OTP was sent. Please send OTP first.", http.StatusBadRequest},
	CodeMissingCode:             {"Please enter the OTP.", http.StatusBadRequest},
	CodeInvalidVerificationCode: {"Invalid OTP. Please check the code and try again.", http.StatusUnauthorized},
	CodeCodeExpired:             {"The OTP has expired. Please request a new one.", http.StatusGone},
	CodeInvalidRefreshToken:     {"Invalid refresh token.", http.StatusUnauthorized},
	CodeSessionExpired:          {"Your session has expired. Please sign in again.", http.StatusUnauthorized},
	CodeUnauthenticated:         {"Authorization header missing or invalid.", http.StatusUnauthorized},
	CodeInsufficientPermission:  {"You do not have permission to perform this action.", http.StatusForbidden},
	CodeProviderUnavailable:     {"This sign-in method is not available right now.", http.StatusServiceUnavailable},
	CodeSMSDeliveryFailed:       {"Failed to send OTP.", http.StatusBadGateway},
	CodeRegistrationFailed:      {"Registration failed. Please try again.", http.StatusInternalServerError},
}

// AuthError is an auth failure the client can show as-is.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError builds the error for code. Unknown codes become a 400 with a generic message.
func NewAuthError(code string) *AuthError {
	info, ok := authErrors[code]
	if !ok {
		return &AuthError{Code: code, Message: "Authentication failed.", Status: http.StatusBadRequest}
	}
	return &AuthError{Code: code, Message: info.message, Status: info.status}
}

// WrapAuthError keeps the underlying cause for logs.
func WrapAuthError(code string, err error) *AuthError {
	e := NewAuthError(code)
	e.Err = err
	return e
}

// AuthErrorMessage returns the display message for code.
func AuthErrorMessage(code string) string {
	return NewAuthError(code).Message
}
