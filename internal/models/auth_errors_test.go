package models

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewAuthErrorKnownCodes(t *testing.T) {
	tests := []struct {
		code    string
		status  int
		message string
	}{
		{CodePasswordsMismatch, http.StatusBadRequest, "Passwords do not match."},
		{CodeRoleNotAllowed, http.StatusForbidden, "Cannot register as a Guardian directly. Please contact support."},
		{CodeEmailAlreadyInUse, http.StatusConflict, "An account with this email already exists."},
		{CodeInvalidCredential, http.StatusUnauthorized, "Invalid email or password."},
		{CodeTooManyRequests, http.StatusTooManyRequests, "Too many requests. Please try again later."},
		{CodeCodeExpired, http.StatusGone, "The OTP has expired. Please request a new one."},
		{CodeMissingVerificationID, http.StatusBadRequest, "No OTP was sent. Please send OTP first."},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := NewAuthError(tt.code)
			if err.Status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, err.Status)
			}
			if err.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, err.Message)
			}
			if err.Error() != tt.code {
				t.Fatalf("expected error string %q, got %q", tt.code, err.Error())
			}
		})
	}
}

func TestEveryAuthCodeHasMessage(t *testing.T) {
	for code, info := range authErrors {
		if info.message == "" {
			t.Errorf("code %s has no message", code)
		}
		if info.status < 400 {
			t.Errorf("code %s has non-error status %d", code, info.status)
		}
	}
}

func TestNewAuthErrorUnknownCode(t *testing.T) {
	err := NewAuthError("auth/something-new")
	if err.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown code, got %d", err.Status)
	}
	if err.Message != "Authentication failed." {
		t.Fatalf("unexpected fallback message %q", err.Message)
	}
	if err.Code != "auth/something-new" {
		t.Fatalf("expected code to be kept, got %q", err.Code)
	}
}

func TestWrapAuthErrorKeepsCause(t *testing.T) {
	cause := errors.New("smtp down")
	err := WrapAuthError(CodeSMSDeliveryFailed, cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped error to unwrap to its cause")
	}
	var authErr *AuthError
	if !errors.As(error(err), &authErr) || authErr.Code != CodeSMSDeliveryFailed {
		t.Fatalf("expected AuthError with code %s", CodeSMSDeliveryFailed)
	}
	if AuthErrorMessage(CodeSMSDeliveryFailed) != "Failed to send OTP." {
		t.Fatalf("unexpected message %q", AuthErrorMessage(CodeSMSDeliveryFailed))
	}
}
