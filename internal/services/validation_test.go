package services

import (
	"testing"

	"trusthaven/internal/models"
)

func TestValidateSignUpRuleOrder(t *testing.T) {
	base := models.SignUpRequest{
		Email:           "ada@example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
		SelectedRole:    models.RoleExplorer,
		AgreeToTerms:    true,
	}

	tests := []struct {
		name   string
		change func(*models.SignUpRequest)
		code   string
	}{
		{"mismatch beats weak", func(r *models.SignUpRequest) { r.Password = "short"; r.ConfirmPassword = "other" }, models.CodePasswordsMismatch},
		{"weak password", func(r *models.SignUpRequest) { r.Password = "short"; r.ConfirmPassword = "short" }, models.CodeWeakPassword},
		{"weak multibyte password", func(r *models.SignUpRequest) { r.Password = "日本語ab"; r.ConfirmPassword = "日本語ab" }, models.CodeWeakPassword},
		{"terms before role", func(r *models.SignUpRequest) { r.AgreeToTerms = false; r.SelectedRole = models.RoleGuardian }, models.CodeTermsNotAccepted},
		{"guardian not allowed", func(r *models.SignUpRequest) { r.SelectedRole = models.RoleGuardian }, models.CodeRoleNotAllowed},
		{"missing email", func(r *models.SignUpRequest) { r.Email = "  " }, models.CodeMissingEmail},
		{"invalid email", func(r *models.SignUpRequest) { r.Email = "ada@example" }, models.CodeInvalidEmail},
		{"invalid phone", func(r *models.SignUpRequest) { r.Phone = "0612" }, models.CodeInvalidPhoneNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.change(&req)
			if code := authCode(t, ValidateSignUp(req)); code != tt.code {
				t.Fatalf("expected %s, got %s", tt.code, code)
			}
		})
	}

	if err := ValidateSignUp(base); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	wide := base
	wide.Password, wide.ConfirmPassword = "日本語のパスワード", "日本語のパスワード"
	if err := ValidateSignUp(wide); err != nil {
		t.Fatalf("expected 9-character password to be accepted, got %v", err)
	}
	noConfirm := base
	noConfirm.ConfirmPassword = ""
	if err := ValidateSignUp(noConfirm); err != nil {
		t.Fatalf("expected missing confirmation to be accepted, got %v", err)
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"+237612345678", "+14155550123", "+33612345678"}
	invalid := []string{"237612345678", "+0612345678", "+23761234567890123", "+2376-1234", ""}
	for _, p := range valid {
		if !ValidPhone(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	for _, p := range invalid {
		if ValidPhone(p) {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}

func TestValidEmail(t *testing.T) {
	if !ValidEmail("ada@example.com") {
		t.Fatal("expected plain address to be valid")
	}
	for _, e := range []string{"Ada <ada@example.com>", "ada@localhost", "ada", "@example.com"} {
		if ValidEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestDefaultUsername(t *testing.T) {
	tests := []struct {
		name, email, phone, want string
	}{
		{" Ada ", "ada@example.com", "", "Ada"},
		{"", "ada@example.com", "+237612345678", "ada"},
		{"", "", "+237612345678", "+237612345678"},
		{"", "", "", "New User"},
	}
	for _, tt := range tests {
		if got := defaultUsername(tt.name, tt.email, tt.phone); got != tt.want {
			t.Errorf("defaultUsername(%q, %q, %q) = %q, want %q", tt.name, tt.email, tt.phone, got, tt.want)
		}
	}
}
