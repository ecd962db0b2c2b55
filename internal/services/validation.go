package services

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"trusthaven/internal/models"
)

const minPasswordLength = 8

var e164Pattern = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// ValidPhone reports whether phone is in E.164 form, e.g. +237612345678.
func ValidPhone(phone string) bool {
	return e164Pattern.MatchString(phone)
}

func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateRegistrationChoice checks the terms box, then the requested role.
func validateRegistrationChoice(agreeToTerms bool, role models.Role) error {
	if !agreeToTerms {
		return models.NewAuthError(models.CodeTermsNotAccepted)
	}
	if role != "" && !role.SelfAssignable() {
		return models.NewAuthError(models.CodeRoleNotAllowed)
	}
	return nil
}

// ValidateSignUp checks a registration form. The first failing rule wins.
func ValidateSignUp(req models.SignUpRequest) error {
	if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		return models.NewAuthError(models.CodePasswordsMismatch)
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return models.NewAuthError(models.CodeWeakPassword)
	}
	if err := validateRegistrationChoice(req.AgreeToTerms, req.SelectedRole); err != nil {
		return err
	}

	email := normalizeEmail(req.Email)
	if email == "" {
		return models.NewAuthError(models.CodeMissingEmail)
	}
	if !ValidEmail(email) {
		return models.NewAuthError(models.CodeInvalidEmail)
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" && !ValidPhone(phone) {
		return models.NewAuthError(models.CodeInvalidPhoneNumber)
	}
	return nil
}

// defaultUsername picks the first usable of display name, email local part and phone.
func defaultUsername(displayName, email, phone string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if phone != "" {
		return phone
	}
	return "New User"
}
