package models

import (
	"time"

	"github.com/golang-jwt/jwt"
)

type Role string

const (
	RoleExplorer Role = "explorer"
	RolePioneer  Role = "pioneer"
	RoleGuardian Role = "guardian"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleExplorer, RolePioneer, RoleGuardian, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether a user may pick the role at registration.
func (r Role) SelfAssignable() bool {
	return r == RoleExplorer || r == RolePioneer
}

// Satisfies reports whether a holder of r may use a route guarded by required.
// Admin satisfies every role.
func (r Role) Satisfies(required Role) bool {
	if !r.Valid() {
		return false
	}
	switch required {
	case "", RoleExplorer:
		return true
	case RolePioneer, RoleGuardian:
		return r == required || r == RoleAdmin
	case RoleAdmin:
		return r == RoleAdmin
	}
	return false
}

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
	ProviderPhone    = "phone"

	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

type UserProfile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Username      string     `json:"username"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	IsVerified    bool       `json:"is_verified"`
	Listings      []string   `json:"listings"`
	SavedListings []string   `json:"saved_listings"`
	Role          Role       `json:"role"`
	Provider      string     `json:"provider"`
	GoogleSubject string     `json:"-"`
	PasswordHash  string     `json:"-"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

func (u UserProfile) Disabled() bool {
	return u.Status == UserStatusDisabled
}

// AuthContext is what the client mirrors after every auth state change.
type AuthContext struct {
	UserID  string      `json:"user_id"`
	Profile UserProfile `json:"profile"`
	Role    Role        `json:"role"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.StandardClaims
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Session struct {
	UserID       string    `json:"user_id"`
	Role         Role      `json:"role"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName"`
	Phone           string `json:"phone"`
	SelectedRole    Role   `json:"selectedRole"`
	AgreeToTerms    bool   `json:"agreeToTerms"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

const (
	AuthModeLogin    = "login"
	AuthModeRegister = "register"
)

type GoogleSignInRequest struct {
	IDToken      string `json:"id_token"`
	Mode         string `json:"mode"`
	SelectedRole Role   `json:"selectedRole"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

type PhoneCodeRequest struct {
	Phone        string `json:"phone"`
	CaptchaToken string `json:"captcha_token"`
	Mode         string `json:"mode"`
	SelectedRole Role   `json:"selectedRole"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

type PhoneVerifyRequest struct {
	VerificationID string `json:"verification_id"`
	Code           string `json:"code"`
	FullName       string `json:"fullName"`
}

// PhoneVerification is the pending state behind a verification id.
type PhoneVerification struct {
	Phone        string `json:"phone"`
	CodeHash     string `json:"code_hash"`
	Mode         string `json:"mode"`
	SelectedRole Role   `json:"selected_role"`
}

type SignInResponse struct {
	Tokens
	Profile UserProfile `json:"profile"`
	Created bool        `json:"created"`
}

type ProfileUpdate struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Phone    *string `json:"phone"`
	Avatar   *string `json:"avatar"`
}

type RoleChangeRequest struct {
	Role Role `json:"role"`
}

type StatusChangeRequest struct {
	Status string `json:"status"`
}

// ExternalIdentity is a person vouched for by an outside provider.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Phone         string
	DisplayName   string
	PhotoURL      string
}
