package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"trusthaven/internal/models"
	"trusthaven/utils"
)

type AuthConfig struct {
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	RememberTTL    time.Duration
	OTPTTL         time.Duration
	OTPMaxAttempts int
	OTPSendLimit   int
	OTPSendWindow  time.Duration
	OTPDailyQuota  int
}

// AuthService runs every sign-in method and issues the tokens that follow.
// Identity, Mirror, Google and Captcha are optional.
type AuthService struct {
	Users    UserStore
	Sessions SessionStore
	OTP      VerificationStore
	Tokens   *utils.Manager
	Identity IdentityProvider
	Mirror   ProfileMirror
	Google   GoogleVerifier
	SMS      SMSSender
	Captcha  CaptchaVerifier
	Logger   Logger
	Config   AuthConfig

	clock func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}

// SignUp registers an email/password account. It does not sign the user in.
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (models.UserProfile, error) {
	if err := ValidateSignUp(req); err != nil {
		return models.UserProfile{}, err
	}

	email := normalizeEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)
	if _, err := s.Users.GetUserByEmail(ctx, email); err == nil {
		return models.UserProfile{}, models.NewAuthError(models.CodeEmailAlreadyInUse)
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return models.UserProfile{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.UserProfile{}, err
	}

	role := req.SelectedRole
	if role == "" {
		role = models.RoleExplorer
	}
	user := models.UserProfile{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.FullName),
		Username:     defaultUsername(req.FullName, email, phone),
		Email:        email,
		Phone:        phone,
		Role:         role,
		Provider:     models.ProviderPassword,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
	}

	if s.Identity != nil {
		if err := s.Identity.CreateUser(ctx, user, req.Password); err != nil {
			return models.UserProfile{}, asAuthError(err, models.CodeRegistrationFailed)
		}
	}

	created, err := s.Users.CreateUser(ctx, user)
	if err != nil {
		if s.Identity != nil {
			if delErr := s.Identity.DeleteUser(ctx, user.ID); delErr != nil {
				s.Logger.Errorf("identity provider: roll back %s: %v", user.ID, delErr)
			}
		}
		return models.UserProfile{}, userWriteError(err)
	}
	s.mirror(ctx, created)
	return created, nil
}

func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (models.SignInResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return models.SignInResponse{}, models.NewAuthError(models.CodeMissingEmail)
	}
	if req.Password == "" {
		return models.SignInResponse{}, models.NewAuthError(models.CodeInvalidCredential)
	}

	user, err := s.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return models.SignInResponse{}, models.NewAuthError(models.CodeInvalidCredential)
	}
	if err != nil {
		return models.SignInResponse{}, err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return models.SignInResponse{}, models.NewAuthError(models.CodeInvalidCredential)
	}
	if user.Disabled() {
		return models.SignInResponse{}, models.NewAuthError(models.CodeUserDisabled)
	}

	now := s.now().UTC()
	if err := s.Users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return models.SignInResponse{}, err
	}
	user.LastLoginAt = &now

	tokens, err := s.issueTokens(ctx, user, req.Remember)
	if err != nil {
		return models.SignInResponse{}, err
	}
	return models.SignInResponse{Tokens: tokens, Profile: user}, nil
}

func (s *AuthService) GoogleSignIn(ctx context.Context, req models.GoogleSignInRequest) (models.SignInResponse, error) {
	if s.Google == nil {
		return models.SignInResponse{}, models.NewAuthError(models.CodeProviderUnavailable)
	}
	if strings.TrimSpace(req.IDToken) == "" {
		return models.SignInResponse{}, models.NewAuthError(models.CodeInvalidIDToken)
	}
	if req.Mode == models.AuthModeRegister {
		if err := validateRegistrationChoice(req.AgreeToTerms, req.SelectedRole); err != nil {
			return models.SignInResponse{}, err
		}
	}

	identity, err := s.Google.Verify(ctx, req.IDToken)
	if err != nil {
		return models.SignInResponse{}, asAuthError(err, models.CodeInvalidIDToken)
	}
	identity.Email = normalizeEmail(identity.Email)

	existing, err := s.findGoogleUser(ctx, identity)
	if err != nil {
		return models.SignInResponse{}, err
	}

	user, created, err := s.createOrMerge(ctx, existing, identity, req.SelectedRole)
	if err != nil {
		return models.SignInResponse{}, err
	}
	tokens, err := s.issueTokens(ctx, user, false)
	if err != nil {
		return models.SignInResponse{}, err
	}
	return models.SignInResponse{Tokens: tokens, Profile: user, Created: created}, nil
}

func (s *AuthService) findGoogleUser(ctx context.Context, identity models.ExternalIdentity) (*models.UserProfile, error) {
	user, err := s.Users.GetUserByGoogleSubject(ctx, identity.Subject)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}
	if identity.Email == "" {
		return nil, nil
	}

	user, err = s.Users.GetUserByEmail(ctx, identity.Email)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Provider == models.ProviderPassword && user.GoogleSubject != identity.Subject {
		return nil, models.NewAuthError(models.CodeAccountExistsDifferent)
	}
	return &user, nil
}

// SendPhoneCode texts a one-time code to phone and returns the verification id.
func (s *AuthService) SendPhoneCode(ctx context.Context, req models.PhoneCodeRequest, remoteIP string) (string, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return "", models.NewAuthError(models.CodeMissingPhoneNumber)
	}
	if !ValidPhone(phone) {
		return "", models.NewAuthError(models.CodeInvalidPhoneNumber)
	}
	if req.Mode == models.AuthModeRegister {
		if err := validateRegistrationChoice(req.AgreeToTerms, req.SelectedRole); err != nil {
			return "", err
		}
	}
	if s.Captcha != nil {
		if err := s.Captcha.Verify(ctx, req.CaptchaToken, remoteIP); err != nil {
			return "", asAuthError(err, models.CodeCaptchaCheckFailed)
		}
	}

	sends, err := s.OTP.CountSend(ctx, phone, s.Config.OTPSendWindow)
	if err != nil {
		return "", err
	}
	if sends > int64(s.Config.OTPSendLimit) {
		return "", models.NewAuthError(models.CodeTooManyRequests)
	}
	daily, err := s.OTP.CountDaily(ctx, s.now())
	if err != nil {
		return "", err
	}
	if daily > int64(s.Config.OTPDailyQuota) {
		return "", models.NewAuthError(models.CodeQuotaExceeded)
	}

	code, err := generateOTP()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	verification := models.PhoneVerification{
		Phone:        phone,
		CodeHash:     string(hash),
		Mode:         req.Mode,
		SelectedRole: req.SelectedRole,
	}
	if err := s.OTP.SaveVerification(ctx, id, verification, s.Config.OTPTTL); err != nil {
		return "", err
	}

	text := fmt.Sprintf("Your TrustHaven verification code is %s", code)
	if err := s.SMS.Send(ctx, phone, text); err != nil {
		if _, delErr := s.OTP.DeleteVerification(ctx, id); delErr != nil {
			s.Logger.Errorf("drop verification %s: %v", id, delErr)
		}
		return "", models.WrapAuthError(models.CodeSMSDeliveryFailed, err)
	}
	return id, nil
}

// VerifyPhoneCode consumes a verification and signs the phone's owner in.
func (s *AuthService) VerifyPhoneCode(ctx context.Context, req models.PhoneVerifyRequest) (models.SignInResponse, error) {
	id := strings.TrimSpace(req.VerificationID)
	code := strings.TrimSpace(req.Code)
	if id == "" {
		return models.SignInResponse{}, models.NewAuthError(models.CodeMissingVerificationID)
	}
	if code == "" {
		return models.SignInResponse{}, models.NewAuthError(models.CodeMissingCode)
	}

	v, err := s.OTP.GetVerification(ctx, id)
	if errors.Is(err, models.ErrNoRecord) {
		return models.SignInResponse{}, models.NewAuthError(models.CodeCodeExpired)
	}
	if err != nil {
		return models.SignInResponse{}, err
	}

	attempts, err := s.OTP.CountAttempt(ctx, id, s.Config.OTPTTL)
	if err != nil {
		return models.SignInResponse{}, err
	}
	if attempts > int64(s.Config.OTPMaxAttempts) {
		return models.SignInResponse{}, s.dropVerification(ctx, id)
	}
	if bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)) != nil {
		if attempts == int64(s.Config.OTPMaxAttempts) {
			return models.SignInResponse{}, s.dropVerification(ctx, id)
		}
		return models.SignInResponse{}, models.NewAuthError(models.CodeInvalidVerificationCode)
	}

	consumed, err := s.OTP.DeleteVerification(ctx, id)
	if err != nil {
		return models.SignInResponse{}, err
	}
	if !consumed {
		return models.SignInResponse{}, models.NewAuthError(models.CodeCodeExpired)
	}

	var existing *models.UserProfile
	user, err := s.Users.GetUserByPhone(ctx, v.Phone)
	switch {
	case err == nil:
		existing = &user
	case !errors.Is(err, models.ErrUserNotFound):
		return models.SignInResponse{}, err
	}

	identity := models.ExternalIdentity{
		Provider:    models.ProviderPhone,
		Subject:     v.Phone,
		Phone:       v.Phone,
		DisplayName: req.FullName,
	}
	profile, created, err := s.createOrMerge(ctx, existing, identity, v.SelectedRole)
	if err != nil {
		return models.SignInResponse{}, err
	}
	tokens, err := s.issueTokens(ctx, profile, false)
	if err != nil {
		return models.SignInResponse{}, err
	}
	return models.SignInResponse{Tokens: tokens, Profile: profile, Created: created}, nil
}

// dropVerification ends a verification whose guesses ran out.
func (s *AuthService) dropVerification(ctx context.Context, id string) error {
	if _, err := s.OTP.DeleteVerification(ctx, id); err != nil {
		return err
	}
	return models.NewAuthError(models.CodeTooManyRequests)
}

// createOrMerge creates the profile on first sign-in and otherwise refreshes
// it, keeping the stored role and phone unless they were empty.
func (s *AuthService) createOrMerge(ctx context.Context, existing *models.UserProfile, identity models.ExternalIdentity, role models.Role) (models.UserProfile, bool, error) {
	now := s.now().UTC()

	if existing == nil {
		if role == "" {
			role = models.RoleExplorer
		}
		if !role.SelfAssignable() {
			return models.UserProfile{}, false, models.NewAuthError(models.CodeRoleNotAllowed)
		}
		user := models.UserProfile{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(identity.DisplayName),
			Username:    defaultUsername(identity.DisplayName, identity.Email, identity.Phone),
			Email:       identity.Email,
			Phone:       identity.Phone,
			Avatar:      identity.PhotoURL,
			IsVerified:  identity.EmailVerified || identity.Provider == models.ProviderPhone,
			Role:        role,
			Provider:    identity.Provider,
			Status:      models.UserStatusActive,
			LastLoginAt: &now,
		}
		if identity.Provider == models.ProviderGoogle {
			user.GoogleSubject = identity.Subject
		}

		created, err := s.Users.CreateUser(ctx, user)
		if err != nil {
			return models.UserProfile{}, false, userWriteError(err)
		}
		if s.Identity != nil {
			if err := s.Identity.CreateUser(ctx, created, ""); err != nil {
				s.Logger.Errorf("identity provider: create %s: %v", created.ID, err)
			}
		}
		s.mirror(ctx, created)
		return created, true, nil
	}

	if existing.Disabled() {
		return models.UserProfile{}, false, models.NewAuthError(models.CodeUserDisabled)
	}

	merged := *existing
	merged.LastLoginAt = &now
	if merged.Phone == "" {
		merged.Phone = identity.Phone
	}
	if merged.Role == "" {
		merged.Role = models.RoleExplorer
		if role.SelfAssignable() {
			merged.Role = role
		}
	}
	if merged.Email == "" {
		merged.Email = identity.Email
	}
	if merged.Name == "" {
		merged.Name = strings.TrimSpace(identity.DisplayName)
	}
	if merged.Avatar == "" {
		merged.Avatar = identity.PhotoURL
	}
	if identity.Provider == models.ProviderGoogle && merged.GoogleSubject == "" {
		merged.GoogleSubject = identity.Subject
	}
	if identity.EmailVerified {
		merged.IsVerified = true
	}

	updated, err := s.Users.UpdateUser(ctx, merged)
	if err != nil {
		return models.UserProfile{}, false, userWriteError(err)
	}
	s.mirror(ctx, updated)
	return updated, false, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user models.UserProfile, remember bool) (models.Tokens, error) {
	access, err := s.Tokens.NewJWT(user.ID, user.Role, s.Config.AccessTTL)
	if err != nil {
		return models.Tokens{}, err
	}
	refresh, err := s.Tokens.NewRefreshToken()
	if err != nil {
		return models.Tokens{}, err
	}

	ttl := s.Config.RefreshTTL
	if remember {
		ttl = s.Config.RememberTTL
	}
	session := models.Session{
		UserID:       user.ID,
		Role:         user.Role,
		RefreshToken: refresh,
		ExpiresAt:    s.now().Add(ttl).UTC(),
	}
	if err := s.Sessions.CreateSession(ctx, session); err != nil {
		return models.Tokens{}, err
	}

	return models.Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.Config.AccessTTL.Seconds()),
	}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.SignInResponse, error) {
	if refreshToken == "" {
		return models.SignInResponse{}, models.NewAuthError(models.CodeInvalidRefreshToken)
	}

	session, err := s.Sessions.GetSessionByToken(ctx, refreshToken)
	if errors.Is(err, models.ErrNoRecord) {
		return models.SignInResponse{}, models.NewAuthError(models.CodeInvalidRefreshToken)
	}
	if err != nil {
		return models.SignInResponse{}, err
	}
	if session.ExpiresAt.Before(s.now()) {
		if err := s.Sessions.DeleteSession(ctx, refreshToken); err != nil {
			s.Logger.Errorf("delete expired session: %v", err)
		}
		return models.SignInResponse{}, models.NewAuthError(models.CodeSessionExpired)
	}

	user, err := s.Users.GetUserByID(ctx, session.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return models.SignInResponse{}, models.NewAuthError(models.CodeInvalidRefreshToken)
	}
	if err != nil {
		return models.SignInResponse{}, err
	}
	if user.Disabled() {
		return models.SignInResponse{}, models.NewAuthError(models.CodeUserDisabled)
	}

	access, err := s.Tokens.NewJWT(user.ID, user.Role, s.Config.AccessTTL)
	if err != nil {
		return models.SignInResponse{}, err
	}
	return models.SignInResponse{
		Tokens: models.Tokens{
			AccessToken:  access,
			RefreshToken: refreshToken,
			ExpiresIn:    int64(s.Config.AccessTTL.Seconds()),
		},
		Profile: user,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.Sessions.DeleteUserSessions(ctx, userID)
}

// Authenticate resolves a bearer token to the caller. It accepts a local
// access token, then an identity provider token, and finally refreshes in
// place from refreshToken. The second result is a newly issued access
// token when a refresh happened.
func (s *AuthService) Authenticate(ctx context.Context, accessToken, refreshToken string) (models.AuthContext, string, error) {
	if accessToken == "" && refreshToken == "" {
		return models.AuthContext{}, "", models.NewAuthError(models.CodeUnauthenticated)
	}

	var userID string
	if accessToken != "" {
		if claims, err := s.Tokens.Parse(accessToken); err == nil {
			userID = claims.UserID
		} else if s.Identity != nil {
			if uid, err := s.Identity.VerifyIDToken(ctx, accessToken); err == nil {
				userID = uid
			}
		}
	}

	var renewed string
	if userID == "" {
		if refreshToken == "" {
			return models.AuthContext{}, "", models.NewAuthError(models.CodeUnauthenticated)
		}
		resp, err := s.Refresh(ctx, refreshToken)
		if err != nil {
			return models.AuthContext{}, "", err
		}
		userID = resp.Profile.ID
		renewed = resp.AccessToken
	}

	user, err := s.Users.GetUserByID(ctx, userID)
	if errors.Is(err, models.ErrUserNotFound) {
		return models.AuthContext{}, "", models.NewAuthError(models.CodeUnauthenticated)
	}
	if err != nil {
		return models.AuthContext{}, "", err
	}
	if user.Disabled() {
		return models.AuthContext{}, "", models.NewAuthError(models.CodeUserDisabled)
	}
	return models.AuthContext{UserID: user.ID, Profile: user, Role: user.Role}, renewed, nil
}

// CleanExpiredSessions deletes sessions past their expiry.
func (s *AuthService) CleanExpiredSessions(ctx context.Context) (int64, error) {
	return s.Sessions.DeleteExpiredSessions(ctx, s.now().UTC())
}

func (s *AuthService) mirror(ctx context.Context, user models.UserProfile) {
	if s.Mirror == nil {
		return
	}
	if err := s.Mirror.Upsert(ctx, user); err != nil {
		s.Logger.Errorf("mirror profile %s: %v", user.ID, err)
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// asAuthError keeps a coded error as is and wraps anything else under code.
func asAuthError(err error, code string) error {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return models.WrapAuthError(code, err)
}

func userWriteError(err error) error {
	switch {
	case errors.Is(err, models.ErrDuplicateEmail):
		return models.WrapAuthError(models.CodeEmailAlreadyInUse, err)
	case errors.Is(err, models.ErrDuplicatePhone):
		return models.WrapAuthError(models.CodePhoneAlreadyInUse, err)
	}
	return err
}
