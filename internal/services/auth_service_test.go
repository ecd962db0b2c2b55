package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trusthaven/internal/models"
)

type authFixture struct {
	svc      *AuthService
	users    *memUsers
	sessions *memSessions
	otp      *memVerifications
	sms      *stubSMS
}

func newAuthFixture(t *testing.T, users ...models.UserProfile) authFixture {
	t.Helper()
	f := authFixture{
		users:    newMemUsers(users...),
		sessions: newMemSessions(),
		otp:      newMemVerifications(),
		sms:      &stubSMS{},
	}
	f.svc = &AuthService{
		Users:    f.users,
		Sessions: f.sessions,
		OTP:      f.otp,
		Tokens:   newTestManager(t),
		SMS:      f.sms,
		Logger:   nopLogger{},
		Config:   testAuthConfig(),
	}
	return f
}

func signUpRequest() models.SignUpRequest {
	return models.SignUpRequest{
		Email:           "Ada@Example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
		FullName:        "Ada Lovelace",
		SelectedRole:    models.RolePioneer,
		AgreeToTerms:    true,
	}
}

func TestSignUpRollsBackIdentityOnStoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	identity := newMemIdentity()
	f.svc.Identity = identity
	ctx := context.Background()

	f.users.createErr = errors.New("connection reset")
	if _, err := f.svc.SignUp(ctx, signUpRequest()); err == nil {
		t.Fatal("expected store failure to fail sign up")
	}
	if len(identity.deleted) != 1 || len(identity.accounts) != 0 {
		t.Fatalf("expected identity account to be rolled back, got accounts=%d deleted=%v", len(identity.accounts), identity.deleted)
	}

	f.users.createErr = nil
	user, err := f.svc.SignUp(ctx, signUpRequest())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if _, ok := identity.accounts[user.ID]; !ok {
		t.Fatalf("expected identity account for %s", user.ID)
	}
}

func TestSignUpThenSignIn(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.SignUp(ctx, signUpRequest())
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Email != "ada@example.com" || user.Role != models.RolePioneer || user.Provider != models.ProviderPassword {
		t.Fatalf("unexpected profile: %+v", user)
	}
	if f.sessions.count(user.ID) != 0 {
		t.Fatal("sign up must not open a session")
	}

	resp, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", resp.Tokens)
	}
	if resp.ExpiresIn != int64((2 * time.Hour).Seconds()) {
		t.Fatalf("unexpected expires_in %d", resp.ExpiresIn)
	}
	if resp.Profile.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}

	_, err = f.svc.SignUp(ctx, signUpRequest())
	if code := authCode(t, err); code != models.CodeEmailAlreadyInUse {
		t.Fatalf("expected %s on second sign up, got %s", models.CodeEmailAlreadyInUse, code)
	}
}

func TestSignInFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, err := f.svc.SignUp(ctx, signUpRequest())
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "ada@example.com", Password: "nope-nope"})
		if code := authCode(t, err); code != models.CodeInvalidCredential {
			t.Fatalf("expected invalid credential, got %s", code)
		}
	})
	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "bob@example.com", Password: "correct-horse"})
		if code := authCode(t, err); code != models.CodeInvalidCredential {
			t.Fatalf("expected invalid credential, got %s", code)
		}
	})
	t.Run("missing email", func(t *testing.T) {
		_, err := f.svc.SignIn(ctx, models.SignInRequest{Password: "correct-horse"})
		if code := authCode(t, err); code != models.CodeMissingEmail {
			t.Fatalf("expected missing email, got %s", code)
		}
	})
	t.Run("disabled", func(t *testing.T) {
		if err := f.users.SetStatus(ctx, user.ID, models.UserStatusDisabled); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
		_, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "ada@example.com", Password: "correct-horse"})
		if code := authCode(t, err); code != models.CodeUserDisabled {
			t.Fatalf("expected user disabled, got %s", code)
		}
	})
}

func TestSignInRememberExtendsSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.clock = func() time.Time { return fixed }

	if _, err := f.svc.SignUp(ctx, signUpRequest()); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	resp, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "ada@example.com", Password: "correct-horse", Remember: true})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	session, err := f.sessions.GetSessionByToken(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("GetSessionByToken: %v", err)
	}
	if want := fixed.Add(60 * 24 * time.Hour); !session.ExpiresAt.Equal(want) {
		t.Fatalf("expected session to expire at %v, got %v", want, session.ExpiresAt)
	}
}

func sendCode(t *testing.T, f authFixture, phone string) string {
	t.Helper()
	id, err := f.svc.SendPhoneCode(context.Background(), models.PhoneCodeRequest{
		Phone:        phone,
		Mode:         models.AuthModeRegister,
		SelectedRole: models.RoleExplorer,
		AgreeToTerms: true,
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("SendPhoneCode: %v", err)
	}
	return id
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestPhoneCodeSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	phone := "+237612345678"

	id := sendCode(t, f, phone)
	code := f.sms.code(t, phone)

	resp, err := f.svc.VerifyPhoneCode(ctx, models.PhoneVerifyRequest{VerificationID: id, Code: code, FullName: "Nia"})
	if err != nil {
		t.Fatalf("VerifyPhoneCode: %v", err)
	}
	if !resp.Created || resp.Profile.Phone != phone || resp.Profile.Provider != models.ProviderPhone {
		t.Fatalf("unexpected sign in response: %+v", resp.Profile)
	}
	if !resp.Profile.IsVerified || resp.Profile.Username != "Nia" {
		t.Fatalf("expected verified profile named Nia, got %+v", resp.Profile)
	}

	_, err = f.svc.VerifyPhoneCode(ctx, models.PhoneVerifyRequest{VerificationID: id, Code: code})
	if c := authCode(t, err); c != models.CodeCodeExpired {
		t.Fatalf("expected reused code to be expired, got %s", c)
	}
}

func TestPhoneCodeExpired(t *testing.T) {
	f := newAuthFixture(t)
	phone := "+237612345678"
	id := sendCode(t, f, phone)
	f.otp.expired[id] = true

	_, err := f.svc.VerifyPhoneCode(context.Background(), models.PhoneVerifyRequest{VerificationID: id, Code: f.sms.code(t, phone)})
	if c := authCode(t, err); c != models.CodeCodeExpired {
		t.Fatalf("expected code expired, got %s", c)
	}
}

func TestPhoneCodeAttemptsExhausted(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	phone := "+237612345678"
	id := sendCode(t, f, phone)
	code := f.sms.code(t, phone)
	bad := wrongCode(code)

	for i := 1; i < f.svc.Config.OTPMaxAttempts; i++ {
		_, err := f.svc.VerifyPhoneCode(ctx, models.PhoneVerifyRequest{VerificationID: id, Code: bad})
		if c := authCode(t, err); c != models.CodeInvalidVerificationCode {
			t.Fatalf("attempt %d: expected invalid code, got %s", i, c)
		}
	}
	_, err := f.svc.VerifyPhoneCode(ctx, models.PhoneVerifyRequest{VerificationID: id, Code: bad})
	if c := authCode(t, err); c != models.CodeTooManyRequests {
		t.Fatalf("expected too many requests on last attempt, got %s", c)
	}

	_, err = f.svc.VerifyPhoneCode(ctx, models.PhoneVerifyRequest{VerificationID: id, Code: code})
	if c := authCode(t, err); c != models.CodeCodeExpired {
		t.Fatalf("expected exhausted verification to be gone, got %s", c)
	}
}

func TestPhoneCodeConcurrentGuesses(t *testing.T) {
	f := newAuthFixture(t)
	phone := "+237612345678"
	id := sendCode(t, f, phone)
	code := f.sms.code(t, phone)
	bad := wrongCode(code)

	const guesses = 40
	results := make(chan error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.VerifyPhoneCode(context.Background(), models.PhoneVerifyRequest{VerificationID: id, Code: bad})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	invalid := 0
	for err := range results {
		switch c := authCode(t, err); c {
		case models.CodeInvalidVerificationCode:
			invalid++
		case models.CodeTooManyRequests, models.CodeCodeExpired:
		default:
			t.Fatalf("unexpected code %s", c)
		}
	}
	if want := f.svc.Config.OTPMaxAttempts - 1; invalid != want {
		t.Fatalf("expected %d guesses checked before lockout, got %d", want, invalid)
	}

	_, err := f.svc.VerifyPhoneCode(context.Background(), models.PhoneVerifyRequest{VerificationID: id, Code: code})
	if c := authCode(t, err); c != models.CodeCodeExpired {
		t.Fatalf("expected verification to be gone after lockout, got %s", c)
	}
}

func TestSendPhoneCodeLimits(t *testing.T) {
	t.Run("per phone", func(t *testing.T) {
		f := newAuthFixture(t)
		phone := "+237612345678"
		for i := 0; i < f.svc.Config.OTPSendLimit; i++ {
			sendCode(t, f, phone)
		}
		_, err := f.svc.SendPhoneCode(context.Background(), models.PhoneCodeRequest{Phone: phone}, "")
		if c := authCode(t, err); c != models.CodeTooManyRequests {
			t.Fatalf("expected too many requests, got %s", c)
		}
	})

	t.Run("daily quota", func(t *testing.T) {
		f := newAuthFixture(t)
		f.otp.daily = int64(f.svc.Config.OTPDailyQuota)
		_, err := f.svc.SendPhoneCode(context.Background(), models.PhoneCodeRequest{Phone: "+237612345678"}, "")
		if c := authCode(t, err); c != models.CodeQuotaExceeded {
			t.Fatalf("expected quota exceeded, got %s", c)
		}
	})

	t.Run("validation", func(t *testing.T) {
		f := newAuthFixture(t)
		ctx := context.Background()
		if _, err := f.svc.SendPhoneCode(ctx, models.PhoneCodeRequest{}, ""); authCode(t, err) != models.CodeMissingPhoneNumber {
			t.Fatalf("expected missing phone, got %v", err)
		}
		if _, err := f.svc.SendPhoneCode(ctx, models.PhoneCodeRequest{Phone: "612345678"}, ""); authCode(t, err) != models.CodeInvalidPhoneNumber {
			t.Fatalf("expected invalid phone, got %v", err)
		}
		req := models.PhoneCodeRequest{Phone: "+237612345678", Mode: models.AuthModeRegister, AgreeToTerms: true, SelectedRole: models.RoleGuardian}
		if _, err := f.svc.SendPhoneCode(ctx, req, ""); authCode(t, err) != models.CodeRoleNotAllowed {
			t.Fatalf("expected role not allowed, got %v", err)
		}
	})

	t.Run("captcha", func(t *testing.T) {
		f := newAuthFixture(t)
		f.svc.Captcha = stubCaptcha{err: errors.New("score too low")}
		_, err := f.svc.SendPhoneCode(context.Background(), models.PhoneCodeRequest{Phone: "+237612345678"}, "")
		if c := authCode(t, err); c != models.CodeCaptchaCheckFailed {
			t.Fatalf("expected captcha failure, got %s", c)
		}
	})

	t.Run("sms failure drops verification", func(t *testing.T) {
		f := newAuthFixture(t)
		f.sms.err = errors.New("gateway down")
		_, err := f.svc.SendPhoneCode(context.Background(), models.PhoneCodeRequest{Phone: "+237612345678"}, "")
		if c := authCode(t, err); c != models.CodeSMSDeliveryFailed {
			t.Fatalf("expected sms delivery failure, got %s", c)
		}
		if len(f.otp.items) != 0 {
			t.Fatalf("expected no pending verification, got %d", len(f.otp.items))
		}
	})
}

func TestPhoneSignInKeepsExistingRoleAndPhone(t *testing.T) {
	phone := "+237612345678"
	existing := models.UserProfile{
		ID:       "u1",
		Name:     "Kemi",
		Username: "kemi",
		Email:    "kemi@example.com",
		Phone:    phone,
		Role:     models.RolePioneer,
		Provider: models.ProviderPassword,
		Status:   models.UserStatusActive,
	}
	f := newAuthFixture(t, existing)

	id := sendCode(t, f, phone)
	resp, err := f.svc.VerifyPhoneCode(context.Background(), models.PhoneVerifyRequest{VerificationID: id, Code: f.sms.code(t, phone)})
	if err != nil {
		t.Fatalf("VerifyPhoneCode: %v", err)
	}
	if resp.Created {
		t.Fatal("expected existing profile to be merged")
	}
	if resp.Profile.ID != "u1" || resp.Profile.Role != models.RolePioneer || resp.Profile.Phone != phone {
		t.Fatalf("merge changed stored identity: %+v", resp.Profile)
	}
	if resp.Profile.Email != "kemi@example.com" {
		t.Fatalf("expected email kept, got %q", resp.Profile.Email)
	}
}

func TestGoogleSignIn(t *testing.T) {
	identity := models.ExternalIdentity{
		Provider:      models.ProviderGoogle,
		Subject:       "google-sub-1",
		Email:         "Tomi@Example.com",
		EmailVerified: true,
		DisplayName:   "Tomi",
		PhotoURL:      "https://img.example.com/t.png",
	}

	t.Run("unavailable", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.GoogleSignIn(context.Background(), models.GoogleSignInRequest{IDToken: "x"})
		if c := authCode(t, err); c != models.CodeProviderUnavailable {
			t.Fatalf("expected provider unavailable, got %s", c)
		}
	})

	t.Run("creates then merges", func(t *testing.T) {
		f := newAuthFixture(t)
		f.svc.Google = stubGoogle{identity: identity}
		ctx := context.Background()

		req := models.GoogleSignInRequest{IDToken: "token", Mode: models.AuthModeRegister, SelectedRole: models.RolePioneer, AgreeToTerms: true}
		first, err := f.svc.GoogleSignIn(ctx, req)
		if err != nil {
			t.Fatalf("GoogleSignIn: %v", err)
		}
		if !first.Created || first.Profile.Role != models.RolePioneer || first.Profile.Email != "tomi@example.com" {
			t.Fatalf("unexpected created profile: %+v", first.Profile)
		}
		if !first.Profile.IsVerified || first.Profile.Avatar == "" {
			t.Fatalf("expected verified profile with avatar, got %+v", first.Profile)
		}

		second, err := f.svc.GoogleSignIn(ctx, models.GoogleSignInRequest{IDToken: "token", SelectedRole: models.RoleExplorer})
		if err != nil {
			t.Fatalf("GoogleSignIn: %v", err)
		}
		if second.Created || second.Profile.ID != first.Profile.ID || second.Profile.Role != models.RolePioneer {
			t.Fatalf("expected merged profile with stored role, got %+v", second.Profile)
		}
	})

	t.Run("password account with same email", func(t *testing.T) {
		f := newAuthFixture(t, models.UserProfile{
			ID: "u1", Email: "tomi@example.com", Role: models.RoleExplorer,
			Provider: models.ProviderPassword, Status: models.UserStatusActive,
		})
		f.svc.Google = stubGoogle{identity: identity}
		_, err := f.svc.GoogleSignIn(context.Background(), models.GoogleSignInRequest{IDToken: "token"})
		if c := authCode(t, err); c != models.CodeAccountExistsDifferent {
			t.Fatalf("expected account exists with different credential, got %s", c)
		}
	})

	t.Run("register rules", func(t *testing.T) {
		f := newAuthFixture(t)
		f.svc.Google = stubGoogle{identity: identity}
		ctx := context.Background()
		_, err := f.svc.GoogleSignIn(ctx, models.GoogleSignInRequest{IDToken: "token", Mode: models.AuthModeRegister})
		if c := authCode(t, err); c != models.CodeTermsNotAccepted {
			t.Fatalf("expected terms not accepted, got %s", c)
		}
		_, err = f.svc.GoogleSignIn(ctx, models.GoogleSignInRequest{IDToken: "token", Mode: models.AuthModeRegister, AgreeToTerms: true, SelectedRole: models.RoleAdmin})
		if c := authCode(t, err); c != models.CodeRoleNotAllowed {
			t.Fatalf("expected role not allowed, got %s", c)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.svc.Google = stubGoogle{err: errors.New("audience mismatch")}
		_, err := f.svc.GoogleSignIn(context.Background(), models.GoogleSignInRequest{IDToken: "token"})
		if c := authCode(t, err); c != models.CodeInvalidIDToken {
			t.Fatalf("expected invalid id token, got %s", c)
		}
	})
}

func TestRefreshAndAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, signUpRequest()); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	t.Run("access token", func(t *testing.T) {
		auth, renewed, err := f.svc.Authenticate(ctx, signIn.AccessToken, "")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if renewed != "" || auth.UserID != signIn.Profile.ID || auth.Role != models.RolePioneer {
			t.Fatalf("unexpected auth context: %+v renewed=%q", auth, renewed)
		}
	})

	t.Run("falls back to refresh token", func(t *testing.T) {
		auth, renewed, err := f.svc.Authenticate(ctx, "garbage", signIn.RefreshToken)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if renewed == "" || auth.UserID != signIn.Profile.ID {
			t.Fatalf("expected renewed access token, got %q", renewed)
		}
	})

	t.Run("no credentials", func(t *testing.T) {
		_, _, err := f.svc.Authenticate(ctx, "", "")
		if c := authCode(t, err); c != models.CodeUnauthenticated {
			t.Fatalf("expected unauthenticated, got %s", c)
		}
		_, _, err = f.svc.Authenticate(ctx, "garbage", "")
		if c := authCode(t, err); c != models.CodeUnauthenticated {
			t.Fatalf("expected unauthenticated for bad token, got %s", c)
		}
	})

	t.Run("unknown refresh token", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, "deadbeef")
		if c := authCode(t, err); c != models.CodeInvalidRefreshToken {
			t.Fatalf("expected invalid refresh token, got %s", c)
		}
	})

	t.Run("expired refresh token", func(t *testing.T) {
		f.svc.clock = func() time.Time { return time.Now().Add(25 * time.Hour) }
		defer func() { f.svc.clock = nil }()

		_, err := f.svc.Refresh(ctx, signIn.RefreshToken)
		if c := authCode(t, err); c != models.CodeSessionExpired {
			t.Fatalf("expected session expired, got %s", c)
		}
		if _, err := f.sessions.GetSessionByToken(ctx, signIn.RefreshToken); !errors.Is(err, models.ErrNoRecord) {
			t.Fatal("expected expired session to be deleted")
		}
	})

	t.Run("disabled user", func(t *testing.T) {
		if err := f.users.SetStatus(ctx, signIn.Profile.ID, models.UserStatusDisabled); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
		_, _, err := f.svc.Authenticate(ctx, signIn.AccessToken, "")
		if c := authCode(t, err); c != models.CodeUserDisabled {
			t.Fatalf("expected user disabled, got %s", c)
		}
	})
}

func TestLogoutAndCleanExpiredSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, signUpRequest()); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	resp, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := f.svc.Logout(ctx, resp.Profile.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if n := f.sessions.count(resp.Profile.ID); n != 0 {
		t.Fatalf("expected no sessions after logout, got %d", n)
	}

	f.sessions.sessions["old"] = models.Session{UserID: "u", RefreshToken: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	f.sessions.sessions["live"] = models.Session{UserID: "u", RefreshToken: "live", ExpiresAt: time.Now().Add(time.Hour)}
	removed, err := f.svc.CleanExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("CleanExpiredSessions: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", removed)
	}
}
