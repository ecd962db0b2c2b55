package services

import (
	"context"
	"fmt"

	"firebase.google.com/go/auth"

	"trusthaven/internal/models"
)

// FirebaseIdentity keeps Firebase Auth accounts in step with local users.
type FirebaseIdentity struct {
	Client *auth.Client
}

func (f *FirebaseIdentity) CreateUser(ctx context.Context, user models.UserProfile, password string) error {
	params := (&auth.UserToCreate{}).UID(user.ID).Disabled(user.Disabled())
	if user.Email != "" {
		params = params.Email(user.Email).EmailVerified(user.IsVerified)
	}
	if user.Phone != "" {
		params = params.PhoneNumber(user.Phone)
	}
	if password != "" {
		params = params.Password(password)
	}
	if user.Username != "" {
		params = params.DisplayName(user.Username)
	}
	if user.Avatar != "" {
		params = params.PhotoURL(user.Avatar)
	}

	if _, err := f.Client.CreateUser(ctx, params); err != nil {
		switch {
		case auth.IsEmailAlreadyExists(err):
			return models.WrapAuthError(models.CodeEmailAlreadyInUse, err)
		case auth.IsPhoneNumberAlreadyExists(err):
			return models.WrapAuthError(models.CodePhoneAlreadyInUse, err)
		}
		return err
	}
	if err := f.SetRole(ctx, user.ID, user.Role); err != nil {
		if delErr := f.DeleteUser(ctx, user.ID); delErr != nil {
			return fmt.Errorf("set role: %w (rollback failed: %v)", err, delErr)
		}
		return err
	}
	return nil
}

// DeleteUser removes the account; a missing account is not an error.
func (f *FirebaseIdentity) DeleteUser(ctx context.Context, uid string) error {
	err := f.Client.DeleteUser(ctx, uid)
	if auth.IsUserNotFound(err) {
		return nil
	}
	return err
}

func (f *FirebaseIdentity) SetRole(ctx context.Context, uid string, role models.Role) error {
	return f.Client.SetCustomUserClaims(ctx, uid, map[string]interface{}{"role": string(role)})
}

func (f *FirebaseIdentity) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	_, err := f.Client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(disabled))
	if auth.IsUserNotFound(err) {
		return nil
	}
	return err
}

// VerifyIDToken returns the uid of a valid, unrevoked Firebase ID token.
func (f *FirebaseIdentity) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	token, err := f.Client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return "", err
	}
	return token.UID, nil
}
