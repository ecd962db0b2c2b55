package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trusthaven/internal/models"
)

type UserService struct {
	Users    UserStore
	Sessions SessionStore
	Identity IdentityProvider
	Mirror   ProfileMirror
	Notifier Notifier
	Logger   Logger
}

// Me builds the auth context for userID with its listing references.
func (s *UserService) Me(ctx context.Context, userID string) (models.AuthContext, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return models.AuthContext{}, err
	}
	if user.Listings, err = s.Users.ListingIDs(ctx, userID); err != nil {
		return models.AuthContext{}, err
	}
	if user.SavedListings, err = s.Users.SavedListingIDs(ctx, userID); err != nil {
		return models.AuthContext{}, err
	}
	return models.AuthContext{UserID: user.ID, Profile: user, Role: user.Role}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (models.UserProfile, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}

	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return models.UserProfile{}, fmt.Errorf("%w: username cannot be empty", models.ErrValidation)
		}
		user.Username = username
	}
	if upd.Avatar != nil {
		user.Avatar = strings.TrimSpace(*upd.Avatar)
	}
	if upd.Phone != nil {
		phone := strings.TrimSpace(*upd.Phone)
		if phone != "" {
			if !ValidPhone(phone) {
				return models.UserProfile{}, models.NewAuthError(models.CodeInvalidPhoneNumber)
			}
			other, err := s.Users.GetUserByPhone(ctx, phone)
			if err == nil && other.ID != userID {
				return models.UserProfile{}, models.NewAuthError(models.CodePhoneAlreadyInUse)
			}
			if err != nil && !errors.Is(err, models.ErrUserNotFound) {
				return models.UserProfile{}, err
			}
		}
		user.Phone = phone
	}

	updated, err := s.Users.UpdateUser(ctx, user)
	if err != nil {
		return models.UserProfile{}, userWriteError(err)
	}
	s.profileChanged(ctx, updated)
	return updated, nil
}

// Upgrade turns an explorer into a pioneer.
func (s *UserService) Upgrade(ctx context.Context, userID string) (models.UserProfile, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	if user.Role != models.RoleExplorer {
		return models.UserProfile{}, fmt.Errorf("%w: only explorers can upgrade, current role is %s", models.ErrConflict, user.Role)
	}
	return s.applyRole(ctx, user, models.RolePioneer)
}

// ListUsers lists every user, or only those holding role.
func (s *UserService) ListUsers(ctx context.Context, role models.Role) ([]models.UserProfile, error) {
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}
	return s.Users.ListUsers(ctx, role)
}

// ChangeRole lets a guardian re-assign roles. Only admins may grant or revoke admin.
func (s *UserService) ChangeRole(ctx context.Context, actor models.AuthContext, targetID string, role models.Role) (models.UserProfile, error) {
	if !role.Valid() {
		return models.UserProfile{}, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}
	target, err := s.Users.GetUserByID(ctx, targetID)
	if err != nil {
		return models.UserProfile{}, err
	}
	if (role == models.RoleAdmin || target.Role == models.RoleAdmin) && actor.Role != models.RoleAdmin {
		return models.UserProfile{}, models.ErrForbidden
	}
	if target.Role == role {
		return target, nil
	}
	return s.applyRole(ctx, target, role)
}

func (s *UserService) applyRole(ctx context.Context, user models.UserProfile, role models.Role) (models.UserProfile, error) {
	if err := s.Users.SetRole(ctx, user.ID, role); err != nil {
		return models.UserProfile{}, err
	}
	if s.Identity != nil {
		if err := s.Identity.SetRole(ctx, user.ID, role); err != nil {
			s.Logger.Errorf("identity provider: set role of %s: %v", user.ID, err)
		}
	}

	now := time.Now().UTC()
	user.Role = role
	user.UpdatedAt = &now
	s.profileChanged(ctx, user)
	return user, nil
}

// SetStatus enables or disables an account. Disabling ends every session.
func (s *UserService) SetStatus(ctx context.Context, actor models.AuthContext, targetID, status string) (models.UserProfile, error) {
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return models.UserProfile{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	if targetID == actor.UserID {
		return models.UserProfile{}, fmt.Errorf("%w: cannot change your own status", models.ErrValidation)
	}
	target, err := s.Users.GetUserByID(ctx, targetID)
	if err != nil {
		return models.UserProfile{}, err
	}
	if target.Role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return models.UserProfile{}, models.ErrForbidden
	}

	if err := s.Users.SetStatus(ctx, targetID, status); err != nil {
		return models.UserProfile{}, err
	}
	disabled := status == models.UserStatusDisabled
	if disabled {
		if err := s.Sessions.DeleteUserSessions(ctx, targetID); err != nil {
			return models.UserProfile{}, err
		}
	}
	if s.Identity != nil {
		if err := s.Identity.SetDisabled(ctx, targetID, disabled); err != nil {
			s.Logger.Errorf("identity provider: set disabled of %s: %v", targetID, err)
		}
	}

	now := time.Now().UTC()
	target.Status = status
	target.UpdatedAt = &now
	s.profileChanged(ctx, target)
	return target, nil
}

func (s *UserService) profileChanged(ctx context.Context, user models.UserProfile) {
	if s.Mirror != nil {
		if err := s.Mirror.Upsert(ctx, user); err != nil {
			s.Logger.Errorf("mirror profile %s: %v", user.ID, err)
		}
	}
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, user.ID, models.Notification{
			Type:      models.EventProfileUpdated,
			Title:     "Profile updated",
			Body:      "Your account details changed.",
			Data:      map[string]string{"role": string(user.Role), "status": user.Status},
			CreatedAt: time.Now().UTC(),
		})
	}
}
