package services

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"

	"trusthaven/internal/models"
)

// GoogleIdentity validates Google Sign-In ID tokens issued for ClientID.
type GoogleIdentity struct {
	Validator *idtoken.Validator
	ClientID  string
}

func (g *GoogleIdentity) Verify(ctx context.Context, token string) (models.ExternalIdentity, error) {
	payload, err := g.Validator.Validate(ctx, token, g.ClientID)
	if err != nil {
		return models.ExternalIdentity{}, err
	}
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return models.ExternalIdentity{}, fmt.Errorf("unexpected issuer %q", payload.Issuer)
	}
	if payload.Subject == "" {
		return models.ExternalIdentity{}, errors.New("token has no subject")
	}
	return identityFromClaims(payload.Subject, payload.Claims), nil
}

func identityFromClaims(subject string, claims map[string]interface{}) models.ExternalIdentity {
	str := func(key string) string {
		v, _ := claims[key].(string)
		return v
	}
	verified, _ := claims["email_verified"].(bool)
	return models.ExternalIdentity{
		Provider:      models.ProviderGoogle,
		Subject:       subject,
		Email:         str("email"),
		EmailVerified: verified,
		DisplayName:   str("name"),
		PhotoURL:      str("picture"),
	}
}
