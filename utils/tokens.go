package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"trusthaven/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type Manager struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

func NewManager(signingKey string) (*Manager, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}

	return &Manager{signingKey: []byte(signingKey), issuer: "trusthaven", now: time.Now}, nil
}

func (m *Manager) NewJWT(userID string, role models.Role, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &models.Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

func (m *Manager) Parse(accessToken string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" || claims.Issuer != m.issuer {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (m *Manager) NewRefreshToken() (string, error) {
	b := make([]byte, 32)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", b), nil
}
