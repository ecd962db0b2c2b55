package repositories

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"trusthaven/internal/models"
)

const usersCollection = "users"

// ProfileMirror copies user profiles into Firestore users/{uid} for clients
// that read them straight from the Firebase SDK.
type ProfileMirror struct {
	client *firestore.Client
}

func NewProfileMirror(client *firestore.Client) *ProfileMirror {
	return &ProfileMirror{client: client}
}

func mirrorDocument(u models.UserProfile) map[string]interface{} {
	doc := map[string]interface{}{
		"uid":         u.ID,
		"email":       u.Email,
		"username":    u.Username,
		"name":        u.Name,
		"phoneNumber": u.Phone,
		"avatar":      u.Avatar,
		"role":        string(u.Role),
		"provider":    u.Provider,
		"status":      u.Status,
		"createdAt":   u.CreatedAt,
		"updatedAt":   time.Now().UTC(),
	}
	if u.LastLoginAt != nil {
		doc["lastLogin"] = *u.LastLoginAt
	}
	return doc
}

func (m *ProfileMirror) Upsert(ctx context.Context, u models.UserProfile) error {
	_, err := m.client.Collection(usersCollection).Doc(u.ID).Set(ctx, mirrorDocument(u), firestore.MergeAll)
	return err
}
