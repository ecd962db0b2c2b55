package services

import (
	"context"
	"fmt"
	"strings"

	"firebase.google.com/go/messaging"

	"trusthaven/internal/models"
)

// PushService keeps device tokens and pushes account events through FCM.
// Without a messaging client it only stores tokens.
type PushService struct {
	Client *messaging.Client
	Tokens NotifyTokenStore
	Logger Logger
}

func (s *PushService) RegisterToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", models.ErrValidation)
	}
	return s.Tokens.InsertToken(ctx, userID, token)
}

func (s *PushService) RemoveToken(ctx context.Context, userID, token string) error {
	return s.Tokens.DeleteToken(ctx, userID, token)
}

// Notify sends n to every device of userID. Failures are logged only.
func (s *PushService) Notify(ctx context.Context, userID string, n models.Notification) {
	if s.Client == nil {
		return
	}
	tokens, err := s.Tokens.GetTokensByUserID(ctx, userID)
	if err != nil {
		s.Logger.Errorf("push: tokens of %s: %v", userID, err)
		return
	}
	for _, token := range tokens {
		if err := s.send(ctx, token, n); err != nil {
			s.Logger.Errorf("push: send %s to %s: %v", n.Type, userID, err)
		}
	}
}

func (s *PushService) send(ctx context.Context, token string, n models.Notification) error {
	data := map[string]string{"type": n.Type}
	for k, v := range n.Data {
		data[k] = v
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  n.Body,
					},
					Sound: "default",
				},
			},
		},
	}

	_, err := s.Client.Send(ctx, message)
	return err
}
