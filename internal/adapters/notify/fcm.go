package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	"github.com/kokoron/kokoron-backend/internal/domain"
)

// FCMNotifier implements domain.Notifier on Firebase Cloud Messaging.
type FCMNotifier struct {
	client *messaging.Client
}

func NewFCMNotifier(ctx context.Context, projectID string) (*FCMNotifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("creating firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}

	return &FCMNotifier{client: client}, nil
}

// SendPush sends one notification and returns the FCM message ID.
func (n *FCMNotifier) SendPush(ctx context.Context, token string, p domain.PushNotification) (string, error) {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
	}
	if p.ChannelID != "" {
		msg.Android = &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{ChannelID: p.ChannelID},
		}
	}
	if p.Category != "" {
		msg.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default", Category: p.Category},
			},
		}
	}

	id, err := n.client.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("fcm send: %w", err)
	}
	return id, nil
}
