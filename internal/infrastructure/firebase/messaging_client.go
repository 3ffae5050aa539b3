package firebase

import (
	"context"

	"firebase.google.com/go/v4/messaging"

	"rikoadmin/pkg/logger"
)

// FCM accepts up to 500 registration tokens per multicast call.
const maxMulticastTokens = 500

type FirebaseMessagingClient struct {
	client *messaging.Client
}

func NewFirebaseMessagingClient(client *messaging.Client) *FirebaseMessagingClient {
	return &FirebaseMessagingClient{
		client: client,
	}
}

// SendMulticast pushes one notification to every token and returns the tokens
// FCM reported as no longer registered.
func (f *FirebaseMessagingClient) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	var stale []string

	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := start + maxMulticastTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]

		resp, err := f.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: chunk,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Webpush: &messaging.WebpushConfig{
				Notification: &messaging.WebpushNotification{
					Title: title,
					Body:  body,
					Icon:  "/logo192.png",
				},
			},
		})
		if err != nil {
			return stale, err
		}

		for i, r := range resp.Responses {
			if r.Success {
				continue
			}
			if messaging.IsUnregistered(r.Error) {
				stale = append(stale, chunk[i])
				continue
			}
			logger.Warn("Push to device failed: %v", r.Error)
		}
	}

	return stale, nil
}
