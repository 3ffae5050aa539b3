package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

// GenerateToken mints a custom token the browser exchanges for a realtime store
// session. claims become custom claims on that session.
func (f *FirebaseAuthClient) GenerateToken(ctx context.Context, uid string, claims map[string]interface{}) (string, error) {
	token, err := f.client.CustomTokenWithClaims(ctx, uid, claims)
	if err != nil {
		return "", err
	}

	return token, nil
}
