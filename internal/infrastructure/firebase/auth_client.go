package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/service"
	"aeroclassifieds/pkg/errors"
)

type FirebaseAuthClient struct {
	client *auth.Client
	apiKey string
}

var _ service.IdentityService = (*FirebaseAuthClient)(nil)

func NewFirebaseAuthClient(client *auth.Client, apiKey string) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
		apiKey: apiKey,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, idToken string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return result.UID, nil
}

// GetProfile supplies the display name and avatar stamped onto conversations
// and messages. Users without a display name fall back to their email.
func (f *FirebaseAuthClient) GetProfile(ctx context.Context, uid string) (*entity.Profile, error) {
	user, err := f.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to load user profile", err)
	}

	name := user.DisplayName
	if name == "" {
		name = user.Email
	}
	return &entity.Profile{
		UID:         user.UID,
		DisplayName: name,
		AvatarURL:   user.PhotoURL,
	}, nil
}
