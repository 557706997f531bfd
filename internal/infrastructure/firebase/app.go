package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"aeroclassifieds/pkg/config"
	"aeroclassifieds/pkg/logger"
)

// App bundles the Firebase-backed clients the service needs.
type App struct {
	Options   []option.ClientOption
	Auth      *auth.Client
	Firestore *firestore.Client
}

// CredentialOptions prefers inline service account JSON (production) and falls
// back to a key file on disk (local development).
func CredentialOptions(cfg *config.Config) ([]option.ClientOption, error) {
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))}, nil
	}

	if _, err := os.Stat(cfg.FirebaseServiceAccountPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("service account file does not exist: %s", cfg.FirebaseServiceAccountPath)
	}
	logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
	return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)}, nil
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	opts, err := CredentialOptions(cfg)
	if err != nil {
		return nil, err
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase Auth: %w", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &App{
		Options:   opts,
		Auth:      authClient,
		Firestore: firestoreClient,
	}, nil
}

func (a *App) Close() error {
	return a.Firestore.Close()
}
