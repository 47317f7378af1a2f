// ===============================
// internal/services/firebase.go - Firebase App, Auth, and Firestore
// ===============================

package services

import (
	"context"

	"seoulflix/internal/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseService wraps the Firebase Admin SDK: token verification for the
// admin routes and the Firestore client for the document catalog backend.
type FirebaseService struct {
	app        *firebase.App
	authClient *auth.Client
}

func NewFirebaseService(cfg *config.Config) (*FirebaseService, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
	}

	firebaseApp, err := firebase.NewApp(context.Background(), &firebase.Config{
		ProjectID: cfg.FirebaseProjectID,
	}, opts...)
	if err != nil {
		return nil, err
	}

	authClient, err := firebaseApp.Auth(context.Background())
	if err != nil {
		return nil, err
	}

	return &FirebaseService{
		app:        firebaseApp,
		authClient: authClient,
	}, nil
}

// Firestore returns a Firestore client for the document catalog adapter.
func (fs *FirebaseService) Firestore(ctx context.Context) (*firestore.Client, error) {
	return fs.app.Firestore(ctx)
}

// VerifyIDToken verifies a Firebase ID token and returns the token claims.
func (fs *FirebaseService) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return fs.authClient.VerifyIDToken(ctx, idToken)
}
