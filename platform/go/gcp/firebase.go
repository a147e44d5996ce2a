package gcp

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// GetApp creates a Firebase App. Without a credentials file it falls back to application default credentials.
func GetApp(ctx context.Context, credentialsPath string) (*firebase.App, error) {
	if credentialsPath != "" {
		return firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	}
	return firebase.NewApp(ctx, nil)
}

// InitFirebaseAuth initializes the Firebase App and returns an Auth client used to verify admin ID tokens.
func InitFirebaseAuth(ctx context.Context, credentialsPath string) (*firebaseauth.Client, error) {
	app, err := GetApp(ctx, credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app [%w]", err)
	}

	fbAuth, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase auth [%w]", err)
	}
	return fbAuth, nil
}
