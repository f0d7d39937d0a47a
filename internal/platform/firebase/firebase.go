// Package firebase wires the Firebase Admin SDK: ID-token verification for
// the identity layer and a Firestore client for the document gateway.
package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"pollhub/internal/domain/user"
)

// NewApp initialises the Admin SDK. An empty credentialsFile falls back to
// application default credentials.
func NewApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	return app, nil
}

func Firestore(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: firestore client: %w", err)
	}
	return client, nil
}

// tokenVerifier is the part of auth.Client the verifier needs.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier resolves Firebase ID tokens to actors.
type Verifier struct {
	client tokenVerifier
}

func NewVerifier(ctx context.Context, app *firebase.App) (*Verifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (*user.Actor, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	actor := &user.Actor{ID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		actor.Email = email
	}
	return actor, nil
}
