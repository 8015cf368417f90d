package auth

import (
	"context"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"

	"github.com/aivy-lab/aivy/backend/internal/model/account"
)

// FirebaseProvider implements Provider on top of the Firebase Admin SDK.
type FirebaseProvider struct {
	client *fbauth.Client
}

// NewFirebaseProvider wraps an initialized Firebase auth client.
func NewFirebaseProvider(client *fbauth.Client) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

// CreateUser registers the account with Firebase Authentication.
func (p *FirebaseProvider) CreateUser(ctx context.Context, email, password string) (account.Identity, error) {
	params := (&fbauth.UserToCreate{}).Email(email).Password(password)

	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		switch {
		case fbauth.IsEmailAlreadyExists(err):
			return account.Identity{}, ErrEmailInUse
		case errorutils.IsInvalidArgument(err):
			return account.Identity{}, ErrInvalidArgument
		default:
			return account.Identity{}, fmt.Errorf("firebase create user: %w", err)
		}
	}

	return account.Identity{UID: record.UID, Email: record.Email}, nil
}

// GetUserByEmail resolves the account record held by Firebase.
func (p *FirebaseProvider) GetUserByEmail(ctx context.Context, email string) (account.Identity, error) {
	record, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return account.Identity{}, ErrAccountNotFound
		}
		return account.Identity{}, fmt.Errorf("firebase get user: %w", err)
	}

	return account.Identity{UID: record.UID, Email: record.Email}, nil
}
