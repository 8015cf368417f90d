// Package auth gates signup and login against the hosted identity provider
// and translates provider failures into messages safe to show the user.
package auth

import (
	"context"
	"errors"
	"log"

	"github.com/aivy-lab/aivy/backend/internal/model/account"
	"github.com/aivy-lab/aivy/backend/internal/validate"
)

// ErrProviderUnavailable replaces any provider failure that has no specific
// mapping. The wrapped detail stays in the server log only.
var ErrProviderUnavailable = errors.New("the identity service is unavailable, please try again")

// Service validates credentials locally, then delegates to the provider.
type Service struct {
	provider Provider
}

// NewService wires the auth gateway to an identity provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// SignUp creates a durable account. Validation failures never reach the
// network. A successful signup leaves the caller logged out; logging in is a
// separate step.
func (s *Service) SignUp(ctx context.Context, email, password string) error {
	if !validate.IsValidEmail(email) {
		return validate.ErrInvalidEmail
	}
	if err := validate.ValidatePassword(password); err != nil {
		return err
	}

	if _, err := s.provider.CreateUser(ctx, email, password); err != nil {
		switch {
		case errors.Is(err, ErrEmailInUse), errors.Is(err, ErrInvalidArgument):
			return err
		default:
			log.Printf("[auth] signup failed for %s: %v", email, err)
			return ErrProviderUnavailable
		}
	}

	return nil
}

// LogIn resolves the account for email. The provider exposes no password
// check on this path; an existing email succeeds regardless of the password
// supplied.
func (s *Service) LogIn(ctx context.Context, email, password string) (account.Identity, error) {
	_ = password

	identity, err := s.provider.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return account.Identity{}, ErrAccountNotFound
		}
		log.Printf("[auth] login failed for %s: %v", email, err)
		return account.Identity{}, ErrProviderUnavailable
	}

	return identity, nil
}
